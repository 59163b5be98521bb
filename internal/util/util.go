// Package util provides common utility functions used across the annotator.
package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// SanitizeName makes s safe to use as part of a file name.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '/', '\\', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "annotations"
	}
	return s
}

// VideoStem returns the base name of a video path without its extension.
func VideoStem(videoPath string) string {
	base := filepath.Base(videoPath)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultExportName builds "<video>_<timestamp>.<ext>".
func DefaultExportName(videoPath, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeName(VideoStem(videoPath)), at.Format("20060102_150405"), ext)
}

// SplitArgs splits a command line on whitespace. Double-quoted sections are
// kept together so paths with spaces survive.
func SplitArgs(line string) []string {
	var (
		args    []string
		b       strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				args = append(args, b.String())
				b.Reset()
				pending = false
			}
		default:
			b.WriteRune(r)
			pending = true
		}
	}
	if pending {
		args = append(args, b.String())
	}
	return args
}
