package util

import (
	"reflect"
	"testing"
	"time"
)

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no quotes", "hello", "hello"},
		{"double quoted", `"hello"`, "hello"},
		{"single quotes only", "'hello'", "'hello'"},
		{"quotes in middle", `he"llo`, `he"llo`},
		{"only quotes", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimQuotes(tt.input)
			if result != tt.expected {
				t.Errorf("TrimQuotes(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "clip", "clip"},
		{"spaces and colons", "match 1: half", "match_1__half"},
		{"separators", `a/b\c`, "a_b_c"},
		{"empty", "  ", "annotations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeName(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestVideoStem(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/videos/clip.mp4", "clip"},
		{"clip.tar.mov", "clip.tar"},
		{"noext", "noext"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := VideoStem(tt.input); got != tt.expected {
			t.Errorf("VideoStem(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDefaultExportName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	got := DefaultExportName("/videos/game day.mp4", "csv", at)
	if got != "game_day_20240309_140507.csv" {
		t.Errorf("DefaultExportName = %q", got)
	}

	got = DefaultExportName("", "xlsx", at)
	if got != "annotations_20240309_140507.xlsx" {
		t.Errorf("DefaultExportName without video = %q", got)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "next", []string{"next"}},
		{"extra spaces", "  step   -5 ", []string{"step", "-5"}},
		{"quoted path", `load "/tmp/my clip.mp4"`, []string{"load", "/tmp/my clip.mp4"}},
		{"empty quotes", `export csv ""`, []string{"export", "csv", ""}},
		{"tabs", "edit\t3\tlabel", []string{"edit", "3", "label"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SplitArgs(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("SplitArgs(%q) = %#v, want %#v", tt.input, result, tt.expected)
			}
		})
	}
}
