// Package prompt provides the synchronous prompts used for schema and cell
// editing. An empty answer or end of input is a cancel; the literal answer
// "" submits an empty string.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user for text and shows messages.
type Prompter interface {
	// Ask returns the answer and false when the user cancelled.
	Ask(title, question string) (string, bool)
	Info(title, message string)
	Error(title, message string)
}

// LinePrompter reads answers line by line from an input stream.
type LinePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewLinePrompter creates a prompter over in/out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Ask prints the question and reads one line.
func (p *LinePrompter) Ask(title, question string) (string, bool) {
	fmt.Fprintf(p.out, "[%s] %s ", title, question)
	line, ok := p.ReadLine()
	if !ok {
		return "", false
	}
	return answer(line)
}

// EmptyAnswer is typed to submit an empty string instead of cancelling.
const EmptyAnswer = `""`

func answer(line string) (string, bool) {
	switch strings.TrimSpace(line) {
	case "":
		return "", false
	case EmptyAnswer:
		return "", true
	}
	return line, true
}

// ReadLine reads the next raw input line; false on end of input.
func (p *LinePrompter) ReadLine() (string, bool) {
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimRight(p.in.Text(), "\r"), true
}

// Info prints an informational message.
func (p *LinePrompter) Info(title, message string) {
	fmt.Fprintf(p.out, "%s: %s\n", title, message)
}

// Error prints an error message.
func (p *LinePrompter) Error(title, message string) {
	fmt.Fprintf(p.out, "%s: %s\n", strings.ToUpper(title), message)
}

// Scripted answers prompts from a fixed list and records every message.
type Scripted struct {
	Answers  []string
	Infos    []string
	Errors   []string
	Asked    []string
	position int
}

// Ask returns the next scripted answer; an empty string or exhausted script
// cancels.
func (s *Scripted) Ask(title, question string) (string, bool) {
	s.Asked = append(s.Asked, question)
	if s.position >= len(s.Answers) {
		return "", false
	}
	a := s.Answers[s.position]
	s.position++
	return answer(a)
}

// Info records the message.
func (s *Scripted) Info(title, message string) {
	s.Infos = append(s.Infos, message)
}

// Error records the message.
func (s *Scripted) Error(title, message string) {
	s.Errors = append(s.Errors, message)
}
