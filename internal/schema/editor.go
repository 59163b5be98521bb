// Package schema implements the dialog that declares annotation fields.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OCAP2/annotator/internal/prompt"
	"github.com/OCAP2/annotator/pkg/core"
)

var (
	ErrClosed    = errors.New("schema editor closed")
	ErrCancelled = errors.New("schema configuration cancelled")
)

// Editor accumulates pending fields until Confirm.
type Editor struct {
	pending []core.Field
	closed  bool
}

// NewEditor creates an editor with no pending fields.
func NewEditor() *Editor {
	return &Editor{}
}

// Add appends a field. Invalid types, empty names and duplicates are rejected
// without touching the pending list.
func (e *Editor) Add(name, typeText string) error {
	if e.closed {
		return ErrClosed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyFieldName
	}
	t, err := core.ParseFieldType(typeText)
	if err != nil {
		return err
	}
	for _, f := range e.pending {
		if f.Name == name {
			return fmt.Errorf("%w: %q", core.ErrDuplicateField, name)
		}
	}
	e.pending = append(e.pending, core.Field{Name: name, Type: t})
	return nil
}

// Remove deletes the named pending field and reports whether it existed.
func (e *Editor) Remove(name string) bool {
	if e.closed {
		return false
	}
	for i, f := range e.pending {
		if f.Name == name {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns a copy of the pending fields.
func (e *Editor) Pending() []core.Field {
	out := make([]core.Field, len(e.pending))
	copy(out, e.pending)
	return out
}

// Confirm returns the pending list as an immutable schema and closes the
// editor.
func (e *Editor) Confirm() (core.Schema, error) {
	if e.closed {
		return core.Schema{}, ErrClosed
	}
	s, err := core.NewSchema(e.pending...)
	if err != nil {
		return core.Schema{}, err
	}
	e.discard()
	return s, nil
}

// Cancel closes the editor without producing a schema.
func (e *Editor) Cancel() {
	e.discard()
}

// Closed reports whether Confirm or Cancel has been called.
func (e *Editor) Closed() bool {
	return e.closed
}

func (e *Editor) discard() {
	e.pending = nil
	e.closed = true
}

// Run drives the editor through p until the user confirms or cancels.
// Actions: add, remove, list, done, cancel.
func (e *Editor) Run(p prompt.Prompter) (core.Schema, error) {
	for {
		action, ok := p.Ask("Configure annotation", "Action (add, remove, list, done, cancel):")
		if !ok {
			e.Cancel()
			return core.Schema{}, ErrCancelled
		}

		switch strings.ToLower(strings.TrimSpace(action)) {
		case "add", "a":
			e.addFromPrompt(p)
		case "remove", "rm", "r":
			name, ok := p.Ask("Remove field", "Field name:")
			if !ok {
				continue
			}
			if !e.Remove(strings.TrimSpace(name)) {
				p.Error("Error", fmt.Sprintf("no pending field %q", name))
			}
		case "list", "ls", "l":
			p.Info("Fields", describe(e.pending))
		case "done", "confirm", "d":
			return e.Confirm()
		case "cancel", "c":
			e.Cancel()
			return core.Schema{}, ErrCancelled
		default:
			p.Error("Error", fmt.Sprintf("unknown action %q", action))
		}
	}
}

func (e *Editor) addFromPrompt(p prompt.Prompter) {
	name, ok := p.Ask("Field name", "Enter the name:")
	if !ok {
		return
	}
	typeText, ok := p.Ask("Field type", "Enter the type (int, float, str):")
	if !ok {
		return
	}
	if err := e.Add(name, typeText); err != nil {
		p.Error("Error", err.Error())
	}
}

func describe(fields []core.Field) string {
	if len(fields) == 0 {
		return "(none)"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s:%s", f.Name, f.Type)
	}
	return strings.Join(parts, ", ")
}
