// Package celleditor edits one annotation cell at a time: a gesture on a
// cell opens a value prompt, and the answer is coerced to the field's type
// before it reaches the store.
package celleditor

import (
	"errors"
	"fmt"

	"github.com/OCAP2/annotator/internal/prompt"
	"github.com/OCAP2/annotator/pkg/core"
)

var (
	ErrFrameColumn = errors.New("frame index column is not editable")
	ErrNotEditing  = errors.New("no edit in progress")
	ErrBusy        = errors.New("an edit is already in progress")
	ErrCancelled   = errors.New("edit cancelled")
)

// State of the editor.
type State int

const (
	Idle State = iota
	AwaitingInput
)

func (s State) String() string {
	if s == AwaitingInput {
		return "awaiting-input"
	}
	return "idle"
}

// Updater is the part of the annotation store the editor writes to.
type Updater interface {
	Update(frame int, field string, value core.Value) error
}

// Editor is the two-state cell edit machine.
type Editor struct {
	store  Updater
	schema core.Schema

	state State
	frame int
	field core.Field
}

// New creates an idle editor bound to a store and its schema.
func New(store Updater, schema core.Schema) *Editor {
	return &Editor{store: store, schema: schema}
}

// State returns the current state.
func (e *Editor) State() State {
	return e.state
}

// Target returns the cell being edited.
func (e *Editor) Target() (frame int, field core.Field, ok bool) {
	if e.state != AwaitingInput {
		return 0, core.Field{}, false
	}
	return e.frame, e.field, true
}

// Activate starts an edit on a table cell. Column 0 is the frame index
// column; column i > 0 is the (i-1)-th declared field.
func (e *Editor) Activate(frame, column int) error {
	if column == 0 {
		return ErrFrameColumn
	}
	f, ok := e.schema.At(column - 1)
	if !ok {
		return fmt.Errorf("%w: column %d", core.ErrUnknownField, column)
	}
	return e.begin(frame, f)
}

// ActivateField starts an edit on the named field of a frame.
func (e *Editor) ActivateField(frame int, name string) error {
	f, ok := e.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownField, name)
	}
	return e.begin(frame, f)
}

func (e *Editor) begin(frame int, f core.Field) error {
	if e.state == AwaitingInput {
		return ErrBusy
	}
	e.state = AwaitingInput
	e.frame = frame
	e.field = f
	return nil
}

// Submit coerces raw to the field type and writes it. The editor returns to
// idle whatever the outcome; on error the store is left untouched.
func (e *Editor) Submit(raw string) error {
	if e.state != AwaitingInput {
		return ErrNotEditing
	}
	frame, field := e.frame, e.field
	e.reset()

	v, err := core.Coerce(raw, field.Type)
	if err != nil {
		return fmt.Errorf("invalid value for %s field %q: %w", field.Type, field.Name, err)
	}
	return e.store.Update(frame, field.Name, v)
}

// Cancel abandons the edit without mutating the store.
func (e *Editor) Cancel() {
	e.reset()
}

func (e *Editor) reset() {
	e.state = Idle
	e.frame = 0
	e.field = core.Field{}
}

// Edit runs one full gesture: activate the named cell, prompt for the value,
// then submit or cancel.
func (e *Editor) Edit(frame int, name string, p prompt.Prompter) error {
	if err := e.ActivateField(frame, name); err != nil {
		return err
	}

	raw, ok := p.Ask("Edit value", fmt.Sprintf("New value for '%s' (type %s, %s for empty):", e.field.Name, e.field.Type, prompt.EmptyAnswer))
	if !ok {
		e.Cancel()
		return ErrCancelled
	}
	return e.Submit(raw)
}
