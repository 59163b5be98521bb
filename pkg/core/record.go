// pkg/core/record.go
package core

import "time"

// Record holds the annotation values attached to one frame index.
type Record struct {
	FrameIndex int              `json:"frameIndex"`
	Values     map[string]Value `json:"values"`
}

// NewRecord creates a record with every schema field set to the empty value.
func NewRecord(frame int, schema Schema) Record {
	values := make(map[string]Value, schema.Len())
	for _, name := range schema.Names() {
		values[name] = nil
	}
	return Record{FrameIndex: frame, Values: values}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	values := make(map[string]Value, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Record{FrameIndex: r.FrameIndex, Values: values}
}

// Session is a saved snapshot of one annotation session.
type Session struct {
	ID        string
	VideoPath string
	Schema    Schema
	Records   []Record
	SavedAt   time.Time
}

// SessionInfo summarizes a saved session without its records.
type SessionInfo struct {
	ID          string
	VideoPath   string
	RecordCount int
	SavedAt     time.Time
}
