// Package annotation holds the per-frame annotation table of one session.
package annotation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OCAP2/annotator/pkg/core"
)

var (
	ErrRecordNotFound  = errors.New("no annotation for frame")
	ErrFrameOutOfRange = errors.New("frame index out of range")
)

// Store keeps at most one record per frame index. Records accumulate in
// insertion order and are sorted by frame index on export.
//
// A Store is owned by the shell and is not safe for concurrent use.
type Store struct {
	schema core.Schema

	records map[int]*core.Record // keyed by frame index
	order   []int                // insertion order

	// frameLimit is the video's total frame count; 0 means unknown.
	frameLimit int
}

// New creates an empty store for the given schema.
func New(schema core.Schema) *Store {
	return &Store{
		schema:  schema,
		records: make(map[int]*core.Record),
	}
}

// Schema returns the schema every record carries.
func (s *Store) Schema() core.Schema {
	return s.schema
}

// SetFrameLimit bounds the store to [0, total). Zero removes the bound.
// Records at or beyond total are dropped; their frame indices are returned
// in ascending order.
func (s *Store) SetFrameLimit(total int) []int {
	if total < 0 {
		total = 0
	}
	s.frameLimit = total
	if total == 0 {
		return nil
	}

	var dropped []int
	kept := s.order[:0]
	for _, frame := range s.order {
		if frame >= total {
			delete(s.records, frame)
			dropped = append(dropped, frame)
			continue
		}
		kept = append(kept, frame)
	}
	s.order = kept
	sort.Ints(dropped)
	return dropped
}

// FrameLimit returns the current bound, 0 when unbounded.
func (s *Store) FrameLimit() int {
	return s.frameLimit
}

// Insert adds an empty record for frame. It returns false without error when
// the frame already has a record.
func (s *Store) Insert(frame int) (bool, error) {
	if err := s.checkFrame(frame); err != nil {
		return false, err
	}
	if _, ok := s.records[frame]; ok {
		return false, nil
	}

	rec := core.NewRecord(frame, s.schema)
	s.records[frame] = &rec
	s.order = append(s.order, frame)
	return true, nil
}

// Update overwrites one field of the record for frame. The value must already
// have the field's declared Go type (see core.Coerce).
func (s *Store) Update(frame int, field string, value core.Value) error {
	f, ok := s.schema.Lookup(field)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownField, field)
	}
	rec, ok := s.records[frame]
	if !ok {
		return fmt.Errorf("%w %d", ErrRecordNotFound, frame)
	}

	v, err := core.Normalize(value, f.Type)
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	rec.Values[field] = v
	return nil
}

// Remove deletes the record for frame and reports whether one existed.
func (s *Store) Remove(frame int) bool {
	if _, ok := s.records[frame]; !ok {
		return false
	}
	delete(s.records, frame)
	for i, f := range s.order {
		if f == frame {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the record for frame.
func (s *Store) Get(frame int) (core.Record, bool) {
	rec, ok := s.records[frame]
	if !ok {
		return core.Record{}, false
	}
	return rec.Clone(), true
}

// Len returns the number of annotated frames.
func (s *Store) Len() int {
	return len(s.records)
}

// Export returns copies of all records sorted ascending by frame index.
func (s *Store) Export() []core.Record {
	out := make([]core.Record, 0, len(s.order))
	for _, frame := range s.order {
		out = append(out, s.records[frame].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FrameIndex < out[j].FrameIndex
	})
	return out
}

// Restore replaces the store contents with records loaded from storage.
// Values are normalized against the schema; fields missing from a record are
// set to the empty value and unknown keys are dropped.
func (s *Store) Restore(records []core.Record) error {
	restored := make(map[int]*core.Record, len(records))
	order := make([]int, 0, len(records))

	for _, r := range records {
		if r.FrameIndex < 0 {
			return fmt.Errorf("%w: %d", ErrFrameOutOfRange, r.FrameIndex)
		}
		if _, dup := restored[r.FrameIndex]; dup {
			continue
		}
		rec := core.NewRecord(r.FrameIndex, s.schema)
		for _, f := range s.schema.Fields() {
			v, err := core.Normalize(r.Values[f.Name], f.Type)
			if err != nil {
				return fmt.Errorf("frame %d field %q: %w", r.FrameIndex, f.Name, err)
			}
			rec.Values[f.Name] = v
		}
		restored[r.FrameIndex] = &rec
		order = append(order, r.FrameIndex)
	}

	s.records = restored
	s.order = order
	return nil
}

func (s *Store) checkFrame(frame int) error {
	if frame < 0 {
		return fmt.Errorf("%w: %d", ErrFrameOutOfRange, frame)
	}
	if s.frameLimit > 0 && frame >= s.frameLimit {
		return fmt.Errorf("%w: %d (video has %d frames)", ErrFrameOutOfRange, frame, s.frameLimit)
	}
	return nil
}
