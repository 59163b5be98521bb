package convert

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/OCAP2/annotator/internal/model"
	"github.com/OCAP2/annotator/pkg/core"
)

// SessionToCore converts a GORM model.Session to a core.Session. Stored
// values are decoded JSON, so each one is normalized back to its declared
// type; keys outside the schema are dropped.
func SessionToCore(s model.Session) (core.Session, error) {
	var schema core.Schema
	if len(s.Schema) > 0 {
		if err := json.Unmarshal(s.Schema, &schema); err != nil {
			return core.Session{}, fmt.Errorf("decode schema of session %s: %w", s.ID, err)
		}
	}

	records := make([]core.Record, 0, len(s.Records))
	for _, r := range s.Records {
		rec, err := RecordToCore(r, schema)
		if err != nil {
			return core.Session{}, fmt.Errorf("session %s: %w", s.ID, err)
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FrameIndex < records[j].FrameIndex
	})

	return core.Session{
		ID:        s.ID,
		VideoPath: s.VideoPath,
		Schema:    schema,
		Records:   records,
		SavedAt:   s.SavedAt,
	}, nil
}

// RecordToCore converts a GORM model.Record to a core.Record under schema.
func RecordToCore(r model.Record, schema core.Schema) (core.Record, error) {
	rec := core.NewRecord(r.FrameIndex, schema)
	for _, f := range schema.Fields() {
		v, err := core.Normalize(r.Values[f.Name], f.Type)
		if err != nil {
			return core.Record{}, fmt.Errorf("frame %d field %q: %w", r.FrameIndex, f.Name, err)
		}
		rec.Values[f.Name] = v
	}
	return rec, nil
}

// SessionToInfo summarizes a session row.
func SessionToInfo(s model.Session, recordCount int) core.SessionInfo {
	return core.SessionInfo{
		ID:          s.ID,
		VideoPath:   s.VideoPath,
		RecordCount: recordCount,
		SavedAt:     s.SavedAt,
	}
}
