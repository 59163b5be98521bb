// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/OCAP2/annotator/internal/model"
	"github.com/OCAP2/annotator/pkg/core"
)

// CoreToSession converts a core.Session to a GORM model.Session, records
// included.
func CoreToSession(s core.Session) (model.Session, error) {
	schema, err := json.Marshal(s.Schema)
	if err != nil {
		return model.Session{}, fmt.Errorf("encode schema: %w", err)
	}

	records := make([]model.Record, 0, len(s.Records))
	for _, r := range s.Records {
		records = append(records, CoreToRecord(s.ID, r))
	}

	return model.Session{
		ID:        s.ID,
		SavedAt:   s.SavedAt,
		VideoPath: s.VideoPath,
		Schema:    datatypes.JSON(schema),
		Records:   records,
	}, nil
}

// CoreToRecord converts a core.Record to a GORM model.Record. Unset values
// are stored as JSON null so every declared field is present.
func CoreToRecord(sessionID string, r core.Record) model.Record {
	values := make(datatypes.JSONMap, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return model.Record{
		SessionID:  sessionID,
		FrameIndex: r.FrameIndex,
		Values:     values,
	}
}
