package export

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/OCAP2/annotator/pkg/core"
)

// Document is the JSON export layout.
type Document struct {
	Video       string           `json:"video,omitempty"`
	SessionID   string           `json:"sessionId,omitempty"`
	FPS         float64          `json:"fps,omitempty"`
	ExportedAt  time.Time        `json:"exportedAt"`
	FrameColumn string           `json:"frameColumn"`
	Schema      core.Schema      `json:"schema"`
	Records     []map[string]any `json:"records"`
}

// BuildDocument converts a table into its JSON document. Every schema field
// is present in every record; missing values are null.
func BuildDocument(t Table, at time.Time) Document {
	doc := Document{
		Video:       t.VideoPath,
		SessionID:   t.SessionID,
		FPS:         t.FPS,
		ExportedAt:  at.UTC(),
		FrameColumn: t.frameColumn(),
		Schema:      t.Schema,
		Records:     make([]map[string]any, 0, len(t.Records)),
	}
	for _, rec := range t.Records {
		m := make(map[string]any, t.Schema.Len()+1)
		m[doc.FrameColumn] = rec.FrameIndex
		for _, name := range t.Schema.Names() {
			m[name] = rec.Values[name]
		}
		doc.Records = append(doc.Records, m)
	}
	return doc
}

// JSONExporter writes a JSON document, optionally gzip compressed.
type JSONExporter struct {
	Compress bool
	now      func() time.Time
}

func (e *JSONExporter) Format() Format { return JSON }

func (e *JSONExporter) Export(_ context.Context, t Table, path string) error {
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	doc := BuildDocument(t, now())

	f, err := os.Create(path)
	if err != nil {
		return writeErr(path, err)
	}
	defer f.Close()

	if e.Compress {
		gz := gzip.NewWriter(f)
		if err := encode(gz, doc); err != nil {
			return writeErr(path, err)
		}
		if err := gz.Close(); err != nil {
			return writeErr(path, err)
		}
	} else if err := encode(f, doc); err != nil {
		return writeErr(path, err)
	}

	if err := f.Close(); err != nil {
		return writeErr(path, err)
	}
	return nil
}

func encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON reads back a document written by JSONExporter, compressed or not.
func ReadJSON(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if gz, err := gzip.NewReader(f); err == nil {
		defer gz.Close()
		r = gz
	} else if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Document{}, err
	}

	var doc Document
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
