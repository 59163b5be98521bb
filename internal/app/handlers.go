package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/OCAP2/annotator/internal/annotation"
	"github.com/OCAP2/annotator/internal/celleditor"
	"github.com/OCAP2/annotator/internal/dispatcher"
	"github.com/OCAP2/annotator/internal/export"
	"github.com/OCAP2/annotator/internal/playback"
	"github.com/OCAP2/annotator/internal/schema"
	"github.com/OCAP2/annotator/internal/util"
	"github.com/OCAP2/annotator/pkg/core"
)

// RegisterHandlers registers every shell command with the dispatcher.
func (s *Shell) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Playback
	d.Register("load", s.handleLoad, dispatcher.Logged(), dispatcher.Describe("load <path>", "open a video and show its first frame"))
	d.Register("next", s.handleNext, dispatcher.Logged(), dispatcher.Describe("next", "go to the next frame"))
	d.Register("prev", s.handlePrev, dispatcher.Logged(), dispatcher.Describe("prev", "go to the previous frame"))
	d.Register("step", s.handleStep, dispatcher.Logged(), dispatcher.Describe("step <delta>", "move by delta frames"))
	d.Register("seek", s.handleSeek, dispatcher.Logged(), dispatcher.Describe("seek <frame>", "jump to a frame"))
	d.Register("info", s.handleInfo, dispatcher.Describe("info", "show the current frame and session"))

	// Annotation
	d.Register("config", s.handleConfig, dispatcher.Logged(), dispatcher.Describe("config", "declare the annotation fields (resets annotations)"))
	d.Register("annotate", s.handleAnnotate, dispatcher.Logged(), dispatcher.Describe("annotate", "add a record for the current frame"))
	d.Register("edit", s.handleEdit, dispatcher.Logged(), dispatcher.Describe("edit <frame> <field> [value]", "set one annotation value"))
	d.Register("remove", s.handleRemove, dispatcher.Logged(), dispatcher.Describe("remove <frame>", "delete the record of a frame"))
	d.Register("list", s.handleList, dispatcher.Describe("list", "show the annotation table"))

	// Output
	d.Register("export", s.handleExport, dispatcher.Logged(), dispatcher.Describe("export <csv|xlsx|json|influx> [path]", "write the annotation table"))
	d.Register("inspect", s.handleInspect, dispatcher.Describe("inspect <path>", "show an exported csv, xlsx or json file"))

	// Sessions
	d.Register("save", s.handleSave, dispatcher.Logged(), dispatcher.Describe("save", "store the current session"))
	d.Register("restore", s.handleRestore, dispatcher.Logged(), dispatcher.Describe("restore <session-id>", "reload a stored session"))
	d.Register("sessions", s.handleSessions, dispatcher.Describe("sessions", "list stored sessions"))

	d.Register("help", s.handleHelp, dispatcher.Describe("help", "show this list"))
	d.Register("quit", s.handleQuit, dispatcher.Describe("quit", "leave the annotator"))
}

func usage(text string) error {
	return fmt.Errorf("%w: %s", ErrUsage, text)
}

func parseFrame(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("invalid frame index %q", arg)
	}
	return n, nil
}

func (s *Shell) handleLoad(ctx context.Context, e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, usage("load <path>")
	}
	path := util.TrimQuotes(e.Args[0])

	err := s.deps.Player.Load(ctx, path)
	if err != nil {
		s.deps.Session.SetVideo("")
		return nil, err
	}
	s.deps.Session.SetVideo(path)

	msg := fmt.Sprintf("Video loaded: %s (%d frames, %.2f fps)\n%s",
		path, s.deps.Player.Total(), s.deps.Player.FPS(), s.deps.Player.InfoLine())
	if s.store != nil {
		msg += s.applyFrameLimit(s.store)
	}
	return msg, nil
}

// applyFrameLimit bounds store to the loaded video and describes any records
// that fell outside it.
func (s *Shell) applyFrameLimit(store *annotation.Store) string {
	total := s.deps.Player.Total()
	dropped := store.SetFrameLimit(total)
	if len(dropped) == 0 {
		return ""
	}
	s.deps.Logger.Warn("Dropped annotations beyond video end", "frames", dropped, "total", total)
	return fmt.Sprintf("\nDropped %d annotation(s) beyond frame %d: %s",
		len(dropped), total-1, joinInts(dropped))
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func (s *Shell) move(ctx context.Context, delta int) (any, error) {
	moved, err := s.deps.Player.Advance(ctx, delta)
	if err != nil {
		return nil, err
	}
	if moved {
		s.deps.Session.SetFrame(s.deps.Player.Current())
	}
	return s.deps.Player.InfoLine(), nil
}

func (s *Shell) handleNext(ctx context.Context, _ dispatcher.Event) (any, error) {
	return s.move(ctx, 1)
}

func (s *Shell) handlePrev(ctx context.Context, _ dispatcher.Event) (any, error) {
	return s.move(ctx, -1)
}

func (s *Shell) handleStep(ctx context.Context, e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, usage("step <delta>")
	}
	delta, err := strconv.Atoi(e.Args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid delta %q", e.Args[0])
	}
	return s.move(ctx, delta)
}

func (s *Shell) handleSeek(ctx context.Context, e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, usage("seek <frame>")
	}
	frame, err := parseFrame(e.Args[0])
	if err != nil {
		return nil, err
	}
	return s.move(ctx, frame-s.deps.Player.Current())
}

func (s *Shell) handleInfo(_ context.Context, _ dispatcher.Event) (any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", s.deps.Session.ID())
	if s.deps.Player.Loaded() {
		fmt.Fprintf(&b, "Video: %s (%d frames)\n", s.deps.Player.Path(), s.deps.Player.Total())
		b.WriteString(s.deps.Player.InfoLine())
	} else {
		b.WriteString("Video: none")
	}
	if s.store != nil {
		fmt.Fprintf(&b, "\nFields: %s\nRecords: %d", describeSchema(s.store.Schema()), s.store.Len())
	} else {
		b.WriteString("\nFields: not configured")
	}
	return b.String(), nil
}

func describeSchema(sc core.Schema) string {
	if sc.Len() == 0 {
		return "(none)"
	}
	parts := make([]string, 0, sc.Len())
	for _, f := range sc.Fields() {
		parts = append(parts, fmt.Sprintf("%s:%s", f.Name, f.Type))
	}
	return strings.Join(parts, ", ")
}

// resetStore replaces the current session with an empty one for sc.
func (s *Shell) resetStore(sc core.Schema) {
	s.store = annotation.New(sc)
	if s.deps.Player.Loaded() {
		s.store.SetFrameLimit(s.deps.Player.Total())
	}
}

func (s *Shell) handleConfig(_ context.Context, _ dispatcher.Event) (any, error) {
	sc, err := schema.NewEditor().Run(s.deps.Prompter)
	if errors.Is(err, schema.ErrCancelled) {
		return "Schema unchanged.", nil
	}
	if err != nil {
		return nil, err
	}

	discarded := 0
	if s.store != nil {
		discarded = s.store.Len()
	}
	s.resetStore(sc)
	id := s.deps.Session.Renew()
	s.deps.Logger.Info("Schema configured", "fields", sc.Names(), "discarded", discarded, "session", id)

	return fmt.Sprintf("Schema configured: %s", describeSchema(sc)), nil
}

func (s *Shell) handleAnnotate(_ context.Context, _ dispatcher.Event) (any, error) {
	if s.store == nil {
		return nil, ErrNoSchema
	}
	if !s.deps.Player.Loaded() {
		return nil, fmt.Errorf("cannot annotate: %w", playback.ErrNoVideo)
	}

	frame := s.deps.Player.Current()
	inserted, err := s.store.Insert(frame)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return fmt.Sprintf("Frame %d is already annotated.", frame), nil
	}
	return fmt.Sprintf("Frame %d annotated.", frame), nil
}

func (s *Shell) handleEdit(_ context.Context, e dispatcher.Event) (any, error) {
	if s.store == nil {
		return nil, ErrNoSchema
	}
	if len(e.Args) < 2 || len(e.Args) > 3 {
		return nil, usage("edit <frame> <field> [value]")
	}
	frame, err := parseFrame(e.Args[0])
	if err != nil {
		return nil, err
	}
	field := e.Args[1]

	editor := celleditor.New(s.store, s.store.Schema())
	if len(e.Args) == 3 {
		if err := editor.ActivateField(frame, field); err != nil {
			return nil, err
		}
		err = editor.Submit(e.Args[2])
	} else {
		err = editor.Edit(frame, field, s.deps.Prompter)
	}
	if errors.Is(err, celleditor.ErrCancelled) {
		return "Edit cancelled.", nil
	}
	if err != nil {
		return nil, err
	}

	rec, _ := s.store.Get(frame)
	return fmt.Sprintf("Frame %d: %s = %s", frame, field, core.FormatValue(rec.Values[field])), nil
}

func (s *Shell) handleRemove(_ context.Context, e dispatcher.Event) (any, error) {
	if s.store == nil {
		return nil, ErrNoSchema
	}
	if len(e.Args) != 1 {
		return nil, usage("remove <frame>")
	}
	frame, err := parseFrame(e.Args[0])
	if err != nil {
		return nil, err
	}
	if !s.store.Remove(frame) {
		return nil, fmt.Errorf("%w %d", annotation.ErrRecordNotFound, frame)
	}
	return fmt.Sprintf("Frame %d removed.", frame), nil
}

func (s *Shell) table() export.Table {
	t := export.NewTable(s.store.Schema(), s.store.Export())
	t.FrameColumn = s.deps.FrameColumn
	t.VideoPath = s.deps.Player.Path()
	t.SessionID = s.deps.Session.ID()
	t.FPS = s.deps.Player.FPS()
	return t
}

func renderTable(header []string, rows [][]string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func (s *Shell) handleList(_ context.Context, _ dispatcher.Event) (any, error) {
	if s.store == nil {
		return nil, ErrNoSchema
	}
	if s.store.Len() == 0 {
		return "No annotations.", nil
	}

	t := s.table()
	rows := make([][]string, 0, len(t.Records))
	for _, rec := range t.Records {
		rows = append(rows, t.Strings(rec))
	}
	return renderTable(t.Columns(), rows), nil
}

// exportPath returns the destination for format, creating its directory.
func (s *Shell) exportPath(format export.Format, args []string) (string, error) {
	path := ""
	if len(args) > 0 {
		path = util.TrimQuotes(args[0])
	} else {
		name := util.DefaultExportName(s.deps.Player.Path(), format.Ext(), s.deps.Now())
		path = filepath.Join(s.deps.ExportDir, name)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("%w: %s: %w", export.ErrWrite, dir, err)
		}
	}
	return path, nil
}

func (s *Shell) handleExport(ctx context.Context, e dispatcher.Event) (any, error) {
	if s.store == nil {
		return nil, ErrNoSchema
	}
	if len(e.Args) < 1 || len(e.Args) > 2 {
		return nil, usage("export <csv|xlsx|json|influx> [path]")
	}
	format, err := export.ParseFormat(e.Args[0])
	if err != nil {
		return nil, err
	}
	exporter, err := export.New(format, s.deps.Export)
	if err != nil {
		return nil, err
	}

	t := s.table()
	if format == export.Influx {
		if err := exporter.Export(ctx, t, ""); err != nil {
			return nil, err
		}
		s.flush(ctx)
		return fmt.Sprintf("Exported %d records to InfluxDB.", len(t.Records)), nil
	}

	path, err := s.exportPath(format, e.Args[1:])
	if err != nil {
		return nil, err
	}
	if err := exporter.Export(ctx, t, path); err != nil {
		return nil, err
	}
	s.deps.Logger.Info("Annotations exported", "format", format, "path", path, "records", len(t.Records))
	s.flush(ctx)
	return fmt.Sprintf("Exported %d records to %s", len(t.Records), path), nil
}

func (s *Shell) handleInspect(_ context.Context, e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, usage("inspect <path>")
	}
	path := util.TrimQuotes(e.Args[0])

	var (
		header []string
		rows   [][]string
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		header, rows, err = export.ReadCSV(path)
	case ".xlsx":
		header, rows, err = export.ReadXLSX(path)
	case ".json", ".gz":
		var doc export.Document
		doc, err = export.ReadJSON(path)
		if err == nil {
			header, rows = documentRows(doc)
		}
	default:
		return nil, fmt.Errorf("%w: %q", export.ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("%s\n%d rows", renderTable(header, rows), len(rows)), nil
}

func documentRows(doc export.Document) ([]string, [][]string) {
	header := append([]string{doc.FrameColumn}, doc.Schema.Names()...)
	rows := make([][]string, 0, len(doc.Records))
	for _, rec := range doc.Records {
		row := make([]string, 0, len(header))
		for _, col := range header {
			if v, ok := rec[col]; ok && v != nil {
				row = append(row, fmt.Sprint(v))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

func (s *Shell) handleSave(ctx context.Context, _ dispatcher.Event) (any, error) {
	if s.deps.Backend == nil {
		return nil, ErrNoBackend
	}
	if s.store == nil {
		return nil, ErrNoSchema
	}

	sess := core.Session{
		ID:        s.deps.Session.ID(),
		VideoPath: s.deps.Player.Path(),
		Schema:    s.store.Schema(),
		Records:   s.store.Export(),
		SavedAt:   s.deps.Now(),
	}
	if err := s.deps.Backend.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	s.deps.Logger.Info("Session saved", "session", sess.ID, "records", len(sess.Records))
	s.flush(ctx)
	return fmt.Sprintf("Session %s saved (%d records).", sess.ID, len(sess.Records)), nil
}

func (s *Shell) handleRestore(ctx context.Context, e dispatcher.Event) (any, error) {
	if s.deps.Backend == nil {
		return nil, ErrNoBackend
	}
	if len(e.Args) != 1 {
		return nil, usage("restore <session-id>")
	}

	sess, err := s.deps.Backend.LoadSession(ctx, e.Args[0])
	if err != nil {
		return nil, err
	}

	store := annotation.New(sess.Schema)
	if err := store.Restore(sess.Records); err != nil {
		return nil, err
	}
	s.store = store
	s.deps.Session.Adopt(sess.ID)

	msg := fmt.Sprintf("Session %s restored (%d records).", sess.ID, store.Len())
	if sess.VideoPath != "" && sess.VideoPath != s.deps.Player.Path() {
		if err := s.deps.Player.Load(ctx, sess.VideoPath); err != nil {
			s.deps.Session.SetVideo("")
			s.deps.Logger.Warn("Failed to reopen session video", "path", sess.VideoPath, "error", err)
			msg += fmt.Sprintf("\nVideo %s could not be opened: %v", sess.VideoPath, err)
		} else {
			s.deps.Session.SetVideo(sess.VideoPath)
		}
	}
	if s.deps.Player.Loaded() {
		msg += s.applyFrameLimit(store)
	}
	return msg, nil
}

func (s *Shell) handleSessions(ctx context.Context, _ dispatcher.Event) (any, error) {
	if s.deps.Backend == nil {
		return nil, ErrNoBackend
	}
	infos, err := s.deps.Backend.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return "No stored sessions.", nil
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{
			info.ID,
			info.SavedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(info.RecordCount),
			info.VideoPath,
		})
	}
	return renderTable([]string{"ID", "SAVED", "RECORDS", "VIDEO"}, rows), nil
}

func (s *Shell) handleHelp(_ context.Context, _ dispatcher.Event) (any, error) {
	cmds := s.deps.Dispatcher.Commands()
	rows := make([][]string, 0, len(cmds))
	for _, c := range cmds {
		rows = append(rows, []string{c.Usage, c.Summary})
	}
	return renderTable([]string{"COMMAND", "DESCRIPTION"}, rows), nil
}

func (s *Shell) handleQuit(_ context.Context, _ dispatcher.Event) (any, error) {
	s.quit = true
	return "Bye.", nil
}
