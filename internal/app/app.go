// Package app is the interactive shell that ties playback, annotation,
// export and session storage together. Every command runs through the
// dispatcher; a failed command is reported and logged and the shell keeps
// reading.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/OCAP2/annotator/internal/annotation"
	"github.com/OCAP2/annotator/internal/dispatcher"
	"github.com/OCAP2/annotator/internal/export"
	"github.com/OCAP2/annotator/internal/playback"
	"github.com/OCAP2/annotator/internal/prompt"
	"github.com/OCAP2/annotator/internal/session"
	"github.com/OCAP2/annotator/internal/storage"
	"github.com/OCAP2/annotator/internal/util"
)

var (
	// ErrNoSchema is returned by commands that need a configured schema.
	ErrNoSchema = errors.New("annotation schema not configured")

	// ErrNoBackend is returned by save and restore without session storage.
	ErrNoBackend = errors.New("session storage not configured")

	// ErrUsage is returned when a command gets the wrong arguments.
	ErrUsage = errors.New("usage")
)

// LineReader supplies command lines; false means end of input.
type LineReader interface {
	ReadLine() (string, bool)
}

// Dependencies holds everything the shell calls into.
type Dependencies struct {
	Player     *playback.Controller
	Dispatcher *dispatcher.Dispatcher
	Backend    storage.Backend
	Session    *session.Context

	Export      export.Options
	ExportDir   string
	FrameColumn string

	Input    LineReader
	Prompter prompt.Prompter
	Out      io.Writer
	Logger   *slog.Logger

	// Flush is called after saves and exports, typically to push OTel logs.
	Flush func(context.Context) error
	Now   func() time.Time
}

// Shell owns the annotation store of the current session.
type Shell struct {
	deps  Dependencies
	store *annotation.Store
	quit  bool
}

// New creates a shell and registers its commands on the dispatcher.
func New(deps Dependencies) (*Shell, error) {
	if deps.Player == nil {
		return nil, errors.New("app: playback controller is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("app: dispatcher is required")
	}
	if deps.Input == nil || deps.Prompter == nil {
		return nil, errors.New("app: input and prompter are required")
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.FrameColumn == "" {
		deps.FrameColumn = export.DefaultFrameColumn
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Shell{deps: deps}
	s.RegisterHandlers(deps.Dispatcher)
	return s, nil
}

// Store returns the current annotation store, nil before a schema is
// configured.
func (s *Shell) Store() *annotation.Store {
	return s.store
}

// Run reads and executes commands until quit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.deps.Logger.Info("Shell started", "commands", len(s.deps.Dispatcher.Commands()))
	fmt.Fprintln(s.deps.Out, `Frame annotator. Type "help" for commands.`)

	for !s.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.deps.Out, "> ")
		line, ok := s.deps.Input.ReadLine()
		if !ok {
			fmt.Fprintln(s.deps.Out)
			break
		}
		_ = s.Execute(ctx, line)
	}

	s.deps.Logger.Info("Shell stopped")
	return nil
}

// Execute runs one command line. The error is returned after it has been
// shown to the user and logged.
func (s *Shell) Execute(ctx context.Context, line string) error {
	args := util.SplitArgs(strings.TrimSpace(line))
	if len(args) == 0 {
		return nil
	}

	result, err := s.deps.Dispatcher.Dispatch(ctx, dispatcher.Event{
		Command: strings.ToLower(args[0]),
		Args:    args[1:],
	})
	if err != nil {
		s.report(args[0], err)
		return err
	}

	if msg, ok := result.(string); ok && msg != "" {
		fmt.Fprintln(s.deps.Out, msg)
	}
	return nil
}

func (s *Shell) report(command string, err error) {
	title := "Error"
	if errors.Is(err, ErrNoSchema) || errors.Is(err, playback.ErrNoVideo) {
		title = "Warning"
		s.deps.Logger.Warn("Command refused", "command", command, "error", err)
	} else {
		s.deps.Logger.Error("Command failed", "command", command, "error", err)
	}
	s.deps.Prompter.Error(title, err.Error())
}

func (s *Shell) flush(ctx context.Context) {
	if s.deps.Flush == nil {
		return
	}
	if err := s.deps.Flush(ctx); err != nil {
		s.deps.Logger.Warn("Failed to flush telemetry", "error", err)
	}
}
