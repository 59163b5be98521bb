package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/OCAP2/annotator/internal/app"
	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/dispatcher"
	"github.com/OCAP2/annotator/internal/export"
	"github.com/OCAP2/annotator/internal/influx"
	"github.com/OCAP2/annotator/internal/logging"
	intOtel "github.com/OCAP2/annotator/internal/otel"
	"github.com/OCAP2/annotator/internal/playback"
	"github.com/OCAP2/annotator/internal/prompt"
	"github.com/OCAP2/annotator/internal/session"
	"github.com/OCAP2/annotator/internal/video"
)

var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	ProgramName string = "annotator"
)

var (
	LogFilePath string
	LogFile     *os.File

	SlogManager *logging.SlogManager

	// Logger is the slog logger used by the shell and playback.
	Logger *slog.Logger

	// ZLogger is the zerolog logger used by storage, Influx and the dispatcher.
	ZLogger zerolog.Logger

	OTelProvider *intOtel.Provider

	SessionContext *session.Context = session.NewContext()

	SessionStartTime time.Time = time.Now()
)

// setupLogging loads the config and opens the session log file. Failures
// fall back to console logging.
func setupLogging() {
	var err error

	// Console-only logging until the log file exists
	SlogManager = logging.NewSlogManager()
	SlogManager.Context = SessionContext.LogAttrs
	SlogManager.Setup(nil, "warn", nil)
	Logger = SlogManager.Logger()

	configDir := config.Dir()
	if err = config.Load(configDir); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			Logger.Warn("No config file found, using defaults", "dir", configDir, "file", config.FileName)
		} else {
			Logger.Warn("Failed to load config, using defaults!", "error", err)
		}
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	LogFilePath = logging.LogFilePath(logsDir, ProgramName, SessionStartTime)
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var otelWriter io.Writer
		if LogFile != nil {
			otelWriter = LogFile
		}
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			Version:      CurrentVersion,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    otelWriter,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		}
	}

	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		gelfWriter, err := logging.NewGELFWriter(graylogCfg.Address)
		if err != nil {
			Logger.Error("Failed to set up Graylog output", "error", err)
		} else {
			SlogManager.GELF = gelfWriter
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	var fileWriter io.Writer
	if LogFile != nil {
		fileWriter = LogFile
	}
	level := config.GetString("logLevel")
	SlogManager.Setup(fileWriter, level, otelLogProvider)
	Logger = SlogManager.Logger()
	ZLogger = logging.NewZerolog(fileWriter, os.Stderr, level, SessionContext.LogAttrs)

	Logger.Info("Starting up...", "version", CurrentVersion, "buildDate", BuildDate, "log", LogFilePath)
	if OTelProvider != nil {
		Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
	}
}

func flush(ctx context.Context) error {
	if OTelProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return OTelProvider.Flush(ctx)
}

func run(ctx context.Context) error {
	backend, err := createStorageBackend(config.GetStorageConfig())
	if err != nil {
		Logger.Error("Failed to create storage backend, sessions will not be saved", "error", err)
		backend = nil
	} else if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		_ = backend.Close()
		backend = nil
	}
	if backend != nil {
		defer backend.Close()
	}

	influxManager := influx.NewManager(ZLogger, config.GetInfluxConfig())
	defer influxManager.Close()

	videoCfg := config.GetVideoConfig()
	decoder := video.NewFFmpeg(videoCfg.FFmpegPath, videoCfg.FFprobePath)
	decoder.FallbackFPS = videoCfg.DefaultFPS

	player := playback.New(
		playback.DecoderOpener(decoder),
		playback.PNGDisplay{Path: videoCfg.PreviewPath},
		Logger.With("component", "playback"),
	)
	defer player.Close()

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(ZLogger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	exportCfg := config.GetExportConfig()
	lines := prompt.NewLinePrompter(os.Stdin, os.Stdout)

	shell, err := app.New(app.Dependencies{
		Player:     player,
		Dispatcher: eventDispatcher,
		Backend:    backend,
		Session:    SessionContext,
		Export: export.Options{
			SheetName:    exportCfg.SheetName,
			CompressJSON: exportCfg.CompressJSON,
			Influx:       influxManager,
		},
		ExportDir:   exportCfg.OutputDir,
		FrameColumn: exportCfg.FrameColumn,
		Input:       lines,
		Prompter:    lines,
		Out:         os.Stdout,
		Logger:      Logger.With("component", "shell"),
		Flush:       flush,
	})
	if err != nil {
		return err
	}

	Logger.Info("Preview frames are written to file", "path", videoCfg.PreviewPath)
	return shell.Run(ctx)
}

func shutdown() {
	if OTelProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx)
	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		Logger.Error("Annotator stopped with error", "error", err)
		shutdown()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	Logger.Info("Annotator stopped")
	shutdown()
}
