package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Constants for log levels that match slog.Level values.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Type aliases for commonly used slog types.
type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is the application identifier added to all log entries
	AppName string

	// Output specifies where logs are written ("stdout", "stderr", "discard" or a file path)
	Output string `env:"OUTPUT" envDefault:"stderr"`

	// Level sets the minimum log level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" envDefault:"info"`

	// Filter specifies package-level logging overrides ("pkg:level,pkg:level")
	Filter string `env:"FILTER" envDefault:""`

	// JSON enables JSON-formatted output instead of human-readable console output
	JSON bool `env:"JSON" envDefault:"false"`

	// OutputHandle overrides Output when set. Used by tests.
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group      = slog.Group
	GroupValue = slog.GroupValue

	level   = new(slog.LevelVar)
	root    = NewNopLogger()
	logFile *os.File
	rootMu  sync.RWMutex
)

// Configure sets up global logging configuration for the application.
// Loggers obtained before the call keep writing to the previous destination.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	cfg.AppName = appName

	if err := configure(cfg); err != nil {
		panic(err)
	}

	GetLogger("infra.logging").With(Group("config",
		"appName", appName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	)).DebugContext(ctx, "logging configured")
}

func configure(cfg LoggerConfig) error {
	output, file, err := openOutput(cfg)
	if err != nil {
		return err
	}

	level.Set(ParseLevel(cfg.Level, LevelInfo))
	slog.SetLogLoggerLevel(level.Level())

	logger := NewNopLogger()

	if output != io.Discard {
		logger = slog.New(NewContextHandler(newHandler(cfg, output)))

		if cfg.AppName != "" {
			logger = logger.With("app", cfg.AppName)
		}
	}

	rootMu.Lock()
	defer rootMu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
	}

	root, logFile = logger, file

	return nil
}

func openOutput(cfg LoggerConfig) (io.Writer, *os.File, error) {
	if cfg.OutputHandle != nil {
		return cfg.OutputHandle, nil, nil
	}

	switch cfg.Output {
	case "", "discard":
		return io.Discard, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}

	file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return file, file, nil
}

func newHandler(cfg LoggerConfig, output io.Writer) slog.Handler {
	if cfg.JSON {
		//nolint:exhaustruct
		return slog.NewJSONHandler(output, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	}

	//nolint:exhaustruct
	return &ConsoleHandler{
		Output:    output,
		Level:     level,
		PkgLevels: parsePkgLevels(cfg.Filter),
	}
}

// SetLevel changes the minimum level of every configured logger.
func SetLevel(l Level) {
	level.Set(l)
}

// GetLogger returns a logger tagged with name using the global configuration.
// The name identifies the source module and drives the package level filter.
func GetLogger(name string) Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()

	return root.With(LoggerNameKey, name)
}

// GetLogLogger creates a standard library *log.Logger that writes through logger.
// http.Server takes one for its ErrorLog.
func GetLogLogger(logger Logger, lvl Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), lvl)
}

// NewNopLogger creates a logger that discards all output.
func NewNopLogger() Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func parsePkgLevels(filter string) map[string]slog.Level {
	levels := make(map[string]slog.Level)

	for _, pkgLevel := range strings.Split(filter, ",") {
		pkg, lvl, ok := strings.Cut(pkgLevel, ":")
		if !ok {
			continue
		}

		levels[strings.TrimSpace(pkg)] = ParseLevel(lvl, LevelDebug)
	}

	return levels
}

// ParseLevel maps "debug", "info", "warn" and "error" to their levels.
// Anything else yields fallback.
func ParseLevel(s string, fallback Level) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return fallback
	}
}
