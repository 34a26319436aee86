// Package logging provides structured logging with slog for ultrafocus.
//
// Features:
//   - JSON and text output formats
//   - Log levels (debug, info, warn, error)
//   - Per-component and per-session child loggers
//   - Size-based log rotation with gzip compression
//   - Crash reports for panics on the hook thread
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

// Level represents a logging level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the output format for logs.
type Format int

const (
	// FormatText outputs human-readable text logs.
	FormatText Format = iota
	// FormatJSON outputs JSON-structured logs.
	FormatJSON
)

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", s)
	}
}

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level

	// Format is the output format (text or JSON).
	Format Format

	// Output is "stdout", "stderr", "file" or "both" (stderr and file).
	Output string

	// FilePath is the log file used when Output includes a file.
	FilePath string

	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize int64

	// MaxBackups is the number of rotated files kept.
	MaxBackups int

	// Compress gzips rotated files.
	Compress bool

	// AddSource adds source file and line to log entries.
	AddSource bool

	// Component is attached to every record as the "component" attribute.
	Component string
}

// DefaultConfig returns a default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     "stderr",
		FilePath:   DefaultLogPath(),
		MaxSize:    10,
		MaxBackups: 3,
		Compress:   true,
		Component:  "ultrafocus",
	}
}

// DefaultLogPath returns the log file under the XDG state directory
// (%LOCALAPPDATA% on Windows).
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "ultrafocus", "ultrafocus.log")
}

// Logger wraps slog.Logger with the writers it owns.
type Logger struct {
	*slog.Logger
	config  *Config
	rotator *FileRotator
	mu      sync.Mutex
}

var (
	defaultLogger *Logger
	loggerOnce    sync.Once
)

// Default returns the default global logger.
func Default() *Logger {
	loggerOnce.Do(func() {
		if defaultLogger != nil {
			return
		}
		l, err := New(DefaultConfig())
		if err != nil {
			l = &Logger{Logger: slog.Default(), config: DefaultConfig()}
		}
		defaultLogger = l
	})
	return defaultLogger
}

// SetDefault installs l as the package default and as slog's default, so
// components that call slog.Default() log through it.
func SetDefault(l *Logger) {
	loggerOnce.Do(func() {})
	defaultLogger = l
	slog.SetDefault(l.Logger)
}

// New creates a new Logger with the given configuration.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Logger{config: cfg}
	w, err := l.writer()
	if err != nil {
		return nil, fmt.Errorf("setup writers: %w", err)
	}

	l.Logger = slog.New(newHandler(w, cfg))
	return l, nil
}

// NewWithWriter creates a Logger that writes to w regardless of
// cfg.Output. Used by tests and by the GUI status pane.
func NewWithWriter(w io.Writer, cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Logger{
		Logger: slog.New(newHandler(w, cfg)),
		config: cfg,
	}
}

func newHandler(w io.Writer, cfg *Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	if cfg.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("component", cfg.Component),
		})
	}
	return handler
}

func (l *Logger) writer() (io.Writer, error) {
	switch strings.ToLower(l.config.Output) {
	case "stdout":
		return os.Stdout, nil
	case "file", "both":
		rotator, err := NewFileRotator(l.config)
		if err != nil {
			return nil, err
		}
		l.rotator = rotator
		if strings.EqualFold(l.config.Output, "both") {
			return io.MultiWriter(os.Stderr, rotator), nil
		}
		return rotator, nil
	default:
		return os.Stderr, nil
	}
}

// WithComponent returns a child logger with a different component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(slog.String("component", name)),
		config:  l.config,
		rotator: l.rotator,
	}
}

// WithSession returns a child logger tagged with a focus session id.
func (l *Logger) WithSession(id string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(slog.String("session_id", id)),
		config:  l.config,
		rotator: l.rotator,
	}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Sync flushes the log file, if any.
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotator != nil {
		return l.rotator.Sync()
	}
	return nil
}

// ParseLevel parses a string into a log level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// LevelString returns the string representation of a log level.
func LevelString(level Level) string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}
