// Package logger is the structured logging layer of qconv: a small Logger
// interface over log/slog, a colored handler for terminals and context
// plumbing for the CLI and the API server.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the common interface for logging in qconv.
// It wraps slog.Logger to allow for dependency injection and testing.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// SlogLogger is a Logger implementation that wraps slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// Format selects the record encoding of Open.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatText   Format = "text"
)

// Options configures Open. A nil Writer means stderr.
type Options struct {
	Format  Format
	Level   slog.Level
	Writer  io.Writer
	Source  bool
	NoColor bool
}

// New creates a new Logger with the given handler.
func New(handler slog.Handler) Logger {
	return &SlogLogger{
		logger: slog.New(handler),
	}
}

// Open builds a Logger from opts.
func Open(opts Options) (Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{AddSource: opts.Source, Level: opts.Level}
	switch Format(strings.ToLower(string(opts.Format))) {
	case FormatPretty, "":
		return New(NewPrettyHandler(w, &PrettyOptions{HandlerOptions: *ho, NoColor: opts.NoColor})), nil
	case FormatJSON:
		return New(slog.NewJSONHandler(w, ho)), nil
	case FormatText:
		return New(slog.NewTextHandler(w, ho)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (expected pretty, json or text)", opts.Format)
	}
}

// Default creates a Logger with default text handler writing to stderr.
func Default() Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Discard creates a Logger that drops every record.
func Discard() Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))
}

// FromSlog wraps an existing slog.Logger. A nil logger yields Discard.
func FromSlog(l *slog.Logger) Logger {
	if l == nil {
		return Discard()
	}
	return &SlogLogger{logger: l}
}

// ToSlog returns the slog.Logger behind l, for APIs that take one directly.
// Loggers of other implementations map to a discarding logger.
func ToSlog(l Logger) *slog.Logger {
	if sl, ok := l.(*SlogLogger); ok {
		return sl.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// FromContext retrieves a Logger from the context.
// If no logger is found, returns a default logger.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return logger
	}
	return Default()
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

type loggerKey struct{}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{logger: l.logger.WithGroup(name)}
}

// ParseLevel converts a level name to slog.Level. Besides debug, info,
// warn/warning and error it accepts slog's offset form such as "debug-2".
func ParseLevel(level string) (slog.Level, error) {
	s := strings.ToLower(strings.TrimSpace(level))
	switch s {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		s = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}
