// Package logger provides structured logging for the application.
// It wraps log/slog with JSON formatting and supports module- and
// session-scoped child loggers. When a Better Stack token is configured,
// records are fanned out to both stdout and the Better Stack ingest API.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger instance with JSON formatting writing to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	return &Logger{Logger: slog.New(newJSONHandler(level, w))}
}

// NewWithBetterstack creates a logger that writes JSON to stdout and ships
// records to Better Stack. An empty token degrades to stdout-only logging.
func NewWithBetterstack(level, token, endpoint string) *Logger {
	stdout := newJSONHandler(level, os.Stdout)
	if token == "" {
		return &Logger{Logger: slog.New(stdout)}
	}

	option := slogbetterstack.Option{
		Token: token,
		Level: parseLevel(level),
	}
	if endpoint != "" {
		option.Endpoint = endpoint
	}
	return &Logger{Logger: slog.New(NewMultiHandler(stdout, option.NewBetterstackHandler()))}
}

func newJSONHandler(level string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
				lv := a.Value.String()
				if lv == "WARN" {
					lv = "warning"
				} else {
					lv = strings.ToLower(lv)
				}
				a.Value = slog.StringValue(lv)
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{Logger: l.With("module", module)}
}

// WithSessionID creates a new entry with session ID field
func (l *Logger) WithSessionID(sessionID string) *Logger {
	return &Logger{Logger: l.With("session_id", sessionID)}
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With("error", err)}
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Logger: l.With(key, value)}
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...)}
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

// Fatal logs the message at error level and exits the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
