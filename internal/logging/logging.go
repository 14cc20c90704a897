package logging

import (
	"io"
	"log/slog"
	"os"
)

// Fields carries structured context attached to a log entry.
type Fields map[string]interface{}

// Logger is the diagnostic sink used across the pipeline. Components accept
// a Logger and must tolerate a Nop implementation.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
}

// JSONLogger writes one JSON object per line through slog's JSON handler.
type JSONLogger struct {
	sl *slog.Logger
}

// New creates a JSONLogger on stderr filtering entries below the given level.
// Unknown levels default to info.
func New(level string) *JSONLogger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter creates a JSONLogger on an arbitrary writer.
func NewWithWriter(w io.Writer, level string) *JSONLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &JSONLogger{sl: slog.New(handler)}
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

func attrs(fields Fields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func (l *JSONLogger) Debug(msg string, fields Fields) { l.sl.Debug(msg, attrs(fields)...) }
func (l *JSONLogger) Info(msg string, fields Fields)  { l.sl.Info(msg, attrs(fields)...) }
func (l *JSONLogger) Warn(msg string, fields Fields)  { l.sl.Warn(msg, attrs(fields)...) }
func (l *JSONLogger) Error(msg string, fields Fields) { l.sl.Error(msg, attrs(fields)...) }

// NopLogger discards everything. Used wherever no diagnostic sink is wired.
type NopLogger struct{}

func Nop() *NopLogger { return &NopLogger{} }

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
