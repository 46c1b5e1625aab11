// Package logging provides the leveled structured logger used across the app.
package logging

import (
	"log/slog"
	"os"
)

// Level controls the minimum severity that gets emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Field is a single structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// WithField builds a structured field.
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger wraps slog with the level and field conventions the app uses.
type Logger struct {
	sl *slog.Logger
}

// New creates a logger writing text lines to stderr at the given level.
func New(level Level) *Logger {
	var sl slog.Level
	switch level {
	case LevelDebug:
		sl = slog.LevelDebug
	case LevelWarn:
		sl = slog.LevelWarn
	case LevelError:
		sl = slog.LevelError
	default:
		sl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: sl})
	return &Logger{sl: slog.New(handler)}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.sl.Debug(msg, attrs(fields)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.sl.Info(msg, attrs(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.sl.Warn(msg, attrs(fields)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.sl.Error(msg, attrs(fields)...)
}
