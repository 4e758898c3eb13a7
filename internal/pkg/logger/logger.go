package logger

import (
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
)

// LevelQuiet is above every level the application logs at.
const LevelQuiet = slog.Level(12)

// SlogLogger implements ports.Logger on top of log/slog with a tint handler.
type SlogLogger struct {
	log *slog.Logger
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level slog.Level, color bool) *SlogLogger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !color,
	})
	return &SlogLogger{log: slog.New(handler)}
}

// NewNop returns a logger that drops everything.
func NewNop() *SlogLogger {
	return New(io.Discard, LevelQuiet, false)
}

// ParseLevel resolves the effective level from a named or numeric
// verbosity, a -v count and the quiet switch. Quiet wins.
func ParseLevel(verbosity string, count int, quiet bool) slog.Level {
	if quiet {
		return LevelQuiet
	}
	switch strings.ToLower(strings.TrimSpace(verbosity)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "":
	default:
		if n, err := strconv.Atoi(verbosity); err == nil {
			count = n
		}
	}
	switch {
	case count >= 2:
		return slog.LevelDebug
	case count == 1:
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, attrs(fields)...)
}

func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, attrs(fields)...)
}

func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, attrs(fields)...)
}

func (l *SlogLogger) Error(msg string, err error, fields map[string]interface{}) {
	args := attrs(fields)
	if err != nil {
		args = append(args, tint.Err(err))
	}
	l.log.Error(msg, args...)
}

func attrs(fields map[string]interface{}) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}
