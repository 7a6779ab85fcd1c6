package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Logger writes one JSON object per line with "ts", "level" and "msg" plus the
// caller's fields. It is safe for concurrent use.
type Logger struct {
	sl *slog.Logger
}

// New returns a Logger writing to w with "ts" rendered in loc (UTC when nil).
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
			}
			return a
		},
	})
	return &Logger{sl: slog.New(h)}
}

// Nop discards everything.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{sl: l.sl.With(attrs(fields)...)}
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.sl.LogAttrs(context.Background(), slog.LevelInfo, msg, toAttrs(fields)...)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.sl.LogAttrs(context.Background(), slog.LevelWarn, msg, toAttrs(fields)...)
}

// Error logs msg at error level with err rendered under "error".
// fields is never modified.
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	as := toAttrs(fields)
	if err != nil {
		as = append(as, slog.String("error", err.Error()))
	}
	l.sl.LogAttrs(context.Background(), slog.LevelError, msg, as...)
}

func toAttrs(fields map[string]any) []slog.Attr {
	as := make([]slog.Attr, 0, len(fields)+1)
	for k, v := range fields {
		as = append(as, slog.Any(k, v))
	}
	return as
}

func attrs(fields map[string]any) []any {
	as := make([]any, 0, len(fields))
	for k, v := range fields {
		as = append(as, slog.Any(k, v))
	}
	return as
}
