package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// secretKeys are attribute keys whose values never reach the output.
var secretKeys = map[string]struct{}{
	"access":        {},
	"refresh":       {},
	"access_token":  {},
	"refresh_token": {},
	"authorization": {},
	"password":      {},
}

const redacted = "[REDACTED]"

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewTextLogger builds a SlogLogger writing slog text records to w with
// token and password attributes redacted.
func NewTextLogger(w io.Writer, level slog.Level) *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(w, handlerOptions(level))))
}

// NewJSONLogger is NewTextLogger with JSON records.
func NewJSONLogger(w io.Writer, level slog.Level) *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewJSONHandler(w, handlerOptions(level))))
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{Level: level, ReplaceAttr: redactSecrets}
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok && a.Value.String() != "" {
		return slog.String(a.Key, redacted)
	}
	return a
}

// Nop returns a logger that discards everything.
func Nop() *SlogLogger {
	return NewTextLogger(io.Discard, slog.LevelError+1)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
