// Package logger configures the process-wide slog logger and derives
// request-scoped loggers from context values.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	FilenameKey  ContextKey = "filename"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Init installs the default slog logger writing to stdout.
func Init(cfg Config) {
	slog.SetDefault(New(cfg, os.Stdout))
}

// New builds a logger without touching the process default.
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithRequestID stores the request id for later log lines.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithFilename stores the uploaded filename for later log lines.
func WithFilename(ctx context.Context, filename string) context.Context {
	return context.WithValue(ctx, FilenameKey, filename)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithContext returns the default logger annotated with the context values.
func WithContext(ctx context.Context) *slog.Logger {
	l := slog.Default()

	if requestID := RequestID(ctx); requestID != "" {
		l = l.With("requestId", requestID)
	}
	if filename, ok := ctx.Value(FilenameKey).(string); ok && filename != "" {
		l = l.With("filename", filename)
	}

	return l
}
