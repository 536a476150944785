package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/google/uuid"
)

// DebugSink writes each extracted CSV to <dir>/<request-id>-<uuid>.csv. It is
// best-effort: write failures are logged and never reach the caller.
type DebugSink struct {
	dir string
}

// NewDebugSink returns nil when dir is empty, which disables the sink.
func NewDebugSink(dir string) *DebugSink {
	if dir == "" {
		return nil
	}
	return &DebugSink{dir: dir}
}

// Path returns a fresh artifact path for the request carried by ctx. Every
// call gets its own uuid suffix, so repeated request ids never collide.
func (s *DebugSink) Path(ctx context.Context) string {
	suffix := uuid.New().String()
	id := logger.RequestID(ctx)
	if id == "" {
		return filepath.Join(s.dir, suffix+".csv")
	}
	return filepath.Join(s.dir, filepath.Base(id)+"-"+suffix+".csv")
}

// Write stores csv for the current request. A nil sink does nothing.
func (s *DebugSink) Write(ctx context.Context, csv string) {
	if s == nil {
		return
	}
	path := s.Path(ctx)
	if err := write(s.dir, path, csv); err != nil {
		logger.WithContext(ctx).Warn("Could not write extraction debug artifact.", "path", path, "error", err)
		return
	}
	logger.WithContext(ctx).Debug("Extraction debug artifact written.", "path", path)
}

func write(dir, path, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create debug dir: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
