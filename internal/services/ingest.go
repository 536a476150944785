package services

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
)

// ObjectReader downloads a whole object from a bucket.
type ObjectReader interface {
	Read(ctx context.Context, bucket, name string) ([]byte, error)
}

// WorkflowStarter starts a downstream workflow execution.
type WorkflowStarter interface {
	Trigger(ctx context.Context, payload any) (string, error)
}

// Runner runs the statement pipeline.
type Runner interface {
	Run(ctx context.Context, in Input) (*Result, error)
}

// Ingestor runs the pipeline for statements uploaded to a bucket.
type Ingestor struct {
	reader   ObjectReader
	pipeline Runner
	workflow WorkflowStarter
	bucket   string
	opts     Options
}

// IngestConfig configures an Ingestor. Bucket restricts events to one bucket
// when set; Workflow is optional.
type IngestConfig struct {
	Reader   ObjectReader
	Pipeline Runner
	Workflow WorkflowStarter
	Bucket   string
	Options  Options
}

func NewIngestor(cfg IngestConfig) *Ingestor {
	return &Ingestor{
		reader:   cfg.Reader,
		pipeline: cfg.Pipeline,
		workflow: cfg.Workflow,
		bucket:   cfg.Bucket,
		opts:     cfg.Options,
	}
}

// IsPDF reports whether name has a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Handle processes one object-finalized event. Objects that are not PDFs, or
// that live in another bucket, are skipped and return a nil result.
func (i *Ingestor) Handle(ctx context.Context, ev models.StatementIngestEvent) (*Result, error) {
	filename := path.Base(ev.Name)
	ctx = logger.WithFilename(ctx, filename)
	logCtx := logger.WithContext(ctx).With("bucket", ev.Bucket, "object", ev.Name)

	if i.bucket != "" && ev.Bucket != i.bucket {
		logCtx.Info("Skipping object from unwatched bucket.")
		return nil, nil
	}
	if !IsPDF(ev.Name) {
		logCtx.Info("Skipping non-PDF object.")
		return nil, nil
	}

	pdf, err := i.reader.Read(ctx, ev.Bucket, ev.Name)
	if err != nil {
		logCtx.Error("Failed to download statement.", "error", err)
		return nil, fmt.Errorf("failed to download statement: %w", err)
	}

	res, err := i.pipeline.Run(ctx, Input{Filename: filename, PDF: pdf, Options: i.opts})
	if err != nil {
		return nil, fmt.Errorf("pipeline failed for gs://%s/%s: %w", ev.Bucket, ev.Name, err)
	}
	if res.PersistErr != nil {
		// The event is retried; a run without a stored record is useless downstream.
		return res, fmt.Errorf("failed to persist gs://%s/%s: %w", ev.Bucket, ev.Name, res.PersistErr)
	}

	if i.workflow != nil {
		execName, err := i.workflow.Trigger(ctx, models.WorkflowHandoff{
			RecordID:     res.RecordID,
			StoredFileID: res.FileID,
			SourceBucket: ev.Bucket,
			SourceObject: ev.Name,
		})
		if err != nil {
			logCtx.Error("Failed to trigger workflow.", "recordId", res.RecordID, "error", err)
			return res, err
		}
		logCtx.Info("Workflow execution started.", "executionName", execName, "recordId", res.RecordID)
	}

	logCtx.Info("Statement ingested.", "recordId", res.RecordID, "fileId", res.FileID)
	return res, nil
}
