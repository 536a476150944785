package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/financialstatementflow/internal/app"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/Lllllllleong/financialstatementflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	ingestor *services.Ingestor
	once     sync.Once
	initErr  error
)

func init() {
	functions.CloudEvent("IngestStatement", ingestStatement)
}

// main is required by the Go Functions Framework.
func main() {}

func setup() (*services.Ingestor, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return a.NewIngestor(ctx)
}

// ingestStatement runs the pipeline for a PDF finalized in the ingest bucket.
func ingestStatement(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		ingestor, initErr = setup()
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var ev models.StatementIngestEvent
	if err := json.Unmarshal(e.Data(), &ev); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Returning an error marks the invocation failed so the event is redelivered.
	_, err := ingestor.Handle(ctx, ev)
	return err
}
