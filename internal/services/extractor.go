package services

import (
	"context"
	"errors"
	"time"

	"github.com/Lllllllleong/financialstatementflow/internal/llm"
	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/Lllllllleong/financialstatementflow/internal/render"
)

var errRefusal = errors.New("model response indicates refusal")

// Extractor transcribes the tables on a rendered page into CSV text.
type Extractor struct {
	client llm.Client
	model  string
	sink   *DebugSink
}

// NewExtractor creates the extraction stage. sink may be nil.
func NewExtractor(client llm.Client, model string, sink *DebugSink) *Extractor {
	return &Extractor{client: client, model: model, sink: sink}
}

// Extract sends the page image to the model and returns its CSV answer. The
// text is not validated as CSV.
func (e *Extractor) Extract(ctx context.Context, page *render.PageImage) (string, error) {
	logCtx := logger.WithContext(ctx).With("stage", StageExtraction)
	if page == nil || len(page.Data) == 0 {
		return "", &StageError{Stage: StageExtraction, Err: render.ErrNoPages}
	}

	start := time.Now()
	resp, err := e.client.Generate(ctx, llm.Request{
		Model:  e.model,
		System: ExtractionSystemPrompt,
		Prompt: ExtractionUserPrompt,
		Image:  &llm.Image{MIMEType: page.MIMEType, Data: page.Data},
	})
	if err != nil {
		logCtx.Error("Table extraction call failed.", "error", err)
		return "", &StageError{Stage: StageExtraction, Err: err}
	}

	csv := llm.StripFences(resp)
	if csv == "" {
		return "", &StageError{Stage: StageExtraction, Err: llm.ErrEmptyResponse}
	}
	if llm.IsRefusal(csv) {
		logCtx.Error("Model refused table extraction.", "response", csv)
		return "", &StageError{Stage: StageExtraction, Err: errRefusal}
	}

	e.sink.Write(ctx, csv)
	logCtx.Info("Table extracted.", "bytes", len(csv), "duration", time.Since(start))
	return csv, nil
}
