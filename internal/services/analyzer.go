package services

import (
	"context"

	"github.com/Lllllllleong/financialstatementflow/internal/llm"
	"github.com/Lllllllleong/financialstatementflow/internal/logger"
)

// Analyzer writes a markdown investment analysis of extracted CSV data.
type Analyzer struct {
	client llm.Client
	model  string
}

func NewAnalyzer(client llm.Client, model string) *Analyzer {
	return &Analyzer{client: client, model: model}
}

// Analyze returns the model's markdown analysis of csv.
func (a *Analyzer) Analyze(ctx context.Context, csv string) (string, error) {
	text, err := generateMarkdown(ctx, a.client, StageAnalysis, llm.Request{
		Model:  a.model,
		System: AnalysisSystemPrompt,
		Prompt: AnalysisUserPrompt + csv,
	})
	if err != nil {
		return "", err
	}
	logger.WithContext(ctx).Info("Financial analysis generated.", "bytes", len(text))
	return text, nil
}

// generateMarkdown runs one text-only stage call. Only an empty answer is a
// failure: disclaimers inside a complete answer are part of the content.
func generateMarkdown(ctx context.Context, client llm.Client, stage string, req llm.Request) (string, error) {
	logCtx := logger.WithContext(ctx).With("stage", stage)

	resp, err := client.Generate(ctx, req)
	if err != nil {
		logCtx.Error("LLM call failed.", "error", err)
		return "", &StageError{Stage: stage, Err: err}
	}
	text := llm.StripFences(resp)
	if text == "" {
		logCtx.Error("LLM returned an empty response.")
		return "", &StageError{Stage: stage, Err: llm.ErrEmptyResponse}
	}
	return text, nil
}
