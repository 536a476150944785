package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/financialstatementflow/internal/llm"
	"github.com/Lllllllleong/financialstatementflow/internal/logger"
)

// Modeller builds a 5-year forecast shaped like the example template.
type Modeller struct {
	client   llm.Client
	model    string
	template string
}

// NewModeller creates the modeling stage. An empty template falls back to
// DefaultExampleModel.
func NewModeller(client llm.Client, model, template string) *Modeller {
	if template == "" {
		template = DefaultExampleModel
	}
	return &Modeller{client: client, model: model, template: template}
}

// Template returns the example model the stage prompts with.
func (m *Modeller) Template() string {
	return m.template
}

// BuildModel returns the markdown forecast for csv.
func (m *Modeller) BuildModel(ctx context.Context, csv string) (string, error) {
	text, err := generateMarkdown(ctx, m.client, StageModeling, llm.Request{
		Model:  m.model,
		System: ModelingSystemPrompt,
		Prompt: fmt.Sprintf(ModelingUserPrompt, m.template, csv),
	})
	if err != nil {
		return "", err
	}
	logger.WithContext(ctx).Info("Financial model generated.", "bytes", len(text))
	return text, nil
}
