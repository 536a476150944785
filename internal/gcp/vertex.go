package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/financialstatementflow/internal/llm"
)

// VertexClient implements llm.Client over Vertex AI Gemini models.
type VertexClient struct {
	baseClient  *genai.Client
	temperature float32
}

// NewVertexClient creates a new client bound to a project and region.
func NewVertexClient(ctx context.Context, projectID, region string, temperature float32) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &VertexClient{
		baseClient:  baseClient,
		temperature: temperature,
	}, nil
}

// Generate configures a model handle for the request and calls it once.
func (c *VertexClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := c.baseClient.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	model.SetTemperature(c.temperature)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	parts := make([]genai.Part, 0, 2)
	if req.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data})
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
