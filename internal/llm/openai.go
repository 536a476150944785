package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI chat-completions provider.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // optional, for compatible gateways
	Temperature float32
}

// OpenAIClient implements Client over the chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	temperature float32
}

// NewOpenAIClient creates a client for the given API key.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NewOpenAIClient: api key cannot be empty")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends the system prompt, the user prompt and an optional image as one chat turn.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Image != nil {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(req.Image),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		}
	} else {
		user.Content = req.Prompt
	}
	messages = append(messages, user)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func dataURL(img *Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
