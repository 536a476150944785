package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Year,Revenue\n2024,100", "Year,Revenue\n2024,100"},
		{"csv fence", "```csv\nYear,Revenue\n2024,100\n```", "Year,Revenue\n2024,100"},
		{"bare fence", "```\nYear,Revenue\n```", "Year,Revenue"},
		{"markdown fence", "```markdown\n# Forecast\n```", "# Forecast"},
		{"inline header", "```Year,Revenue\n2024,100```", "Year,Revenue\n2024,100"},
		{"whitespace", "  \n# Report\n  ", "# Report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestIsRefusal(t *testing.T) {
	assert.True(t, IsRefusal("I am unable to help with that."))
	assert.True(t, IsRefusal("As a large language model, I cannot..."))
	assert.False(t, IsRefusal("Revenue grew 12% year over year."))
	assert.False(t, IsRefusal("## Recommendation\nBuy.\n\n_I cannot provide personalised financial advice._"))
	assert.False(t, IsRefusal("I cannot provide "+strings.Repeat("a detailed forecast, ", 30)))
}

func TestLimitedPassesThrough(t *testing.T) {
	var calls int32
	next := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		atomic.AddInt32(&calls, 1)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return "ok:" + req.Prompt, nil
	})

	l := NewLimited(next, 0, 0, time.Second)
	for i := 0; i < 3; i++ {
		out, err := l.Generate(context.Background(), Request{Prompt: "p"})
		require.NoError(t, err)
		assert.Equal(t, "ok:p", out)
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestLimitedHonoursCancelledContext(t *testing.T) {
	next := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		t.Fatal("next must not be called")
		return "", nil
	})
	l := NewLimited(next, 0.001, 1, 0)

	// Drain the single token so the next Wait has to block.
	require.True(t, l.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Generate(ctx, Request{})
	assert.Error(t, err)
}

func TestOpenAIClientGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"` + "```csv\\nYear,Revenue\\n```" + `"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), Request{
		Model:  "gpt-4.1-mini",
		System: "You transcribe tables.",
		Prompt: "Extract the table.",
		Image:  &Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	assert.Equal(t, "```csv\nYear,Revenue\n```", out)

	assert.Equal(t, "gpt-4.1-mini", got["model"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "data:image/png;base64,"))
}

func TestOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	assert.Error(t, err)
}
