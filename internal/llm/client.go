// Package llm defines the provider-neutral request/response contract used by
// every pipeline stage, plus the OpenAI provider and a rate-limiting decorator.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers with no text content.
var ErrEmptyResponse = errors.New("llm returned no text content")

// Image is an inline image part.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is a single-turn generation request.
type Request struct {
	Model  string
	System string
	Prompt string
	Image  *Image
}

// Client performs one request/response round trip against a model provider.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// StripFences removes surrounding markdown code fences (```lang ... ```)
// that models like to wrap their output in.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " ,|") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// maxRefusalLen bounds what counts as a bare refusal. Longer answers are
// real content even if they quote a refusal phrase.
const maxRefusalLen = 300

// IsRefusal reports whether the response is nothing but a model refusal: it
// opens with a known refusal phrase and is short.
func IsRefusal(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if len(lower) > maxRefusalLen {
		return false
	}
	for _, phrase := range refusalPhrases {
		if strings.HasPrefix(lower, phrase) {
			return true
		}
	}
	return false
}
