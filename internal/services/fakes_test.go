package services

import (
	"context"
	"errors"
	"sync"

	"github.com/Lllllllleong/financialstatementflow/internal/llm"
	"github.com/Lllllllleong/financialstatementflow/internal/render"
)

// fakeLLM answers by system prompt and records every request.
type fakeLLM struct {
	mu       sync.Mutex
	requests []llm.Request
	answers  map[string]string
	errs     map[string]error
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{
		answers: map[string]string{
			ExtractionSystemPrompt: "```csv\nYear,Revenue\n2024,100\n```",
			AnalysisSystemPrompt:   "## Analysis\nRevenue is growing. Recommendation: buy.",
			ModelingSystemPrompt:   "| Year | Revenue |\n|---|---|\n| 2025 | 110 |",
		},
		errs: map[string]error{},
	}
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := f.errs[req.System]; err != nil {
		return "", err
	}
	return f.answers[req.System], nil
}

func (f *fakeLLM) calls(system string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.System == system {
			n++
		}
	}
	return n
}

func (f *fakeLLM) last(system string) llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].System == system {
			return f.requests[i]
		}
	}
	return llm.Request{}
}

type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) RenderFirstPage(context.Context, []byte) (*render.PageImage, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &render.PageImage{Index: 0, Width: 10, Height: 10, MIMEType: "image/png", Data: []byte("png")}, nil
}

var errBoom = errors.New("boom")
