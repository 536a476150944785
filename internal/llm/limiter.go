package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limited wraps a Client with a shared token bucket and a per-call timeout.
type Limited struct {
	next    Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewLimited returns next unchanged in behaviour but throttled to rps calls per
// second with the given burst. rps <= 0 disables throttling; timeout <= 0 disables the deadline.
func NewLimited(next Client, rps float64, burst int, timeout time.Duration) *Limited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

func (l *Limited) Generate(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for llm rate limiter: %w", err)
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.next.Generate(ctx, req)
}
