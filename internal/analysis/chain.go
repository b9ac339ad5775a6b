package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/attempt"
)

var ErrNoProviders = errors.New("no analysis providers configured")

// Chain tries providers in priority order and returns the first usable reply.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	return &Chain{providers: providers, timeout: timeout}
}

func (c *Chain) Providers() []Provider {
	return c.providers
}

func (c *Chain) Analyze(ctx context.Context, summary string) (Analysis, error) {
	if len(c.providers) == 0 {
		return Analysis{}, ErrNoProviders
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(summary)
	out, records, err := attempt.Run(ctx, c.providers, Provider.Name, attempt.Policy{},
		func(ctx context.Context, p Provider) (Analysis, error) {
			text, err := p.Complete(ctx, prompt)
			if err != nil {
				if ctx.Err() != nil {
					return Analysis{}, attempt.Abort(err)
				}
				return Analysis{}, err
			}
			return ParseResponse(text)
		})
	for _, r := range records {
		slog.Debug("analysis provider failed", "provider", r.Candidate, "elapsed", r.Elapsed, "error", r.Err)
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze session: %w", err)
	}
	return out, nil
}

// AnalyzeOrFallback never fails: any provider error yields Fallback.
func AnalyzeOrFallback(ctx context.Context, a Analyzer, summary string) (Analysis, bool) {
	if a == nil {
		return Fallback, false
	}
	out, err := a.Analyze(ctx, summary)
	if err != nil {
		slog.Warn("analysis unavailable, using fallback metadata", "error", err)
		return Fallback, false
	}
	return out, true
}
