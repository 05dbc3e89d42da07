package llm

import (
	"context"
	"fmt"

	"github.com/eleven-am/sanpo-guide/internal/prompt"
	"golang.org/x/time/rate"
)

type Upstream interface {
	Generate(ctx context.Context, messages []prompt.Message) (string, error)
	Judge(ctx context.Context, text string) (string, error)
}

// RateLimited throttles every upstream call through one shared token
// bucket. A call whose context expires while waiting fails without reaching
// the provider.
type RateLimited struct {
	next    Upstream
	limiter *rate.Limiter
}

// WithRateLimit wraps next; a non-positive rate returns next unchanged.
func WithRateLimit(next Upstream, perSecond float64, burst int) Upstream {
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Generate(ctx context.Context, messages []prompt.Message) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Generate(ctx, messages)
}

func (r *RateLimited) Judge(ctx context.Context, text string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Judge(ctx, text)
}
