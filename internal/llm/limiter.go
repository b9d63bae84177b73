package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to the wrapped extractor. Waiting counts against the
// caller's context, so a job timeout still fires while queued behind the limiter.
type Limiter struct {
	next    FieldExtractor
	limiter *rate.Limiter
}

// NewLimiter wraps next with a token bucket of rps requests per second.
// A non-positive rps returns next unchanged.
func NewLimiter(next FieldExtractor, rps float64, burst int) FieldExtractor {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limiter) ExtractFields(ctx context.Context, rawText string) (Extraction, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return Extraction{}, NewNetworkError(err)
	}
	return l.next.ExtractFields(ctx, rawText)
}
