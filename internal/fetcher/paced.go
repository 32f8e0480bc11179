package fetcher

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/IshaanNene/planewatch/internal/types"
)

// PacedFetcher spaces successive fetches at least delay apart. The first
// fetch is not delayed.
type PacedFetcher struct {
	Fetcher
	limiter *rate.Limiter
}

// NewPaced wraps f with a fixed courtesy delay. A non-positive delay
// disables pacing.
func NewPaced(f Fetcher, delay time.Duration) *PacedFetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &PacedFetcher{
		Fetcher: f,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch waits for the courtesy delay and then delegates.
func (p *PacedFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}
	return p.Fetcher.Fetch(ctx, req)
}
