package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/planewatch/internal/fetcher"
	"github.com/IshaanNene/planewatch/internal/types"
)

// Enricher fills the gaps in an ad by fetching the ad's own page and
// re-running the structured scan for its container.
type Enricher struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewEnricher creates an Enricher that fetches through f.
func NewEnricher(f fetcher.Fetcher, logger *slog.Logger) *Enricher {
	return &Enricher{
		fetcher: f,
		logger:  logger.With("component", "enricher"),
	}
}

// Enrich returns ad with its empty fields filled from the detail page.
// When the page has no container for ad.ID the ad comes back unchanged with
// an error wrapping types.ErrNotFound. On any error the caller keeps the
// original.
func (e *Enricher) Enrich(ctx context.Context, ad types.Ad) (types.Ad, error) {
	resp, err := fetcher.FetchPage(ctx, e.fetcher, ad.URL, types.TagDetail)
	if err != nil {
		return ad, fmt.Errorf("enrich ad %s: %w", ad.ID, err)
	}
	doc, err := resp.Document()
	if err != nil {
		return ad, &types.ParseError{URL: ad.URL, Err: err}
	}

	fresh, ok := targetExtractor(ad.URL, e.logger).ExtractOneDocument(doc, ad.ID)
	if !ok {
		return ad, fmt.Errorf("enrich ad %s: %w", ad.ID, types.ErrNotFound)
	}
	return fresh.WithFallback(ad), nil
}
