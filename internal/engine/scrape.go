package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/IshaanNene/planewatch/internal/fetcher"
	"github.com/IshaanNene/planewatch/internal/observability"
	"github.com/IshaanNene/planewatch/internal/sites"
	"github.com/IshaanNene/planewatch/internal/storage"
	"github.com/IshaanNene/planewatch/internal/types"
)

// SiteSummary is the per-site outcome of a raw-page scrape.
type SiteSummary struct {
	Site    string
	Found   int
	Saved   int
	Skipped int
	Errors  int
}

// Scraper searches a site and stores each listing's raw HTML.
type Scraper struct {
	fetcher  fetcher.Fetcher
	searcher *sites.Searcher
	pages    *storage.PageArchive
	stats    *observability.Stats
	logger   *slog.Logger
}

// NewScraper creates a Scraper that reads at most maxPages result pages
// per site. Search pages and listing pages share one paced fetcher so the
// courtesy delay applies across both.
func NewScraper(f fetcher.Fetcher, pages *storage.PageArchive, delay time.Duration, maxPages int, stats *observability.Stats, logger *slog.Logger) *Scraper {
	if stats == nil {
		stats = observability.NewStats(logger)
	}
	paced := fetcher.NewPaced(f, delay)
	return &Scraper{
		fetcher:  paced,
		searcher: sites.NewSearcher(paced, maxPages, stats, logger),
		pages:    pages,
		stats:    stats,
		logger:   logger.With("component", "scraper"),
	}
}

// ScrapeSite searches site for term and saves every listing page not yet
// stored today. Listing fetch failures are counted and skipped; only a
// cancelled context aborts the walk.
func (s *Scraper) ScrapeSite(ctx context.Context, site sites.Site, term string) (SiteSummary, error) {
	sum := SiteSummary{Site: site.Name()}
	log := s.logger.With("site", site.Name())

	links, err := s.searcher.Search(ctx, site, term)
	sum.Found = len(links)
	if err != nil {
		return sum, err
	}

	for _, link := range links {
		id := sites.StableID(site, link)
		if s.pages.Exists(site.Name(), id) {
			sum.Skipped++
			s.stats.PagesSkipped.Add(1)
			continue
		}

		html, err := fetcher.FetchHTML(ctx, s.fetcher, link, types.TagDetail)
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Errors++
			s.stats.PagesFailed.Add(1)
			log.Warn("listing fetch failed", "url", link, "error", err)
			continue
		}
		s.stats.PagesFetched.Add(1)
		s.stats.BytesFetched.Add(int64(len(html)))

		if _, err := s.pages.Save(site.Name(), id, html); err != nil {
			sum.Errors++
			log.Warn("listing save failed", "url", link, "error", err)
			continue
		}
		sum.Saved++
		s.stats.PagesSaved.Add(1)
	}

	log.Info("site scraped", "found", sum.Found, "saved", sum.Saved, "skipped", sum.Skipped, "errors", sum.Errors)
	return sum, nil
}
