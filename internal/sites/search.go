package sites

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/IshaanNene/planewatch/internal/fetcher"
	"github.com/IshaanNene/planewatch/internal/observability"
	"github.com/IshaanNene/planewatch/internal/parser"
	"github.com/IshaanNene/planewatch/internal/types"
)

// Searcher walks a site's paginated search results and collects listing
// URLs. Fetches go through the supplied fetcher one at a time; wrap it with
// fetcher.NewPaced for the courtesy delay.
type Searcher struct {
	fetcher  fetcher.Fetcher
	maxPages int
	stats    *observability.Stats
	logger   *slog.Logger
}

// NewSearcher creates a Searcher that stops after maxPages result pages.
func NewSearcher(f fetcher.Fetcher, maxPages int, stats *observability.Stats, logger *slog.Logger) *Searcher {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Searcher{
		fetcher:  f,
		maxPages: maxPages,
		stats:    stats,
		logger:   logger.With("component", "searcher"),
	}
}

// Search returns listing URLs for term in first-seen order. Paging stops
// when a page adds no new listing, when the site shows no next-page link,
// or on the first fetch error. Only context cancellation is returned as an
// error; other failures end the walk with what was collected so far.
func (s *Searcher) Search(ctx context.Context, site Site, term string) ([]string, error) {
	var listings []string
	seen := make(map[string]struct{})
	log := s.logger.With("site", site.Name())

	for page := 1; page <= s.maxPages; page++ {
		searchURL := site.SearchURL(term, page)
		log.Debug("searching", "page", page, "url", searchURL)

		html, err := fetcher.FetchHTML(ctx, s.fetcher, searchURL, types.TagSearch)
		if err != nil {
			if ctx.Err() != nil {
				return listings, ctx.Err()
			}
			s.stats.PagesFailed.Add(1)
			log.Warn("search page failed", "page", page, "error", err)
			break
		}
		s.stats.PagesFetched.Add(1)
		s.stats.BytesFetched.Add(int64(len(html)))

		added := 0
		for _, link := range ListingLinks(site, html) {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			listings = append(listings, link)
			added++
		}
		log.Debug("search page parsed", "page", page, "new_links", added)

		if added == 0 {
			break
		}
		if xp := site.NextPageXPath(); xp != "" && !HasNextPage(html, xp) {
			break
		}
	}

	log.Info("search complete", "listings", len(listings))
	return listings, nil
}

// ListingLinks returns the absolute listing URLs on a result page in
// document order, duplicates removed.
func ListingLinks(site Site, html string) []string {
	hrefs, err := parser.XPathValues(html, "//a[@href]", "href")
	if err != nil {
		return nil
	}

	base, _ := url.Parse(site.BaseURL())
	var out []string
	seen := make(map[string]struct{})
	for _, href := range hrefs {
		if !site.IsListingLink(href) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// HasNextPage reports whether the XPath expression matches a node on the
// page. An invalid expression or unparsable page counts as no next page.
func HasNextPage(html, xpath string) bool {
	ok, err := parser.XPathMatches(html, xpath)
	if err != nil {
		return false
	}
	return ok
}
