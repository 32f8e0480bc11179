package observability

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
)

// Stats counts what happened during one run. Counters are atomic so the
// fetcher-facing code can bump them without extra locking.
type Stats struct {
	// Fetch counters
	PagesFetched atomic.Int64
	PagesFailed  atomic.Int64
	BytesFetched atomic.Int64

	// Ad counters
	AdsExtracted  atomic.Int64
	AdsNew        atomic.Int64
	AdsEnriched   atomic.Int64
	EnrichFailed  atomic.Int64
	EnrichMissing atomic.Int64
	AdsDigested   atomic.Int64

	// Archive counters
	PagesSaved   atomic.Int64
	PagesSkipped atomic.Int64
	AdsArchived  atomic.Int64

	// Mail
	MailsSent atomic.Int64

	logger *slog.Logger
}

// NewStats creates a Stats instance.
func NewStats(logger *slog.Logger) *Stats {
	return &Stats{
		logger: logger.With("component", "stats"),
	}
}

// Snapshot returns all counters as a map.
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_fetched":  s.PagesFetched.Load(),
		"pages_failed":   s.PagesFailed.Load(),
		"bytes_fetched":  s.BytesFetched.Load(),
		"ads_extracted":  s.AdsExtracted.Load(),
		"ads_new":        s.AdsNew.Load(),
		"ads_enriched":   s.AdsEnriched.Load(),
		"enrich_failed":  s.EnrichFailed.Load(),
		"enrich_missing": s.EnrichMissing.Load(),
		"ads_digested":   s.AdsDigested.Load(),
		"pages_saved":    s.PagesSaved.Load(),
		"pages_skipped":  s.PagesSkipped.Load(),
		"ads_archived":   s.AdsArchived.Load(),
		"mails_sent":     s.MailsSent.Load(),
	}
}

// Log writes the non-zero counters as one structured record.
func (s *Stats) Log(msg string, attrs ...any) {
	snap := s.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if snap[k] != 0 {
			attrs = append(attrs, k, snap[k])
		}
	}
	s.logger.Info(msg, attrs...)
}

// WriteText writes counters in a "name value" listing, one per line.
func (s *Stats) WriteText(w io.Writer) error {
	snap := s.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "planewatch_%s %d\n", k, snap[k]); err != nil {
			return err
		}
	}
	return nil
}
