// Package engine runs the digest pipeline: fetch target pages, extract and
// merge ads, drop the ones already seen, enrich the survivors, mail the
// digest and remember what was sent.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/digest"
	"github.com/IshaanNene/planewatch/internal/fetcher"
	"github.com/IshaanNene/planewatch/internal/mailer"
	"github.com/IshaanNene/planewatch/internal/observability"
	"github.com/IshaanNene/planewatch/internal/parser"
	"github.com/IshaanNene/planewatch/internal/sites"
	"github.com/IshaanNene/planewatch/internal/storage"
	"github.com/IshaanNene/planewatch/internal/types"
)

// Result summarizes one run.
type Result struct {
	RunID string

	// Targets is the number of target URLs; TargetsFailed of them could
	// not be fetched.
	Targets       int
	TargetsFailed int

	// Extracted counts distinct ads across all targets.
	Extracted int

	// NewIDs lists the unseen ad ids, newest first.
	NewIDs []string

	// Sent reports whether a digest went out through the mailer.
	Sent   bool
	Digest digest.Digest
}

// Runner wires the pipeline stages together for a single invocation.
type Runner struct {
	cfg      *config.Config
	fetcher  fetcher.Fetcher
	enricher *Enricher
	seen     storage.SeenStore
	mailer   mailer.Mailer
	archive  storage.Archive
	stats    *observability.Stats
	logger   *slog.Logger
}

// NewRunner creates a Runner. Page fetches through f are spaced by
// cfg.Run.PolitenessDelay. A nil archive disables archiving and a nil stats
// gets a fresh counter set.
func NewRunner(
	cfg *config.Config,
	f fetcher.Fetcher,
	seen storage.SeenStore,
	m mailer.Mailer,
	archive storage.Archive,
	stats *observability.Stats,
	logger *slog.Logger,
) *Runner {
	if stats == nil {
		stats = observability.NewStats(logger)
	}
	paced := fetcher.NewPaced(f, cfg.Run.PolitenessDelay)
	return &Runner{
		cfg:      cfg,
		fetcher:  paced,
		enricher: NewEnricher(paced, logger),
		seen:     seen,
		mailer:   m,
		archive:  archive,
		stats:    stats,
		logger:   logger.With("component", "runner"),
	}
}

// Run loads the targets file and executes the pipeline once.
//
// A missing or empty targets file returns an error wrapping
// types.ErrNoTargets before any network access. A mail failure is returned
// and leaves the seen set untouched, so the same ads are offered again on
// the next run. Failures fetching a single target or enriching a single ad
// are logged and skipped.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	targets, err := config.LoadTargets(r.cfg.Storage.TargetsFile, r.logger)
	if err != nil {
		return Result{}, err
	}
	return r.RunTargets(ctx, targets)
}

// RunTargets executes the pipeline once over targets, which must already be
// validated by config.LoadTargets.
func (r *Runner) RunTargets(ctx context.Context, targets []string) (Result, error) {
	res := Result{RunID: uuid.NewString(), Targets: len(targets)}
	logger := r.logger.With("run_id", res.RunID)
	if len(targets) == 0 {
		return res, types.ErrNoTargets
	}

	seen, err := r.seen.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load seen ids: %w", err)
	}
	logger.Info("run started", "targets", len(targets), "seen", len(seen), "seen_backend", r.seen.Name())

	pages := make([]map[string]types.Ad, 0, len(targets))
	for _, target := range targets {
		resp, err := fetcher.FetchPage(ctx, r.fetcher, target, types.TagTarget)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.TargetsFailed++
			r.stats.PagesFailed.Add(1)
			logger.Warn("target fetch failed", "url", target, "error", err)
			continue
		}
		r.stats.PagesFetched.Add(1)
		r.stats.BytesFetched.Add(int64(len(resp.Body)))

		doc, err := resp.Document()
		if err != nil {
			res.TargetsFailed++
			r.stats.PagesFailed.Add(1)
			logger.Warn("target unparsable", "error", &types.ParseError{URL: target, Err: err})
			continue
		}

		ads := targetExtractor(target, logger).ExtractDocument(doc)
		r.stats.AdsExtracted.Add(int64(len(ads)))
		logger.Debug("target parsed", "host", resp.Request.Domain(), "url", target, "ads", len(ads))
		pages = append(pages, ads)
	}

	merged := MergeAds(pages...)
	res.Extracted = len(merged)
	fresh := SortNewestFirst(FilterNew(merged, seen))
	res.NewIDs = IDs(fresh)
	r.stats.AdsNew.Add(int64(len(fresh)))

	if len(fresh) == 0 {
		logger.Info("no new listings", "extracted", len(merged))
		r.stats.Log("run finished", "run_id", res.RunID)
		return res, nil
	}

	if err := r.enrich(ctx, logger, fresh); err != nil {
		return res, err
	}

	d, err := digest.Compose(fresh, r.cfg.Run.MaxEmailItems, r.cfg.Mail.SubjectPrefix)
	if err != nil {
		return res, fmt.Errorf("compose digest: %w", err)
	}
	res.Digest = d

	if err := r.mailer.Send(ctx, d.Subject, d.Text, d.HTML); err != nil {
		if types.IsAuthError(err) {
			logger.Error("mail credentials rejected", "mode", r.mailer.Mode(), "error", err)
		}
		return res, fmt.Errorf("send digest: %w", err)
	}
	res.Sent = true
	r.stats.MailsSent.Add(1)
	r.stats.AdsDigested.Add(int64(d.Shown))
	sent := fresh[:d.Shown]

	if r.cfg.Run.DryRun {
		logger.Info("dry run, seen ids not updated", "new", len(fresh))
	} else {
		ids := UpdateAndTrim(seen, IDs(sent), r.cfg.Run.SeenCap)
		if err := r.seen.Save(ctx, ids); err != nil {
			return res, fmt.Errorf("save seen ids: %w", err)
		}
		logger.Info("seen ids updated", "count", len(ids))
	}

	if r.archive != nil && !r.cfg.Run.DryRun {
		if err := r.archive.Store(ctx, res.RunID, sent); err != nil {
			logger.Warn("archive failed", "backend", r.archive.Name(), "error", err)
		} else {
			r.stats.AdsArchived.Add(int64(len(sent)))
		}
	}

	r.stats.Log("run finished", "run_id", res.RunID)
	return res, nil
}

// enrich replaces entries of ads in place with enriched copies. Only the
// first MaxEmailItems entries are considered.
func (r *Runner) enrich(ctx context.Context, logger *slog.Logger, ads []types.Ad) error {
	limit := min(len(ads), r.cfg.Run.MaxEmailItems)
	for i := 0; i < limit; i++ {
		if !NeedsEnrichment(ads[i]) {
			continue
		}
		enriched, err := r.enricher.Enrich(ctx, ads[i])
		if errors.Is(err, types.ErrNotFound) {
			r.stats.EnrichMissing.Add(1)
			logger.Debug("ad container not on detail page", "id", ads[i].ID, "url", ads[i].URL)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.stats.EnrichFailed.Add(1)
			logger.Warn("enrichment failed, keeping listing data", "id", ads[i].ID, "error", err)
			continue
		}
		ads[i] = enriched
		r.stats.AdsEnriched.Add(1)
	}
	return nil
}

// targetExtractor picks the extractor for the site serving target. Pages
// from unknown hosts resolve links against the target itself.
func targetExtractor(target string, logger *slog.Logger) *parser.Extractor {
	if site, ok := sites.ForURL(target); ok {
		return site.Extractor(logger)
	}
	return parser.NewExtractor(target, parser.WithLogger(logger))
}

// IsInterrupted reports whether err came from a cancelled or expired run
// context.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
