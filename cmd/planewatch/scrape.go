package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/engine"
	"github.com/IshaanNene/planewatch/internal/fetcher"
	"github.com/IshaanNene/planewatch/internal/observability"
	"github.com/IshaanNene/planewatch/internal/sites"
	"github.com/IshaanNene/planewatch/internal/storage"
)

var (
	scrapeSites     []string
	scrapeTerm      string
	scrapeMaxPages  int
	scrapeDir       string
	scrapeShowStats bool
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Search classifieds sites and archive raw listing pages",
		Long: `Run the search term against each site, walk the result pages and save
every listing page as <pages_dir>/<site>/<YYYY-MM-DD>/<id>.html.

Pages already saved today are skipped. A failing site is reported and the
next one is scraped.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}

	cmd.Flags().StringSliceVarP(&scrapeSites, "site", "s", nil, "sites to scrape (default: all)")
	cmd.Flags().StringVar(&scrapeTerm, "term", "", "search term (overrides run.search_term)")
	cmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "result pages per site (overrides run.max_search_pages)")
	cmd.Flags().StringVarP(&scrapeDir, "output", "o", "", "archive directory (overrides storage.pages_dir)")
	cmd.Flags().BoolVar(&scrapeShowStats, "stats", false, "print run counters to stderr when done")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(cfg *config.Config) {
		if scrapeTerm != "" {
			cfg.Run.SearchTerm = scrapeTerm
		}
		if scrapeMaxPages > 0 {
			cfg.Run.MaxSearchPages = scrapeMaxPages
		}
		if scrapeDir != "" {
			cfg.Storage.PagesDir = scrapeDir
		}
	})
	if err != nil {
		return err
	}

	targets := sites.All()
	if len(scrapeSites) > 0 {
		targets = targets[:0:0]
		for _, name := range scrapeSites {
			s, err := sites.Lookup(name)
			if err != nil {
				return err
			}
			targets = append(targets, s)
		}
	}

	logger := setupLogger(cfg)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	stats := observability.NewStats(logger)
	pages := storage.NewPageArchive(cfg.Storage.PagesDir, logger)
	scraper := engine.NewScraper(f, pages, cfg.Run.PolitenessDelay, cfg.Run.MaxSearchPages, stats, logger)

	start := time.Now()
	fmt.Fprintf(out, "Starting scrape at %s\n", start.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Search term: %s\n", cfg.Run.SearchTerm)

	for _, site := range targets {
		sum, err := scraper.ScrapeSite(ctx, site, cfg.Run.SearchTerm)
		fmt.Fprintf(out, "\n%s summary:\n", site.Name())
		fmt.Fprintf(out, "  Listings found: %d\n", sum.Found)
		fmt.Fprintf(out, "  Saved:          %d\n", sum.Saved)
		fmt.Fprintf(out, "  Skipped:        %d (already saved today)\n", sum.Skipped)
		fmt.Fprintf(out, "  Errors:         %d\n", sum.Errors)
		if err != nil {
			return interrupted(err)
		}
	}

	fmt.Fprintf(out, "\nScrape completed in %s\n", time.Since(start).Round(time.Millisecond))
	if scrapeShowStats {
		_ = stats.WriteText(os.Stderr)
	}
	return nil
}
