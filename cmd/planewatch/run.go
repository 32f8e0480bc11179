package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/engine"
	"github.com/IshaanNene/planewatch/internal/fetcher"
	"github.com/IshaanNene/planewatch/internal/mailer"
	"github.com/IshaanNene/planewatch/internal/observability"
	"github.com/IshaanNene/planewatch/internal/storage"
)

var (
	runDryRun    bool
	runTargets   string
	runMaxItems  int
	runShowStats bool
)

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch target pages and mail a digest of new listings",
		Long: `Fetch every URL in the targets file, extract ads, drop the ones already
reported, enrich the rest from their own pages and mail the digest.

The seen-id store is only updated after the digest was sent. With --dry-run
the digest is printed to stdout and the store is left alone.`,
		Args: cobra.NoArgs,
		RunE: runDigest,
	}

	cmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the digest instead of mailing it; do not update seen ids")
	cmd.Flags().StringVarP(&runTargets, "targets", "t", "", "targets file (overrides storage.targets_file)")
	cmd.Flags().IntVar(&runMaxItems, "max-items", 0, "maximum ads per digest (overrides run.max_email_items)")
	cmd.Flags().BoolVar(&runShowStats, "stats", false, "print run counters to stderr when done")

	return cmd
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(applyRunFlags)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	ctx := cmd.Context()

	// Nothing below may touch the network or launch a browser before the
	// targets file is known to be usable.
	targets, err := config.LoadTargets(cfg.Storage.TargetsFile, logger)
	if err != nil {
		return err
	}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	seen, err := storage.NewSeenStore(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create seen store: %w", err)
	}
	defer seen.Close()

	m, err := mailer.New(&cfg.Mail, cmd.OutOrStdout(), logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}

	archive, err := storage.NewArchive(&cfg.Archive, logger)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer archive.Close()

	stats := observability.NewStats(logger)
	runner := engine.NewRunner(cfg, f, seen, m, archive, stats, logger)

	res, err := runner.RunTargets(ctx, targets)
	if runShowStats {
		_ = stats.WriteText(os.Stderr)
	}
	if err != nil {
		return interrupted(err)
	}

	if !res.Sent {
		logger.Info("nothing to send", "targets", res.Targets, "extracted", res.Extracted)
		return nil
	}
	logger.Info("digest delivered",
		"mode", m.Mode(),
		"new", res.Digest.Total,
		"shown", res.Digest.Shown,
		"failed_targets", res.TargetsFailed,
	)
	return nil
}

// applyRunFlags copies the run flags onto cfg.
func applyRunFlags(cfg *config.Config) {
	if runDryRun {
		cfg.Run.DryRun = true
		cfg.Mail.Mode = string(mailer.ModeStdout)
	}
	if runTargets != "" {
		cfg.Storage.TargetsFile = runTargets
	}
	if runMaxItems > 0 {
		cfg.Run.MaxEmailItems = runMaxItems
	}
}
