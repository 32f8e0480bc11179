package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/IshaanNene/planewatch/internal/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"no targets", fmt.Errorf("targets.txt: %w", types.ErrNoTargets), exitNoTargets},
		{"interrupted", interrupted(context.Canceled), exitFailure},
		{"mail failure", &types.MailError{Transport: "smtp", Err: types.ErrAuthRejected}, exitFailure},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// --- Run Command Tests ---

func TestRunChecksTargetsBeforeConnecting(t *testing.T) {
	dir := t.TempDir()
	targets := filepath.Join(dir, "targets.txt")
	if err := os.WriteFile(targets, []byte("# nothing yet\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A browser fetcher and an unreachable archive would both fail loudly
	// if they were built before the targets check.
	cfgPath := filepath.Join(dir, "planewatch.yaml")
	yaml := fmt.Sprintf(`fetcher:
  type: browser
mail:
  mode: stdout
storage:
  targets_file: %s
  seen_file: %s
archive:
  type: mongodb
  mongo_uri: mongodb://127.0.0.1:1
logging:
  level: error
`, targets, filepath.Join(dir, "seen_ids.json"))
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	prev := cfgFile
	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = prev })

	cmd := runCmd()
	cmd.SetContext(context.Background())
	err := runDigest(cmd, nil)
	if !errors.Is(err, types.ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if exitCode(err) != exitNoTargets {
		t.Errorf("expected exit code %d, got %d", exitNoTargets, exitCode(err))
	}
}
