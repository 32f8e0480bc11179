package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/IshaanNene/planewatch/internal/types"
)

// LoadTargets reads the target-URL list from path. Blank lines and lines
// starting with '#' are ignored. Lines that are not absolute http(s) URLs
// are logged and skipped. A missing file or one with no usable URL yields
// types.ErrNoTargets.
func LoadTargets(path string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", types.ErrNoTargets, path)
		}
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := ValidateURL(line); err != nil {
			logger.Warn("skipping target", "file", path, "line", lineNo, "error", err)
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s has no URLs", types.ErrNoTargets, path)
	}
	return targets, nil
}
