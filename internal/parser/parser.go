// Package parser turns classified listing pages into types.Ad records.
package parser

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/IshaanNene/planewatch/internal/types"
)

// Parser extracts ads from a listing or detail page.
type Parser interface {
	// Extract returns every ad found on the page keyed by id.
	// It never fails: unparsable input yields an empty map.
	Extract(html string) map[string]types.Ad

	// ExtractOne returns the ad whose container id equals id, if present.
	ExtractOne(html, id string) (types.Ad, bool)
}

// DefaultLinkPattern matches Barnstormers-style classified links.
var DefaultLinkPattern = regexp.MustCompile(`/classified-(\d+)-`)

// Option configures an Extractor.
type Option func(*Extractor)

// WithLinkPattern sets the pattern used by the fallback link scan. The first
// capture group must be the digit id.
func WithLinkPattern(re *regexp.Regexp) Option {
	return func(e *Extractor) {
		if re != nil {
			e.linkPattern = re
		}
	}
}

// WithLogger sets the extractor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger.With("component", "extractor")
		}
	}
}

// resolve returns ref as an absolute URL against base. Unparsable references
// are returned as-is.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() || base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
