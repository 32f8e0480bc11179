// Package sites holds the per-marketplace strategies and the paginated
// search loop that walks their result pages.
package sites

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/IshaanNene/planewatch/internal/parser"
	"github.com/IshaanNene/planewatch/internal/types"
)

// Site is the capability set of one classifieds marketplace.
type Site interface {
	// Name is the short, filesystem-safe site name.
	Name() string

	// BaseURL is the absolute site root used to resolve relative links.
	BaseURL() string

	// SearchURL returns the result page URL for term and a 1-based page.
	SearchURL(term string, page int) string

	// ListingID returns the digit id carried by a listing URL.
	ListingID(rawURL string) (string, bool)

	// IsListingLink reports whether href points at a single listing.
	IsListingLink(href string) bool

	// NextPageXPath selects the "next page" link on a result page.
	// Empty means the site exposes none and paging stops on no new links.
	NextPageXPath() string

	// Extractor returns an ad extractor bound to this site.
	Extractor(logger *slog.Logger) *parser.Extractor
}

var (
	registry = map[string]Site{}
	order    []string
)

func init() {
	register(NewBarnstormers())
	register(NewTradeAPlane())
	register(NewController())
}

func register(s Site) {
	if _, dup := registry[s.Name()]; dup {
		panic("sites: duplicate registration of " + s.Name())
	}
	registry[s.Name()] = s
	order = append(order, s.Name())
}

// Lookup returns the site registered under name.
func Lookup(name string) (Site, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", types.ErrUnknownSite, name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// ForURL returns the site whose host serves rawURL.
func ForURL(rawURL string) (Site, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, name := range order {
		s := registry[name]
		b, err := url.Parse(s.BaseURL())
		if err != nil {
			continue
		}
		if host == strings.TrimPrefix(strings.ToLower(b.Hostname()), "www.") {
			return s, true
		}
	}
	return nil, false
}

// All returns every registered site in registration order.
func All() []Site {
	out := make([]Site, 0, len(order))
	for _, name := range order {
		out = append(out, registry[name])
	}
	return out
}

// Names returns the registered site names sorted alphabetically.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StableID returns "<site>_<digits>" for URLs carrying a listing id and
// "<site>_<first 16 hex chars of sha256(url)>" otherwise. The result is the
// same across processes for the same input.
func StableID(s Site, rawURL string) string {
	if id, ok := s.ListingID(rawURL); ok {
		return s.Name() + "_" + id
	}
	sum := sha256.Sum256([]byte(rawURL))
	return s.Name() + "_" + hex.EncodeToString(sum[:])[:16]
}

// siteBase carries what every site shares: a name, a root URL and the
// pattern that pulls the id out of a listing URL.
type siteBase struct {
	name    string
	baseURL string
	idRe    *regexp.Regexp
}

func (b siteBase) Name() string    { return b.name }
func (b siteBase) BaseURL() string { return b.baseURL }

func (b siteBase) ListingID(rawURL string) (string, bool) {
	m := b.idRe.FindStringSubmatch(rawURL)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

func (b siteBase) Extractor(logger *slog.Logger) *parser.Extractor {
	return parser.NewExtractor(b.baseURL,
		parser.WithLinkPattern(b.idRe),
		parser.WithLogger(logger),
	)
}

func (b siteBase) searchURL(path string, params url.Values) string {
	return b.baseURL + path + "?" + params.Encode()
}
