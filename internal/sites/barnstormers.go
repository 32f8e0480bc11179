package sites

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Barnstormers lists ads as /classified-<id>-<slug>.html.
type Barnstormers struct{ siteBase }

// NewBarnstormers returns the Barnstormers strategy.
func NewBarnstormers() *Barnstormers {
	return &Barnstormers{siteBase{
		name:    "barnstormers",
		baseURL: "https://www.barnstormers.com",
		idRe:    regexp.MustCompile(`/classified-(\d+)-`),
	}}
}

// SearchURL implements Site. Category 1001 is the aircraft category.
func (b *Barnstormers) SearchURL(term string, page int) string {
	return b.searchURL("/classified_ads.php", url.Values{
		"cat":    {"1001"},
		"search": {term},
		"page":   {strconv.Itoa(page)},
	})
}

// IsListingLink implements Site.
func (b *Barnstormers) IsListingLink(href string) bool {
	if !strings.Contains(href, "/classified-") || !strings.HasSuffix(href, ".html") {
		return false
	}
	_, ok := b.ListingID(href)
	return ok
}

// NextPageXPath implements Site. Barnstormers result pages are walked until
// a page adds no new listing.
func (b *Barnstormers) NextPageXPath() string { return "" }
