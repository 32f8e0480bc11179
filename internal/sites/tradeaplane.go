package sites

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// TradeAPlane lists ads under /listing/<id> or /aircraft/<id>.
type TradeAPlane struct {
	siteBase
	maker string
}

// NewTradeAPlane returns the Trade-A-Plane strategy.
func NewTradeAPlane() *TradeAPlane {
	return &TradeAPlane{
		siteBase: siteBase{
			name:    "tradeaplane",
			baseURL: "https://www.trade-a-plane.com",
			idRe:    regexp.MustCompile(`/(?:listing|aircraft)/(\d+)`),
		},
		maker: "van's aircraft",
	}
}

// SearchURL implements Site. Trade-A-Plane filters by manufacturer, so the
// free-text term is only used when it names a different make.
func (t *TradeAPlane) SearchURL(term string, page int) string {
	return t.searchURL("/search", url.Values{
		"category_level": {"1"},
		"category":       {"aircraft"},
		"make":           {manufacturer(term, t.maker)},
		"page":           {strconv.Itoa(page)},
	})
}

// IsListingLink implements Site. Only site-relative links count.
func (t *TradeAPlane) IsListingLink(href string) bool {
	if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
		return false
	}
	_, ok := t.ListingID(href)
	return ok
}

// NextPageXPath implements Site.
func (t *TradeAPlane) NextPageXPath() string { return nextLinkXPath }
