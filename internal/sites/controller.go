package sites

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// nextLinkXPath matches anchors styled as a pagination "next" control.
const nextLinkXPath = `//a[contains(translate(@class,'NEXT','next'),'next')]`

// Controller lists ads as /listings/aircraft/for-sale/<id>/<slug>.
type Controller struct {
	siteBase
	maker string
}

// NewController returns the Controller strategy.
func NewController() *Controller {
	return &Controller{
		siteBase: siteBase{
			name:    "controller",
			baseURL: "https://www.controller.com",
			idRe:    regexp.MustCompile(`/listings/aircraft/for-sale/(\d+)`),
		},
		maker: "Van's Aircraft",
	}
}

// SearchURL implements Site.
func (c *Controller) SearchURL(term string, page int) string {
	return c.searchURL("/listings/aircraft/for-sale/list", url.Values{
		"Manufacturer": {manufacturer(term, c.maker)},
		"page":         {strconv.Itoa(page)},
	})
}

// IsListingLink implements Site. Search and list pages share the path
// prefix and are excluded.
func (c *Controller) IsListingLink(href string) bool {
	if strings.Contains(href, "/list/") || strings.Contains(href, "/for-sale/list?") {
		return false
	}
	_, ok := c.ListingID(href)
	return ok
}

// NextPageXPath implements Site.
func (c *Controller) NextPageXPath() string { return nextLinkXPath }

// manufacturer maps the default Van's search term onto the site's own make
// name and passes anything else through.
func manufacturer(term, vans string) string {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" || strings.HasPrefix(t, "van's") || strings.HasPrefix(t, "vans") {
		return vans
	}
	return term
}
