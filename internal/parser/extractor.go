package parser

import (
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/planewatch/internal/types"
)

// Selectors for the structured scan.
const (
	containerSelector = "div.classified_single[data-adid]"
	idAttr            = "data-adid"
	headerSelector    = "a.listing_header[href]"
	bodySelector      = ".classified_body"
	bodyFallback      = ".classified_text"
	contactSelector   = ".classified_contact"
	contactFallback   = ".contact_info"
	thumbnailSelector = `img.thumbnail, img[src*="/thumbnail/"]`
	minTitleLen       = 3
)

// Extractor parses listing pages with a structured-selector scan and falls
// back to a link scan when no structured container yields an ad.
type Extractor struct {
	base        *url.URL
	linkPattern *regexp.Regexp
	logger      *slog.Logger
}

// NewExtractor creates an Extractor resolving relative URLs against baseURL.
func NewExtractor(baseURL string, opts ...Option) *Extractor {
	e := &Extractor{
		linkPattern: DefaultLinkPattern,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if u, err := url.Parse(baseURL); err == nil && u.IsAbs() {
		e.base = u
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract implements Parser.
func (e *Extractor) Extract(html string) map[string]types.Ad {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Debug("unparsable page", "error", err)
		return make(map[string]types.Ad)
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument is Extract for an already parsed page.
func (e *Extractor) ExtractDocument(doc *goquery.Document) map[string]types.Ad {
	ads := make(map[string]types.Ad)

	doc.Find(containerSelector).Each(func(_ int, s *goquery.Selection) {
		ad, ok := e.parseContainer(s)
		if !ok {
			return
		}
		if _, dup := ads[ad.ID]; dup {
			return
		}
		ads[ad.ID] = ad
	})

	if len(ads) == 0 {
		e.scanLinks(doc, ads)
	}

	e.logger.Debug("page extracted", "count", len(ads))
	return ads
}

// ExtractOne runs the structured scan looking only for the container whose
// id attribute equals id. It reports false when no such container parses.
func (e *Extractor) ExtractOne(html, id string) (types.Ad, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.Ad{}, false
	}
	return e.ExtractOneDocument(doc, id)
}

// ExtractOneDocument is ExtractOne for an already parsed page.
func (e *Extractor) ExtractOneDocument(doc *goquery.Document, id string) (types.Ad, bool) {
	var (
		found types.Ad
		ok    bool
	)
	doc.Find(containerSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.AttrOr(idAttr, "")) != id {
			return true
		}
		found, ok = e.parseContainer(s)
		return !ok
	})
	return found, ok
}

// parseContainer builds an Ad from one classified container. Containers
// without a numeric id, a header link or a usable title are skipped.
func (e *Extractor) parseContainer(s *goquery.Selection) (types.Ad, bool) {
	id := strings.TrimSpace(s.AttrOr(idAttr, ""))
	if !isDigits(id) {
		return types.Ad{}, false
	}

	header := s.Find(headerSelector).First()
	if header.Length() == 0 {
		return types.Ad{}, false
	}
	href := strings.TrimSpace(header.AttrOr("href", ""))
	if href == "" {
		return types.Ad{}, false
	}
	title := NormalizeText(header.Text())
	if utf8.RuneCountInString(title) < minTitleLen {
		return types.Ad{}, false
	}

	description := NormalizeWhitespace(firstText(s, bodySelector, bodyFallback))
	contact := NormalizeText(firstText(s, contactSelector, contactFallback))

	return types.NewAd(id, title, resolve(e.base, href),
		types.WithPrice(ExtractPrice(description)),
		types.WithPosted(ExtractPosted(NormalizeText(s.Text()))),
		types.WithLocation(ExtractLocation(contact, description)),
		types.WithDescription(description),
		types.WithImages(e.images(s)),
	), true
}

// images collects large image URLs from thumbnails, deduplicated in
// first-seen order and capped at types.MaxImages.
func (e *Extractor) images(s *goquery.Selection) []string {
	var out []string
	seen := make(map[string]struct{})
	s.Find(thumbnailSelector).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" {
			return true
		}
		large := resolve(e.base, LargeImageURL(src))
		if _, dup := seen[large]; dup {
			return true
		}
		seen[large] = struct{}{}
		out = append(out, large)
		return len(out) < types.MaxImages
	})
	return out
}

// scanLinks is the fallback pass: every anchor whose href carries a
// classified id becomes a bare Ad with only id, title and url.
func (e *Extractor) scanLinks(doc *goquery.Document, ads map[string]types.Ad) {
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		m := e.linkPattern.FindStringSubmatch(href)
		if len(m) < 2 || !isDigits(m[1]) {
			return
		}
		id := m[1]
		if _, dup := ads[id]; dup {
			return
		}
		title := NormalizeText(a.Text())
		if utf8.RuneCountInString(title) < minTitleLen {
			return
		}
		ads[id] = types.NewAd(id, title, resolve(e.base, href))
	})
}

// firstText returns the text of the first selector that matches within s.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			return found.Text()
		}
	}
	return ""
}
