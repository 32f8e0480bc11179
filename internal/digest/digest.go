// Package digest renders new ads into the plain-text and HTML bodies of the
// notification email.
package digest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/IshaanNene/planewatch/internal/types"
)

// DefaultMaxItems caps the number of ads rendered in one digest.
const DefaultMaxItems = 50

// DefaultSubjectPrefix starts every digest subject.
const DefaultSubjectPrefix = "Aircraft classifieds"

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Digest is a composed notification ready to hand to a mailer.
type Digest struct {
	Subject string
	Text    string
	HTML    string

	// Total is the number of new ads; Shown of them are rendered.
	Total int
	Shown int
}

// Omitted returns how many ads did not fit under the item cap.
func (d Digest) Omitted() int { return d.Total - d.Shown }

// Compose renders ads (already sorted) into a Digest. maxItems <= 0 means
// DefaultMaxItems; an empty prefix means DefaultSubjectPrefix.
func Compose(ads []types.Ad, maxItems int, subjectPrefix string) (Digest, error) {
	maxItems = effectiveMax(maxItems)
	html, err := RenderHTML(ads, maxItems)
	if err != nil {
		return Digest{}, err
	}
	return Digest{
		Subject: Subject(subjectPrefix, len(ads)),
		Text:    RenderText(ads, maxItems),
		HTML:    html,
		Total:   len(ads),
		Shown:   min(len(ads), maxItems),
	}, nil
}

// Subject returns e.g. "Aircraft classifieds: 3 new listings".
func Subject(prefix string, n int) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	noun := "listings"
	if n == 1 {
		noun = "listing"
	}
	return fmt.Sprintf("%s: %d new %s", prefix, n, noun)
}

// Truncate shortens s to at most max runes. Longer text keeps its first
// max-1 runes, loses trailing whitespace and gains an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	head := strings.TrimRightFunc(string(runes[:max-1]), unicode.IsSpace)
	return head + Ellipsis
}

func effectiveMax(maxItems int) int {
	if maxItems <= 0 {
		return DefaultMaxItems
	}
	return maxItems
}

func priceOrNA(price string) string {
	if price == "" {
		return "Price N/A"
	}
	return price
}
