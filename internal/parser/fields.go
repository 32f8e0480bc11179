package parser

import (
	"regexp"
	"strings"
)

var (
	priceRe = regexp.MustCompile(`(?i)\bprice\s*:?\s*(\$?\s*\d(?:[\d,]*\d)?(?:\.\d{1,2})?)`)

	postedRe = regexp.MustCompile(`(?i)\bposted\s+((?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2},\s*\d{4})`)

	locatedRe = regexp.MustCompile(`(?i)\blocated\s+(?:in\s+)?([^\n•|]{2,80}?),?\s+united\s+states`)

	cityStateRe = regexp.MustCompile(`\b([A-Z][A-Za-z.'-]+(?: [A-Z][A-Za-z.'-]+){0,2}),\s*([A-Z]{2})\b`)

	centsRe      = regexp.MustCompile(`\.\d+$`)
	spaceRunRe   = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// NormalizeMoney returns s in canonical money form: a leading "$" and
// exactly two cents digits. Trailing separators are dropped. Empty input
// stays empty.
func NormalizeMoney(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.TrimRight(s, ".,")
	if s == "" {
		return ""
	}
	switch cents := centsRe.FindString(s); {
	case cents == "":
		s += ".00"
	case len(cents) == 2:
		s += "0"
	case len(cents) > 3:
		s = s[:len(s)-len(cents)+3]
	}
	return "$" + s
}

// NormalizeWhitespace collapses space and tab runs, trims every line and
// squeezes consecutive blank lines down to one.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// NormalizeText folds all whitespace, newlines included, into single spaces.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LargeImageURL rewrites a thumbnail image URL to its large equivalent.
// URLs without a thumbnail segment are returned unchanged.
func LargeImageURL(src string) string {
	if !strings.Contains(src, "/thumbnail/") {
		return src
	}
	src = strings.Replace(src, "/thumbnail/thumbnail_", "/large/large_", 1)
	return strings.Replace(src, "/thumbnail/", "/large/", 1)
}

// ExtractPrice finds a "Price <number>" token in text and normalizes it.
func ExtractPrice(text string) string {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return NormalizeMoney(strings.ReplaceAll(m[1], " ", ""))
}

// ExtractPosted returns the "Month Day, Year" text following "Posted".
func ExtractPosted(text string) string {
	m := postedRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return NormalizeText(m[1])
}

// ExtractLocation prefers a "located <place> United States" phrase in
// contact and falls back to a "City, ST" match in description.
func ExtractLocation(contact, description string) string {
	if m := locatedRe.FindStringSubmatch(contact); m != nil {
		if loc := strings.Trim(NormalizeText(m[1]), " ,-"); loc != "" {
			return loc
		}
	}
	if m := cityStateRe.FindStringSubmatch(description); m != nil {
		return m[1] + ", " + m[2]
	}
	return ""
}
