package parser

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// XPathMatches reports whether expr selects at least one node in page.
func XPathMatches(page, expr string) (bool, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return false, fmt.Errorf("parse html: %w", err)
	}
	node, err := htmlquery.Query(doc, expr)
	if err != nil {
		return false, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return node != nil, nil
}

// XPathValues returns the non-empty values selected by expr. An empty attr
// yields each node's inner text; otherwise the named attribute.
func XPathValues(page, expr, attr string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}

	var values []string
	for _, node := range nodes {
		var val string
		if attr == "" || attr == "text" {
			val = strings.TrimSpace(htmlquery.InnerText(node))
		} else {
			val = strings.TrimSpace(htmlquery.SelectAttr(node, attr))
		}
		if val != "" {
			values = append(values, val)
		}
	}
	return values, nil
}
