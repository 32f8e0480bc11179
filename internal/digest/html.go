package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/IshaanNene/planewatch/internal/types"
)

// DescriptionBudget is the preview length, in runes, of a card description.
const DescriptionBudget = 220

// cardsPerRow is the grid width of the HTML digest.
const cardsPerRow = 2

type card struct {
	Title       string
	URL         string
	Image       string
	Price       string
	Meta        string
	Chips       []string
	Description string
}

type htmlData struct {
	Subject string
	Total   int
	Rows    [][]card
	Omitted int
}

var digestTmpl = template.Must(template.New("digest").Parse(digestHTML))

// RenderHTML renders the card-grid digest as a complete HTML document.
// All listing text is escaped by html/template.
func RenderHTML(ads []types.Ad, maxItems int) (string, error) {
	maxItems = effectiveMax(maxItems)
	shown := min(len(ads), maxItems)

	data := htmlData{
		Subject: Subject("", len(ads)),
		Total:   len(ads),
		Omitted: len(ads) - shown,
	}

	var row []card
	for _, ad := range ads[:shown] {
		row = append(row, newCard(ad))
		if len(row) == cardsPerRow {
			data.Rows = append(data.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html digest: %w", err)
	}
	return buf.String(), nil
}

func newCard(ad types.Ad) card {
	c := card{
		Title:       ad.Title,
		URL:         ad.URL,
		Price:       priceOrNA(ad.Price),
		Meta:        metaLine(ad),
		Chips:       Chips(ad.Title, ad.Description),
		Description: Truncate(strings.Join(strings.Fields(ad.Description), " "), DescriptionBudget),
	}
	if len(ad.Images) > 0 {
		c.Image = ad.Images[0]
	}
	return c
}

// metaLine joins location and posted date with a middle dot.
func metaLine(ad types.Ad) string {
	var parts []string
	if ad.Location != "" {
		parts = append(parts, ad.Location)
	}
	if ad.Posted != "" {
		parts = append(parts, "Posted "+ad.Posted)
	}
	return strings.Join(parts, " · ")
}

const digestHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background:#f1f5f9;font-family:-apple-system,'Segoe UI',Helvetica,Arial,sans-serif;color:#0f172a;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#f1f5f9;">
<tr><td align="center" style="padding:24px 12px;">
<table role="presentation" width="640" cellpadding="0" cellspacing="0" style="max-width:640px;width:100%;">
<tr><td colspan="2" style="padding:0 8px 16px 8px;">
<h1 style="margin:0;font-size:22px;">New listings: {{.Total}}</h1>
</td></tr>
{{- range .Rows}}
<tr>
{{- range .}}
<td width="50%" valign="top" style="padding:8px;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#ffffff;border:1px solid #e2e8f0;border-radius:10px;">
<tr><td>
{{- if .Image}}
<img src="{{.Image}}" alt="{{.Title}}" width="300" style="display:block;width:100%;height:auto;border-radius:10px 10px 0 0;">
{{- else}}
<div style="height:160px;background:#e2e8f0;border-radius:10px 10px 0 0;text-align:center;line-height:160px;color:#94a3b8;font-size:13px;">No photo</div>
{{- end}}
</td></tr>
<tr><td style="padding:12px;">
<div style="font-size:18px;font-weight:700;color:#0369a1;">{{.Price}}</div>
<div style="font-size:15px;font-weight:600;margin-top:4px;">{{.Title}}</div>
{{- if .Meta}}
<div style="font-size:12px;color:#64748b;margin-top:4px;">{{.Meta}}</div>
{{- end}}
{{- if .Chips}}
<div style="margin-top:8px;">
{{- range .Chips}}<span style="display:inline-block;background:#e0f2fe;color:#075985;font-size:11px;padding:2px 8px;border-radius:9999px;margin:0 4px 4px 0;">{{.}}</span>{{end}}
</div>
{{- end}}
{{- if .Description}}
<p style="font-size:13px;line-height:1.4;color:#334155;margin:8px 0 0 0;">{{.Description}}</p>
{{- end}}
<a href="{{.URL}}" style="display:inline-block;margin-top:12px;background:#0369a1;color:#ffffff;text-decoration:none;font-size:13px;padding:8px 14px;border-radius:6px;">View listing</a>
</td></tr>
</table>
</td>
{{- end}}
{{- if eq (len .) 1}}
<td width="50%"></td>
{{- end}}
</tr>
{{- end}}
{{- if .Omitted}}
<tr><td colspan="2" style="padding:16px 8px;font-size:13px;color:#64748b;">…and {{.Omitted}} more not shown.</td></tr>
{{- end}}
</table>
</td></tr>
</table>
</body>
</html>
`
