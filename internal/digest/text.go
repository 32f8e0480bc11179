package digest

import (
	"fmt"
	"strings"

	"github.com/IshaanNene/planewatch/internal/types"
)

// RenderText renders the plain-text digest: a count header, then a bullet
// and URL line per ad up to maxItems, then a note for anything left out.
func RenderText(ads []types.Ad, maxItems int) string {
	maxItems = effectiveMax(maxItems)

	var b strings.Builder
	fmt.Fprintf(&b, "New listings: %d\n\n", len(ads))

	shown := min(len(ads), maxItems)
	for _, ad := range ads[:shown] {
		fmt.Fprintf(&b, "- %s — %s\n", ad.Title, priceOrNA(ad.Price))
		fmt.Fprintf(&b, "  %s\n", ad.URL)
	}

	if rest := len(ads) - shown; rest > 0 {
		fmt.Fprintf(&b, "\n%sand %d more not shown.\n", Ellipsis, rest)
	}
	return b.String()
}
