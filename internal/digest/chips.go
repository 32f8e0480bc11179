package digest

import "strings"

// MaxChips caps the chips shown on one card.
const MaxChips = 6

type chipRule struct {
	label    string
	keywords []string
}

// chipTable is checked in order; the first MaxChips labels that match win.
var chipTable = []chipRule{
	{"Autopilot", []string{"autopilot", "auto pilot", "a/p"}},
	{"Glass Panel", []string{"glass panel", "dynon", "skyview", "g3x", "efis", "grand rapids"}},
	{"IFR", []string{"ifr"}},
	{"ADS-B", []string{"ads-b", "adsb"}},
	{"Constant Speed Prop", []string{"constant speed", "c/s prop", "cs prop"}},
	{"Fixed Pitch Prop", []string{"fixed pitch", "fixed-pitch", "fp prop"}},
	{"Tailwheel", []string{"tailwheel", "tail wheel", "taildragger", "tail dragger"}},
	{"Tricycle Gear", []string{"tricycle", "nosewheel", "nose wheel"}},
	{"Lycoming", []string{"lycoming"}},
	{"Superior", []string{"superior"}},
	{"Hangared", []string{"hangared", "hangar kept"}},
	{"Low Time", []string{"low time", "low-time"}},
}

// Chips returns the descriptive tags found in title and description,
// matched case-insensitively, in table order, at most MaxChips.
func Chips(title, description string) []string {
	haystack := strings.ToLower(title + " " + description)

	var chips []string
	for _, rule := range chipTable {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				chips = append(chips, rule.label)
				break
			}
		}
		if len(chips) == MaxChips {
			break
		}
	}
	return chips
}
