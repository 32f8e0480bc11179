package engine

import (
	"sort"
	"strings"

	"github.com/IshaanNene/planewatch/internal/types"
)

// MergeAds combines per-page extraction results into one map keyed by ad
// id. When the same id appears on more than one page the later page wins.
// The merged ads share no image storage with the input pages.
func MergeAds(pages ...map[string]types.Ad) map[string]types.Ad {
	size := 0
	for _, p := range pages {
		size += len(p)
	}
	merged := make(map[string]types.Ad, size)
	for _, p := range pages {
		for id, ad := range p {
			merged[id] = ad.Clone()
		}
	}
	return merged
}

// FilterNew returns the ads whose id is not in seen. The result is in
// ascending id order so callers always see the same sequence for the same
// input; use SortNewestFirst for digest order.
func FilterNew(ads map[string]types.Ad, seen []string) []types.Ad {
	known := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		known[id] = struct{}{}
	}
	out := make([]types.Ad, 0, len(ads))
	for id, ad := range ads {
		if _, ok := known[id]; ok {
			continue
		}
		out = append(out, ad)
	}
	sort.SliceStable(out, func(i, j int) bool { return compareIDs(out[i].ID, out[j].ID) < 0 })
	return out
}

// SortNewestFirst returns a copy of ads ordered by numeric id, descending.
// Ads with equal ids keep their relative order.
func SortNewestFirst(ads []types.Ad) []types.Ad {
	out := make([]types.Ad, len(ads))
	copy(out, ads)
	sort.SliceStable(out, func(i, j int) bool { return compareIDs(out[i].ID, out[j].ID) > 0 })
	return out
}

// UpdateAndTrim unions seen with sent, orders the result by numeric id
// descending and keeps the first limit entries. limit <= 0 keeps all.
func UpdateAndTrim(seen, sent []string, limit int) []string {
	set := make(map[string]struct{}, len(seen)+len(sent))
	ids := make([]string, 0, len(seen)+len(sent))
	for _, list := range [][]string{seen, sent} {
		for _, id := range list {
			if id == "" {
				continue
			}
			if _, dup := set[id]; dup {
				continue
			}
			set[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return compareIDs(ids[i], ids[j]) > 0 })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// NeedsEnrichment reports whether a detail fetch could add anything: any
// of price, description or images is still missing.
func NeedsEnrichment(ad types.Ad) bool {
	return !ad.HasDetails()
}

// IDs returns the ids of ads in order.
func IDs(ads []types.Ad) []string {
	out := make([]string, len(ads))
	for i, ad := range ads {
		out[i] = ad.ID
	}
	return out
}

// compareIDs compares two digit strings by numeric value without parsing
// them, so ids longer than an int64 still order correctly.
func compareIDs(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
