package report

import (
	"fmt"
	"sort"
	"strings"
)

// CombineVariants merges the usage of one logical card across its known
// printings. variantIDs is the ordered identity list from the synonym table,
// canonical printing first; entries may be full UIDs or bare card names.
//
// Found counts are summed across matching variants. Total is NOT summed: it
// is the size of the deck field, which every variant shares, so the first
// non-zero value wins. A later variant reporting a different non-zero total
// indicates inconsistent upstream data and produces a diagnostic while the
// first-seen value is kept. The combined pct is always recomputed from the
// merged found/total, never copied from a single variant.
//
// Returns nil when no variant is present in items, which is distinct from a
// card with zero usage.
func CombineVariants(items []CardUsageItem, variantIDs []string) (*CardUsageItem, []Diagnostic) {
	if len(variantIDs) == 0 {
		return nil, nil
	}

	var combined *CardUsageItem
	var diags []Diagnostic
	dist := map[int]int{}

	for _, id := range variantIDs {
		for i := range items {
			item := &items[i]
			if !matchesVariant(item, id) {
				continue
			}
			if combined == nil {
				c := *item
				c.Dist = nil
				c.Rank = 0
				combined = &c
			} else {
				combined.Found += item.Found
				if item.Total != 0 {
					if combined.Total == 0 {
						combined.Total = item.Total
					} else if item.Total != combined.Total {
						diags = append(diags, Diagnostic{
							Index: i,
							Field: "total",
							Reason: fmt.Sprintf("variant %q reports total=%d, keeping first-seen total=%d",
								id, item.Total, combined.Total),
						})
					}
				}
			}
			for _, d := range item.Dist {
				dist[d.Copies] += d.Players
			}
		}
	}

	if combined == nil {
		return nil, diags
	}

	combined.Pct = pctOf(combined.Found, combined.Total)
	combined.Dist = buildDist(dist, combined.Found)
	return combined, diags
}

// matchesVariant reports whether an item is the printing (or bare-name card)
// a variant identity refers to.
func matchesVariant(item *CardUsageItem, id string) bool {
	if item.UID != "" && item.UID == id {
		return true
	}
	if !strings.Contains(id, UIDSeparator) {
		return item.UID == "" && strings.EqualFold(item.Name, id)
	}
	// Items parsed from older reports may carry set/number without a uid.
	if item.UID == "" && item.Set != "" && item.Number != "" {
		return BuildUID(item.Name, item.Set, item.Number) == id
	}
	return false
}

// buildDist turns a copies->players accumulator into an ordered histogram
// with percentages recomputed against the merged found count.
func buildDist(acc map[int]int, found int) []DistEntry {
	if len(acc) == 0 {
		return nil
	}
	entries := make([]DistEntry, 0, len(acc))
	for copies, players := range acc {
		e := DistEntry{Copies: copies, Players: players}
		if found > 0 {
			e.Percent = 100 * float64(players) / float64(found)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Copies < entries[j].Copies
	})
	return entries
}
