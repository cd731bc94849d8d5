package report

import (
	"sort"
	"strings"
)

// Aggregate merges reports covering disjoint deck pools (several tournaments,
// or archetype slices of different events) into one combined report.
//
// Unlike CombineVariants, total IS summed here: each input report counts a
// separate population of decks. DeckTotal is summed the same way, items merge
// by identity key, copy-count histograms merge by copies, and pct is
// recomputed from the summed counts.
//
// A single-report input is returned as-is, preserving pointer identity for
// callers that cache parsed reports. Nil or malformed entries contribute
// nothing; aggregation never fails because one tournament file is absent.
func Aggregate(reports []*ParsedReport) *ParsedReport {
	switch len(reports) {
	case 0:
		return &ParsedReport{Items: []CardUsageItem{}}
	case 1:
		if reports[0] != nil {
			return reports[0]
		}
		return &ParsedReport{Items: []CardUsageItem{}}
	}

	out := &ParsedReport{}
	merged := map[string]*CardUsageItem{}
	dists := map[string]map[int]int{}
	var order []string

	for _, r := range reports {
		if r == nil {
			continue
		}
		out.DeckTotal += r.DeckTotal
		for i := range r.Items {
			item := &r.Items[i]
			key := item.IdentityKey()
			m, ok := merged[key]
			if !ok {
				c := *item
				c.Dist = nil
				c.Rank = 0
				merged[key] = &c
				dists[key] = map[int]int{}
				order = append(order, key)
				m = merged[key]
			} else {
				m.Found += item.Found
				m.Total += item.Total
			}
			for _, d := range item.Dist {
				dists[key][d.Copies] += d.Players
			}
		}
	}

	out.Items = make([]CardUsageItem, 0, len(order))
	for _, key := range order {
		m := merged[key]
		m.Pct = pctOf(m.Found, m.Total)
		m.Dist = buildDist(dists[key], m.Found)
		out.Items = append(out.Items, *m)
	}

	// Rank by usage, the same ordering the upstream report generator uses.
	sort.SliceStable(out.Items, func(i, j int) bool {
		if out.Items[i].Found != out.Items[j].Found {
			return out.Items[i].Found > out.Items[j].Found
		}
		return strings.ToLower(out.Items[i].Name) < strings.ToLower(out.Items[j].Name)
	})
	for i := range out.Items {
		out.Items[i].Rank = i + 1
	}

	return out
}
