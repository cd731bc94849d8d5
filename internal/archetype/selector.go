// Package archetype attributes a card's usage within one event to the single
// archetype most associated with it. The UI shows exactly one archetype label
// per event row, so the selection has to be deterministic.
package archetype

import "strings"

// Candidate is one archetype's usage of the target card within one event.
type Candidate struct {
	Base  string  `json:"base"`
	Pct   float64 `json:"pct"`
	Found int     `json:"found"`
	Total int     `json:"total"`
}

// DefaultMinTotal is the smallest archetype sample considered statistically
// meaningful. Callers lower it (typically to 1) for cards whose overall usage
// is high but spread thinly across many archetypes.
const DefaultMinTotal = 3

// Options tunes the selection.
type Options struct {
	// MinTotal excludes candidates whose archetype sample is smaller than
	// this. Zero or negative means DefaultMinTotal.
	MinTotal int
}

// Pick chooses the archetype to display for a card in one event.
//
// Candidates below the sample threshold are excluded first. When a top-8 hint
// list is given, candidates whose base name made the top cut are preferred;
// within the surviving group the winner is the candidate with the highest
// found count, ties broken by higher total, then alphabetically by base name.
// Returns nil when no candidate survives filtering.
func Pick(candidates []Candidate, top8Hint []string, opts Options) *Candidate {
	minTotal := opts.MinTotal
	if minTotal <= 0 {
		minTotal = DefaultMinTotal
	}

	hinted := make(map[string]bool, len(top8Hint))
	for _, base := range top8Hint {
		hinted[normalizeBase(base)] = true
	}

	var best *Candidate
	var bestHinted bool
	for i := range candidates {
		c := &candidates[i]
		if c.Total < minTotal {
			continue
		}
		isHinted := hinted[normalizeBase(c.Base)]
		switch {
		case best == nil:
			best, bestHinted = c, isHinted
		case isHinted != bestHinted:
			// A top-8 archetype always beats one that missed the cut.
			if isHinted {
				best, bestHinted = c, true
			}
		case beats(c, best):
			best = c
		}
	}

	if best == nil {
		return nil
	}
	picked := *best
	return &picked
}

// beats applies the tie-break chain: found desc, total desc, base asc.
func beats(a, b *Candidate) bool {
	if a.Found != b.Found {
		return a.Found > b.Found
	}
	if a.Total != b.Total {
		return a.Total > b.Total
	}
	return normalizeBase(a.Base) < normalizeBase(b.Base)
}

// normalizeBase folds archetype names the way report filenames do: underscores
// become spaces, runs of whitespace collapse, comparison is case-insensitive.
func normalizeBase(base string) string {
	base = strings.ReplaceAll(base, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(base), " "))
}

// NormalizeBase exposes archetype-name folding for callers that group deck
// records by archetype.
func NormalizeBase(base string) string {
	return normalizeBase(base)
}
