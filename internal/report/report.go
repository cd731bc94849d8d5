// Package report defines the parsed tournament report model and the
// operations that merge usage statistics across variants and tournaments.
package report

import "strings"

// DistEntry is one bucket of the copy-count histogram: how many decks ran
// exactly Copies copies of a card.
type DistEntry struct {
	Copies  int     `json:"copies"`
	Players int     `json:"players"`
	Percent float64 `json:"percent"`
}

// CardUsageItem is one card's usage within one tournament or archetype report.
type CardUsageItem struct {
	Rank     int         `json:"rank,omitempty"`
	Name     string      `json:"name"`
	UID      string      `json:"uid,omitempty"`
	Set      string      `json:"set,omitempty"`
	Number   string      `json:"number,omitempty"`
	Category string      `json:"category,omitempty"`
	Found    int         `json:"found"`
	Total    int         `json:"total"`
	Pct      float64     `json:"pct"`
	Dist     []DistEntry `json:"dist,omitempty"`
}

// IdentityKey returns the key used to merge items across reports: the UID
// when the printing is known, otherwise the lowercased display name.
func (c *CardUsageItem) IdentityKey() string {
	if c.UID != "" {
		return c.UID
	}
	return strings.ToLower(c.Name)
}

// ParsedReport is the canonical in-memory shape of one tournament (or
// archetype-filtered) usage report. Items are ordered by rank; variants of
// the same logical card appear as separate items.
type ParsedReport struct {
	DeckTotal int             `json:"deckTotal"`
	Items     []CardUsageItem `json:"items"`
}

// Diagnostic records an input irregularity that was tolerated rather than
// treated as an error. Parsing and merging never fail outright; callers that
// care about data quality inspect the diagnostics instead.
type Diagnostic struct {
	Index  int    `json:"index"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// pctOf computes a usage percentage, guarding the zero-total case.
func pctOf(found, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(found) / float64(total)
}
