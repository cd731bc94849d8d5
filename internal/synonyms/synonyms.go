// Package synonyms resolves card printings to a canonical identity. Each
// tournament publishes a synonyms.json mapping variant UIDs to the canonical
// print chosen for the card, plus a name->canonical table for cards that only
// ever appeared as a single printing.
package synonyms

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Table is an immutable synonym lookup built from one or more synonyms.json
// payloads.
type Table struct {
	// variant UID -> canonical UID
	synonyms map[string]string
	// card name (lowercased) -> canonical UID
	canonicals map[string]string
	// canonical UID -> ordered variant list (canonical first)
	variants map[string][]string
}

type tablePayload struct {
	Synonyms   map[string]string `json:"synonyms"`
	Canonicals map[string]string `json:"canonicals"`
}

// Parse builds a Table from a raw synonyms.json payload.
func Parse(raw []byte) (*Table, error) {
	var payload tablePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms payload: %w", err)
	}
	t := newTable()
	t.add(payload)
	return t, nil
}

// Merge combines tables from several tournaments into one. On conflicting
// mappings the earliest table wins, matching the reverse-chronological order
// the tournament list is served in.
func Merge(tables ...*Table) *Table {
	out := newTable()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for variant, canonical := range t.synonyms {
			if _, ok := out.synonyms[variant]; !ok {
				out.synonyms[variant] = canonical
			}
		}
		for name, canonical := range t.canonicals {
			if _, ok := out.canonicals[name]; !ok {
				out.canonicals[name] = canonical
			}
		}
	}
	out.rebuildVariants()
	return out
}

func newTable() *Table {
	return &Table{
		synonyms:   map[string]string{},
		canonicals: map[string]string{},
		variants:   map[string][]string{},
	}
}

func (t *Table) add(payload tablePayload) {
	for variant, canonical := range payload.Synonyms {
		t.synonyms[variant] = canonical
	}
	for name, canonical := range payload.Canonicals {
		t.canonicals[strings.ToLower(name)] = canonical
	}
	t.rebuildVariants()
}

func (t *Table) rebuildVariants() {
	t.variants = map[string][]string{}
	for variant, canonical := range t.synonyms {
		t.variants[canonical] = append(t.variants[canonical], variant)
	}
	for canonical, list := range t.variants {
		sort.Strings(list)
		t.variants[canonical] = append([]string{canonical}, list...)
	}
}

// Canonical maps a UID to its canonical printing. UIDs with no synonym entry
// are their own canonical identity.
func (t *Table) Canonical(uid string) string {
	if t == nil {
		return uid
	}
	if canonical, ok := t.synonyms[uid]; ok {
		return canonical
	}
	return uid
}

// CanonicalForName returns the canonical UID for a bare card name, when the
// card has exactly one known identity.
func (t *Table) CanonicalForName(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	canonical, ok := t.canonicals[strings.ToLower(name)]
	return canonical, ok
}

// VariantsOf returns the ordered identity list for a card: the canonical UID
// first, then every known reprint. A UID with no reprints resolves to itself.
// The result feeds report.CombineVariants directly.
func (t *Table) VariantsOf(uid string) []string {
	if t == nil {
		return []string{uid}
	}
	canonical := t.Canonical(uid)
	if list, ok := t.variants[canonical]; ok {
		return list
	}
	return []string{canonical}
}

// Len returns the number of known variant mappings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.synonyms)
}
