// Package trends derives meta-share time series and card-level trend
// classifications from decklist-level tournament records. Everything here is
// deterministic: identical input produces identical output, so the UI layer
// can cache datasets freely.
package trends

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rosematcha/ciphermaniac/internal/archetype"
)

// datasetID derives a stable snapshot id from the dataset kind, the options,
// and the ordered tournament window. Rebuilding the same window yields the
// same id, so persisted snapshots replace instead of accumulating; only
// GeneratedAt reflects the clock.
func datasetID(kind string, tournaments []TournamentRecord, opts Options) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(opts.minAppearances()))
	for _, tr := range tournaments {
		b.WriteByte(0)
		b.WriteString(tr.ID)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(b.String())).String()
}

// TournamentRecord identifies one tournament and its chronological position.
type TournamentRecord struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Date    time.Time `json:"date,omitzero"`
	Players int       `json:"players,omitempty"`
}

// DeckCard is one card entry in a decklist.
type DeckCard struct {
	Count    int    `json:"count"`
	Name     string `json:"name"`
	Set      string `json:"set,omitempty"`
	Number   string `json:"number,omitempty"`
	Category string `json:"category,omitempty"`
}

// DeckRecord is one decklist tagged with its tournament. An empty Archetype
// means the deck was never labeled; such decks still count toward the
// tournament's deck total but are excluded from archetype analysis.
type DeckRecord struct {
	TournamentID   string     `json:"tournamentId"`
	TournamentDate time.Time  `json:"tournamentDate,omitzero"`
	Archetype      string     `json:"archetype,omitempty"`
	Placement      int        `json:"placement,omitempty"`
	Cards          []DeckCard `json:"cards,omitempty"`
}

// SharePoint is one tournament's share value in a timeline.
type SharePoint struct {
	TournamentID string    `json:"tournamentId"`
	Date         time.Time `json:"date,omitzero"`
	Share        float64   `json:"share"`
}

// MetaShareSeries is one archetype's meta-share across tournaments,
// chronologically ordered.
type MetaShareSeries struct {
	Base        string       `json:"base"`
	DisplayName string       `json:"displayName"`
	Appearances int          `json:"appearances"`
	AvgShare    float64      `json:"avgShare"`
	Timeline    []SharePoint `json:"timeline"`
}

// MetaShareDataset is the archetype trend output handed to the UI.
type MetaShareDataset struct {
	ID          string             `json:"id"`
	Series      []MetaShareSeries  `json:"series"`
	Tournaments []TournamentRecord `json:"tournaments"`
	GeneratedAt time.Time          `json:"generatedAt"`
	WindowStart time.Time          `json:"windowStart,omitzero"`
	WindowEnd   time.Time          `json:"windowEnd,omitzero"`
}

// Options tunes dataset construction.
type Options struct {
	// MinAppearances excludes archetypes or cards seen in fewer distinct
	// tournaments. Zero or negative means 1 (no filtering).
	MinAppearances int

	// WindowStart and WindowEnd restrict the tournament window when set.
	WindowStart time.Time
	WindowEnd   time.Time
}

func (o Options) minAppearances() int {
	if o.MinAppearances <= 0 {
		return 1
	}
	return o.MinAppearances
}

// BuildMetaShareDataset groups decks by tournament and archetype and builds a
// chronological meta-share series per archetype.
//
// A tournament's share denominator is its full deck count, unlabeled decks
// included. An archetype's AvgShare is the mean over tournaments where it
// appeared; absent tournaments do not contribute a zero, since an archetype
// missing from an event is not the same as one tracked at 0%.
func BuildMetaShareDataset(decks []DeckRecord, tournaments []TournamentRecord, opts Options) *MetaShareDataset {
	ordered, byTournament := orderTournaments(decks, tournaments, opts)

	type seriesAcc struct {
		display  string
		timeline []SharePoint
	}
	acc := map[string]*seriesAcc{}
	var order []string

	for _, tr := range ordered {
		tDecks := byTournament[tr.ID]
		total := len(tDecks)
		if total == 0 {
			continue
		}
		counts := map[string]int{}
		displays := map[string]string{}
		for _, d := range tDecks {
			if d.Archetype == "" {
				continue
			}
			base := archetype.NormalizeBase(d.Archetype)
			counts[base]++
			if _, ok := displays[base]; !ok {
				displays[base] = displayBase(d.Archetype)
			}
		}
		bases := make([]string, 0, len(counts))
		for base := range counts {
			bases = append(bases, base)
		}
		sort.Strings(bases)
		for _, base := range bases {
			s, ok := acc[base]
			if !ok {
				s = &seriesAcc{display: displays[base]}
				acc[base] = s
				order = append(order, base)
			}
			s.timeline = append(s.timeline, SharePoint{
				TournamentID: tr.ID,
				Date:         tr.Date,
				Share:        100 * float64(counts[base]) / float64(total),
			})
		}
	}

	minApp := opts.minAppearances()
	series := make([]MetaShareSeries, 0, len(order))
	for _, base := range order {
		s := acc[base]
		if len(s.timeline) < minApp {
			continue
		}
		sum := 0.0
		for _, p := range s.timeline {
			sum += p.Share
		}
		series = append(series, MetaShareSeries{
			Base:        base,
			DisplayName: s.display,
			Appearances: len(s.timeline),
			AvgShare:    sum / float64(len(s.timeline)),
			Timeline:    s.timeline,
		})
	}

	sort.SliceStable(series, func(i, j int) bool {
		if series[i].AvgShare != series[j].AvgShare {
			return series[i].AvgShare > series[j].AvgShare
		}
		return series[i].Base < series[j].Base
	})

	return &MetaShareDataset{
		ID:          datasetID("meta-share", ordered, opts),
		Series:      series,
		Tournaments: ordered,
		GeneratedAt: time.Now().UTC(),
		WindowStart: opts.WindowStart,
		WindowEnd:   opts.WindowEnd,
	}
}

// orderTournaments merges the authoritative tournament list with records
// inferred from deck metadata, applies the window, and orders the result
// chronologically. When any tournament carrying decks has no usable date the
// whole list falls back to input order, which a stable sort preserves.
func orderTournaments(decks []DeckRecord, tournaments []TournamentRecord, opts Options) ([]TournamentRecord, map[string][]DeckRecord) {
	byTournament := map[string][]DeckRecord{}
	var deckOrder []string
	for _, d := range decks {
		if _, ok := byTournament[d.TournamentID]; !ok {
			deckOrder = append(deckOrder, d.TournamentID)
		}
		byTournament[d.TournamentID] = append(byTournament[d.TournamentID], d)
	}

	known := map[string]bool{}
	merged := make([]TournamentRecord, 0, len(tournaments))
	for _, tr := range tournaments {
		if known[tr.ID] {
			continue
		}
		known[tr.ID] = true
		merged = append(merged, tr)
	}
	// Tournaments only present in deck metadata still get a record.
	for _, id := range deckOrder {
		if known[id] {
			continue
		}
		known[id] = true
		inferred := TournamentRecord{ID: id, Name: id}
		for _, d := range byTournament[id] {
			if !d.TournamentDate.IsZero() {
				inferred.Date = d.TournamentDate
				break
			}
		}
		merged = append(merged, inferred)
	}

	kept := merged[:0]
	for _, tr := range merged {
		if len(byTournament[tr.ID]) == 0 {
			continue
		}
		if !tr.Date.IsZero() {
			if !opts.WindowStart.IsZero() && tr.Date.Before(opts.WindowStart) {
				continue
			}
			if !opts.WindowEnd.IsZero() && tr.Date.After(opts.WindowEnd) {
				continue
			}
		}
		kept = append(kept, tr)
	}

	allDated := true
	for _, tr := range kept {
		if tr.Date.IsZero() {
			allDated = false
			break
		}
	}
	if allDated {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Date.Before(kept[j].Date)
		})
	}

	return kept, byTournament
}

// displayBase collapses underscores and whitespace but keeps the original
// casing for display.
func displayBase(raw string) string {
	raw = strings.ReplaceAll(raw, "_", " ")
	return strings.Join(strings.Fields(raw), " ")
}
