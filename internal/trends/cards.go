package trends

import (
	"sort"
	"time"

	"github.com/rosematcha/ciphermaniac/internal/report"
)

// CanonicalResolver maps a printing UID to the canonical identity shared by
// all reprints of the card. A nil resolver treats every printing as its own
// card. *synonyms.Table satisfies this.
type CanonicalResolver interface {
	Canonical(uid string) string
}

// CardTrendEntry is one card's early-window versus late-window comparison.
type CardTrendEntry struct {
	Name        string  `json:"name"`
	Set         string  `json:"set,omitempty"`
	Number      string  `json:"number,omitempty"`
	UID         string  `json:"uid"`
	Appearances int     `json:"appearances"`
	StartShare  float64 `json:"startShare"`
	EndShare    float64 `json:"endShare"`
	Delta       float64 `json:"delta"`
	DeltaAbs    float64 `json:"deltaAbs"`
}

// CardTrendDataset buckets cards into rising and falling trends.
type CardTrendDataset struct {
	ID          string             `json:"id"`
	Rising      []CardTrendEntry   `json:"rising"`
	Falling     []CardTrendEntry   `json:"falling"`
	Tournaments []TournamentRecord `json:"tournaments"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// BuildCardTrendDataset computes per-card usage share per tournament, with
// reprints folded together through the resolver, then compares the mean share
// of the first ~30% of tournaments against the last ~30%.
//
// Unlike the meta-share series, a card's timeline spans the full window: a
// tournament where the card is absent counts as 0% share, because "nobody
// played it" is a real observation once the card pool includes it. Cards seen
// in fewer than MinAppearances tournaments are excluded from both buckets; a
// two-point comparison over a thin sample is noise, not a trend.
func BuildCardTrendDataset(decks []DeckRecord, tournaments []TournamentRecord, resolver CanonicalResolver, opts Options) *CardTrendDataset {
	ordered, byTournament := orderTournaments(decks, tournaments, opts)

	type cardAcc struct {
		display     string
		shares      []float64
		appearances int
	}
	acc := map[string]*cardAcc{}
	var order []string

	for ti, tr := range ordered {
		tDecks := byTournament[tr.ID]
		total := len(tDecks)
		if total == 0 {
			continue
		}
		found := map[string]int{}
		for _, d := range tDecks {
			seen := map[string]bool{}
			for _, c := range d.Cards {
				if c.Name == "" {
					continue
				}
				uid := report.BuildUID(c.Name, c.Set, c.Number)
				if resolver != nil {
					uid = resolver.Canonical(uid)
				}
				if seen[uid] {
					continue
				}
				seen[uid] = true
				found[uid]++
			}
		}
		for uid, n := range found {
			a, ok := acc[uid]
			if !ok {
				name, _, _ := report.SplitUID(uid)
				a = &cardAcc{display: name, shares: make([]float64, len(ordered))}
				acc[uid] = a
				order = append(order, uid)
			}
			a.shares[ti] = 100 * float64(n) / float64(total)
			a.appearances++
		}
	}

	minApp := opts.minAppearances()
	segment := segmentSize(len(ordered))

	dataset := &CardTrendDataset{
		ID:          datasetID("card-trends", ordered, opts),
		Rising:      []CardTrendEntry{},
		Falling:     []CardTrendEntry{},
		Tournaments: ordered,
		GeneratedAt: time.Now().UTC(),
	}
	if segment == 0 {
		return dataset
	}

	sort.Strings(order)
	for _, uid := range order {
		a := acc[uid]
		if a.appearances < minApp {
			continue
		}
		start := mean(a.shares[:segment])
		end := mean(a.shares[len(a.shares)-segment:])
		delta := end - start
		if delta == 0 {
			continue
		}
		name, set, number := report.SplitUID(uid)
		entry := CardTrendEntry{
			Name:        name,
			Set:         set,
			Number:      number,
			UID:         uid,
			Appearances: a.appearances,
			StartShare:  start,
			EndShare:    end,
			Delta:       delta,
			DeltaAbs:    abs(delta),
		}
		if delta > 0 {
			dataset.Rising = append(dataset.Rising, entry)
		} else {
			dataset.Falling = append(dataset.Falling, entry)
		}
	}

	// Rising: biggest gain first. Falling: biggest drop first.
	sort.SliceStable(dataset.Rising, func(i, j int) bool {
		if dataset.Rising[i].Delta != dataset.Rising[j].Delta {
			return dataset.Rising[i].Delta > dataset.Rising[j].Delta
		}
		return dataset.Rising[i].UID < dataset.Rising[j].UID
	})
	sort.SliceStable(dataset.Falling, func(i, j int) bool {
		if dataset.Falling[i].Delta != dataset.Falling[j].Delta {
			return dataset.Falling[i].Delta < dataset.Falling[j].Delta
		}
		return dataset.Falling[i].UID < dataset.Falling[j].UID
	})

	return dataset
}

// segmentSize is ~30% of the tournament count, at least one tournament.
func segmentSize(n int) int {
	if n == 0 {
		return 0
	}
	s := int(float64(n) * 0.3)
	if s < 1 {
		s = 1
	}
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
