// Package engine ties the fetch client, report transforms, and trend
// aggregators into one service used by the CLI and the API server.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rosematcha/ciphermaniac/internal/archetype"
	"github.com/rosematcha/ciphermaniac/internal/fetch"
	"github.com/rosematcha/ciphermaniac/internal/report"
	"github.com/rosematcha/ciphermaniac/internal/storage"
	"github.com/rosematcha/ciphermaniac/internal/synonyms"
	"github.com/rosematcha/ciphermaniac/internal/trends"
)

// ErrNotLoaded indicates no tournament data has been loaded yet.
var ErrNotLoaded = errors.New("no tournament data loaded")

// ErrUnknownTournament indicates a folder outside the loaded window.
var ErrUnknownTournament = errors.New("unknown tournament")

// ErrCardNotFound indicates a card absent from the queried report.
var ErrCardNotFound = errors.New("card not found")

// Options tunes the engine's dataset generation.
type Options struct {
	// MinAppearances excludes archetypes and cards seen in fewer distinct
	// tournaments from trend datasets.
	MinAppearances int

	// TopCards caps rising/falling card lists. Zero means no cap.
	TopCards int

	// MaxTournaments limits how many tournaments Refresh loads, newest
	// first. Zero means all published tournaments.
	MaxTournaments int

	// MinArchetypeTotal is the archetype selector's sample-size floor.
	// Zero means the selector default.
	MinArchetypeTotal int
}

// RefreshEvent describes a completed data refresh.
type RefreshEvent struct {
	Tournaments int       `json:"tournaments"`
	Decks       int       `json:"decks"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// Engine holds a snapshot of fetched tournament data and answers report,
// archetype, and trend queries against it.
type Engine struct {
	client *fetch.Client
	store  *storage.ReportCache // may be nil
	opts   Options

	mu        sync.RWMutex
	data      []fetch.TournamentData // chronological
	byFolder  map[string]*fetch.TournamentData
	syn       *synonyms.Table
	refreshed time.Time

	subMu sync.Mutex
	subs  []func(RefreshEvent)
}

// New creates an engine over a fetch client. The storage cache is optional;
// when present, generated trend datasets are persisted to it.
func New(client *fetch.Client, store *storage.ReportCache, opts Options) *Engine {
	return &Engine{
		client:   client,
		store:    store,
		opts:     opts,
		byFolder: make(map[string]*fetch.TournamentData),
	}
}

// OnRefresh registers a callback invoked after every successful refresh.
func (e *Engine) OnRefresh(fn func(RefreshEvent)) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.subs = append(e.subs, fn)
}

// Refresh reloads the tournament window from the source and replaces the
// engine's snapshot. Tournaments with missing files are skipped.
func (e *Engine) Refresh(ctx context.Context) (RefreshEvent, error) {
	folders, err := e.client.ListTournaments(ctx)
	if err != nil {
		return RefreshEvent{}, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if e.opts.MaxTournaments > 0 && len(folders) > e.opts.MaxTournaments {
		folders = folders[:e.opts.MaxTournaments] // tournaments.json is newest first
	}

	data, err := e.client.FetchTournaments(ctx, folders)
	if err != nil {
		return RefreshEvent{}, err
	}
	fetch.SortChronological(data)

	tables := make([]*synonyms.Table, 0, len(data))
	deckCount := 0
	byFolder := make(map[string]*fetch.TournamentData, len(data))
	for i := range data {
		byFolder[data[i].Folder] = &data[i]
		deckCount += len(data[i].Decks)
		if data[i].Synonyms != nil {
			tables = append(tables, data[i].Synonyms)
		}
	}

	event := RefreshEvent{
		Tournaments: len(data),
		Decks:       deckCount,
		RefreshedAt: time.Now().UTC(),
	}

	e.mu.Lock()
	e.data = data
	e.byFolder = byFolder
	e.syn = synonyms.Merge(tables...)
	e.refreshed = event.RefreshedAt
	e.mu.Unlock()

	e.persistDatasets(ctx)
	e.notify(event)
	return event, nil
}

func (e *Engine) notify(event RefreshEvent) {
	e.subMu.Lock()
	subs := make([]func(RefreshEvent), len(e.subs))
	copy(subs, e.subs)
	e.subMu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// keepTrendSnapshots bounds how many persisted snapshots survive per
// dataset kind. Dataset ids are stable per tournament window, so growth only
// happens when the window itself moves.
const keepTrendSnapshots = 10

// persistDatasets stores fresh trend snapshots in the sqlite cache and
// prunes superseded ones.
func (e *Engine) persistDatasets(ctx context.Context) {
	if e.store == nil {
		return
	}

	meta, err := e.MetaShare()
	if err == nil {
		if payload, err := json.Marshal(meta); err == nil {
			if err := e.store.PutTrendDataset(ctx, meta.ID, "meta-share", payload, meta.GeneratedAt); err != nil {
				log.Printf("Warning: failed to persist meta-share dataset: %v", err)
			}
		}
	}

	cards, err := e.CardTrends()
	if err == nil {
		if payload, err := json.Marshal(cards); err == nil {
			if err := e.store.PutTrendDataset(ctx, cards.ID, "card-trends", payload, cards.GeneratedAt); err != nil {
				log.Printf("Warning: failed to persist card-trend dataset: %v", err)
			}
		}
	}

	for _, kind := range []string{"meta-share", "card-trends"} {
		if err := e.store.PruneTrendDatasets(ctx, kind, keepTrendSnapshots); err != nil {
			log.Printf("Warning: failed to prune %s datasets: %v", kind, err)
		}
	}
}

// TournamentSummary is one loaded tournament.
type TournamentSummary struct {
	Folder  string    `json:"folder"`
	Name    string    `json:"name"`
	Date    time.Time `json:"date,omitzero"`
	Players int       `json:"players,omitempty"`
	Decks   int       `json:"decks"`
}

// Tournaments lists the loaded window, oldest first.
func (e *Engine) Tournaments() ([]TournamentSummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.data) == 0 {
		return nil, ErrNotLoaded
	}

	out := make([]TournamentSummary, 0, len(e.data))
	for i := range e.data {
		d := &e.data[i]
		out = append(out, TournamentSummary{
			Folder:  d.Folder,
			Name:    d.Record.Name,
			Date:    d.Record.Date,
			Players: d.Record.Players,
			Decks:   len(d.Decks),
		})
	}
	return out, nil
}

// RefreshedAt reports when the snapshot was last loaded.
func (e *Engine) RefreshedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.refreshed
}

// MasterReport returns one tournament's master usage report.
func (e *Engine) MasterReport(folder string) (*report.ParsedReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d, ok := e.byFolder[folder]
	if !ok {
		return nil, fmt.Errorf("%q: %w", folder, ErrUnknownTournament)
	}
	if d.Master == nil {
		return nil, fmt.Errorf("no master report for %q: %w", folder, fetch.ErrNotFound)
	}
	return d.Master, nil
}

// ArchetypeReport returns the usage report filtered to one archetype of a
// loaded tournament.
func (e *Engine) ArchetypeReport(ctx context.Context, folder, base string) (*report.ParsedReport, error) {
	e.mu.RLock()
	_, ok := e.byFolder[folder]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", folder, ErrUnknownTournament)
	}

	rep, _, err := e.client.ArchetypeReport(ctx, folder, base)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// CombinedReport aggregates the master reports of several tournaments into
// one. Tournament totals sum because each event is a disjoint player pool.
func (e *Engine) CombinedReport(folders []string) (*report.ParsedReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.data) == 0 {
		return nil, ErrNotLoaded
	}

	reports := make([]*report.ParsedReport, 0, len(folders))
	for _, folder := range folders {
		d, ok := e.byFolder[folder]
		if !ok {
			return nil, fmt.Errorf("%q: %w", folder, ErrUnknownTournament)
		}
		if d.Master != nil {
			reports = append(reports, d.Master)
		}
	}
	return report.Aggregate(reports), nil
}

// CardUsage is a card's variant-combined usage line in one tournament.
type CardUsage struct {
	Tournament string                `json:"tournament"`
	Card       *report.CardUsageItem `json:"card"`
	Variants   []string              `json:"variants"`
	Diags      []report.Diagnostic   `json:"diagnostics,omitempty"`
}

// CardUsageFor resolves a card's reprint family through the synonym table
// and folds all printings into one usage row for the given tournament.
func (e *Engine) CardUsageFor(folder, uid string) (*CardUsage, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d, ok := e.byFolder[folder]
	if !ok {
		return nil, fmt.Errorf("%q: %w", folder, ErrUnknownTournament)
	}
	if d.Master == nil {
		return nil, fmt.Errorf("no master report for %q: %w", folder, fetch.ErrNotFound)
	}

	variants := e.variantsOf(uid)
	combined, diags := report.CombineVariants(d.Master.Items, variants)
	if combined == nil {
		return nil, fmt.Errorf("%q in %q: %w", uid, folder, ErrCardNotFound)
	}

	return &CardUsage{
		Tournament: folder,
		Card:       combined,
		Variants:   variants,
		Diags:      diags,
	}, nil
}

// variantsOf expands a UID to its reprint family, canonical first. Callers
// must hold e.mu.
func (e *Engine) variantsOf(uid string) []string {
	if e.syn == nil {
		return []string{uid}
	}
	canonical := e.syn.Canonical(uid)
	variants := e.syn.VariantsOf(canonical)
	if len(variants) == 0 {
		return []string{canonical}
	}
	return variants
}

// ArchetypePick is the outcome of attributing a card to an archetype.
type ArchetypePick struct {
	UID        string                `json:"uid"`
	Tournament string                `json:"tournament"`
	Pick       *archetype.Candidate  `json:"pick"` // nil when nothing qualifies
	Candidates []archetype.Candidate `json:"candidates,omitempty"`
}

// ArchetypeFor finds the archetype that best represents a card in one
// tournament: every archetype report is scanned for the card's reprint
// family, and the selector picks among archetypes that actually run it.
// Top-8 finishes act as a hint that outranks raw sample size.
func (e *Engine) ArchetypeFor(ctx context.Context, folder, uid string) (*ArchetypePick, error) {
	e.mu.RLock()
	d, ok := e.byFolder[folder]
	var variants []string
	if ok {
		variants = e.variantsOf(uid)
	}
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%q: %w", folder, ErrUnknownTournament)
	}

	bases, err := e.client.ArchetypeIndex(ctx, folder)
	if err != nil {
		return nil, err
	}

	var candidates []archetype.Candidate
	for _, base := range bases {
		rep, _, err := e.client.ArchetypeReport(ctx, folder, base)
		if err != nil {
			if errors.Is(err, fetch.ErrNotFound) {
				continue
			}
			return nil, err
		}

		combined, _ := report.CombineVariants(rep.Items, variants)
		if combined == nil {
			continue
		}
		total := combined.Total
		if total == 0 {
			total = rep.DeckTotal
		}
		candidates = append(candidates, archetype.Candidate{
			Base:  base,
			Pct:   combined.Pct,
			Found: combined.Found,
			Total: total,
		})
	}

	pick := archetype.Pick(candidates, e.top8Bases(d), archetype.Options{
		MinTotal: e.opts.MinArchetypeTotal,
	})

	return &ArchetypePick{
		UID:        uid,
		Tournament: folder,
		Pick:       pick,
		Candidates: candidates,
	}, nil
}

// top8Bases collects archetypes of decks that placed in the top 8.
func (e *Engine) top8Bases(d *fetch.TournamentData) []string {
	seen := make(map[string]bool)
	var bases []string
	for _, deck := range d.Decks {
		if deck.Placement < 1 || deck.Placement > 8 || deck.Archetype == "" {
			continue
		}
		key := archetype.NormalizeBase(deck.Archetype)
		if !seen[key] {
			seen[key] = true
			bases = append(bases, deck.Archetype)
		}
	}
	return bases
}

// MetaShare builds the archetype meta-share dataset over the loaded window.
func (e *Engine) MetaShare() (*trends.MetaShareDataset, error) {
	decks, records, err := e.trendInput()
	if err != nil {
		return nil, err
	}
	return trends.BuildMetaShareDataset(decks, records, trends.Options{
		MinAppearances: e.opts.MinAppearances,
	}), nil
}

// CardTrends builds the rising/falling card dataset over the loaded window.
func (e *Engine) CardTrends() (*trends.CardTrendDataset, error) {
	decks, records, err := e.trendInput()
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	syn := e.syn
	e.mu.RUnlock()

	dataset := trends.BuildCardTrendDataset(decks, records, syn, trends.Options{
		MinAppearances: e.opts.MinAppearances,
	})
	if e.opts.TopCards > 0 {
		if len(dataset.Rising) > e.opts.TopCards {
			dataset.Rising = dataset.Rising[:e.opts.TopCards]
		}
		if len(dataset.Falling) > e.opts.TopCards {
			dataset.Falling = dataset.Falling[:e.opts.TopCards]
		}
	}
	return dataset, nil
}

func (e *Engine) trendInput() ([]trends.DeckRecord, []trends.TournamentRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.data) == 0 {
		return nil, nil, ErrNotLoaded
	}

	var decks []trends.DeckRecord
	records := make([]trends.TournamentRecord, 0, len(e.data))
	for i := range e.data {
		records = append(records, e.data[i].Record)
		decks = append(decks, e.data[i].Decks...)
	}
	return decks, records, nil
}
