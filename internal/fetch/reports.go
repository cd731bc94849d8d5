package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rosematcha/ciphermaniac/internal/report"
	"github.com/rosematcha/ciphermaniac/internal/synonyms"
	"github.com/rosematcha/ciphermaniac/internal/trends"
)

// Deck is one decklist entry from a tournament's decks.json.
type Deck struct {
	ID        string            `json:"id"`
	Player    string            `json:"player"`
	Placement int               `json:"placement"`
	Archetype string            `json:"archetype"`
	Cards     []trends.DeckCard `json:"cards"`
	DeckHash  string            `json:"deckHash"`
}

// ListTournaments returns tournament folder names, newest first, as published
// in reports/tournaments.json.
func (c *Client) ListTournaments(ctx context.Context) ([]string, error) {
	data, err := c.getJSON(ctx, "reports/tournaments.json")
	if err != nil {
		return nil, err
	}
	var folders []string
	if err := json.Unmarshal(data, &folders); err != nil {
		return nil, fmt.Errorf("failed to parse tournaments list: %w", err)
	}
	return folders, nil
}

// Meta fetches a tournament's meta.json.
func (c *Client) Meta(ctx context.Context, folder string) (*TournamentMeta, error) {
	data, err := c.getJSON(ctx, tournamentPath(folder, "meta.json"))
	if err != nil {
		return nil, err
	}
	var meta TournamentMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta for %q: %w", folder, err)
	}
	return &meta, nil
}

// MasterReport fetches and parses a tournament's full card-usage report.
func (c *Client) MasterReport(ctx context.Context, folder string) (*report.ParsedReport, []report.Diagnostic, error) {
	data, err := c.getJSON(ctx, tournamentPath(folder, "master.json"))
	if err != nil {
		return nil, nil, err
	}
	parsed, diags := report.Parse(data)
	return parsed, diags, nil
}

// ArchetypeIndex lists the archetype report file bases for a tournament.
func (c *Client) ArchetypeIndex(ctx context.Context, folder string) ([]string, error) {
	data, err := c.getJSON(ctx, tournamentPath(folder, "archetypes/index.json"))
	if err != nil {
		return nil, err
	}
	var index []string
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse archetype index for %q: %w", folder, err)
	}
	return index, nil
}

// ArchetypeReport fetches the usage report filtered to one archetype.
func (c *Client) ArchetypeReport(ctx context.Context, folder, base string) (*report.ParsedReport, []report.Diagnostic, error) {
	path := tournamentPath(folder, "archetypes/"+url.PathEscape(base)+".json")
	data, err := c.getJSON(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	parsed, diags := report.Parse(data)
	return parsed, diags, nil
}

// Synonyms fetches a tournament's card synonym table. Tournaments published
// before synonym generation existed have none; that returns ErrNotFound.
func (c *Client) Synonyms(ctx context.Context, folder string) (*synonyms.Table, error) {
	data, err := c.getJSON(ctx, tournamentPath(folder, "synonyms.json"))
	if err != nil {
		return nil, err
	}
	table, err := synonyms.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse synonyms for %q: %w", folder, err)
	}
	return table, nil
}

// Decks fetches a tournament's full decklist dump.
func (c *Client) Decks(ctx context.Context, folder string) ([]Deck, error) {
	data, err := c.getJSON(ctx, tournamentPath(folder, "decks.json"))
	if err != nil {
		return nil, err
	}
	var decks []Deck
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("failed to parse decks for %q: %w", folder, err)
	}
	return decks, nil
}

// TournamentRecord derives the chronological record for a folder. Folder
// names carry an ISO date prefix ("2025-06-14, Regional Milwaukee"); meta is
// consulted as a fallback and may be nil.
func TournamentRecord(folder string, meta *TournamentMeta) trends.TournamentRecord {
	record := trends.TournamentRecord{ID: folder, Name: folder}

	if len(folder) >= 12 && folder[10] == ',' {
		if date, err := time.Parse("2006-01-02", folder[:10]); err == nil {
			record.Date = date
			name := folder[11:]
			for len(name) > 0 && name[0] == ' ' {
				name = name[1:]
			}
			if name != "" {
				record.Name = name
			}
		}
	}

	if meta != nil {
		if meta.Name != "" {
			record.Name = meta.Name
		}
		record.Players = meta.Players
		if record.Date.IsZero() && meta.StartDate != "" {
			if date, err := time.Parse("2006-01-02", meta.StartDate); err == nil {
				record.Date = date
			}
		}
	}

	return record
}

// DeckRecords fetches a tournament's decks as trend-aggregator input.
func (c *Client) DeckRecords(ctx context.Context, folder string) ([]trends.DeckRecord, trends.TournamentRecord, error) {
	meta, err := c.Meta(ctx, folder)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, trends.TournamentRecord{}, err
	}
	tr := TournamentRecord(folder, meta)

	decks, err := c.Decks(ctx, folder)
	if err != nil {
		return nil, tr, err
	}

	records := make([]trends.DeckRecord, 0, len(decks))
	for _, d := range decks {
		records = append(records, trends.DeckRecord{
			TournamentID:   folder,
			TournamentDate: tr.Date,
			Archetype:      d.Archetype,
			Placement:      d.Placement,
			Cards:          d.Cards,
		})
	}
	return records, tr, nil
}

// TournamentData bundles everything fetched for one tournament.
type TournamentData struct {
	Folder      string
	Record      trends.TournamentRecord
	Decks       []trends.DeckRecord
	Synonyms    *synonyms.Table
	Master      *report.ParsedReport
	Diagnostics []report.Diagnostic
}

// FetchTournaments retrieves deck records, master reports, and synonym
// tables for several tournaments with bounded concurrency. Tournaments whose
// files are missing are skipped; the result preserves input order. Only
// transport-level failures abort the fetch.
func (c *Client) FetchTournaments(ctx context.Context, folders []string) ([]TournamentData, error) {
	results := make([]*TournamentData, len(folders))
	errs := make([]error, len(folders))

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for i, folder := range folders {
		wg.Add(1)
		go func(i int, folder string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := c.fetchOne(ctx, folder)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = data
		}(i, folder)
	}
	wg.Wait()

	out := make([]TournamentData, 0, len(folders))
	for i, r := range results {
		if errs[i] != nil {
			if errors.Is(errs[i], ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch %q: %w", folders[i], errs[i])
		}
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (c *Client) fetchOne(ctx context.Context, folder string) (*TournamentData, error) {
	decks, record, err := c.DeckRecords(ctx, folder)
	if err != nil {
		return nil, err
	}

	data := &TournamentData{Folder: folder, Record: record, Decks: decks}

	if master, diags, err := c.MasterReport(ctx, folder); err == nil {
		data.Master = master
		data.Diagnostics = diags
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if table, err := c.Synonyms(ctx, folder); err == nil {
		data.Synonyms = table
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return data, nil
}

// SortChronological orders tournament data oldest first, which is the order
// the trend aggregator consumes. Undated entries keep their input position.
func SortChronological(data []TournamentData) {
	sort.SliceStable(data, func(i, j int) bool {
		a, b := data[i].Record.Date, data[j].Record.Date
		if a.IsZero() || b.IsZero() {
			return false
		}
		return a.Before(b)
	})
}
