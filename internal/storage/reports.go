package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotCached indicates the requested payload has never been stored.
var ErrNotCached = errors.New("not cached")

// Report payload kinds stored in the cache.
const (
	KindMaster   = "master"
	KindDecks    = "decks"
	KindMeta     = "meta"
	KindSynonyms = "synonyms"
)

// CachedPayload is one stored report file.
type CachedPayload struct {
	Tournament string
	Kind       string
	Payload    []byte
	ETag       string
	FetchedAt  time.Time
}

// ReportCache stores raw report payloads keyed by tournament and kind.
type ReportCache struct {
	db *DB
}

// NewReportCache creates a report cache over an open database.
func NewReportCache(db *DB) *ReportCache {
	return &ReportCache{db: db}
}

// Put stores or replaces a payload.
func (c *ReportCache) Put(ctx context.Context, tournament, kind string, payload []byte, etag string) error {
	_, err := c.db.conn.ExecContext(ctx, `
		INSERT INTO report_cache (tournament, kind, payload, etag, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tournament, kind) DO UPDATE SET
			payload = excluded.payload,
			etag = excluded.etag,
			fetched_at = excluded.fetched_at`,
		tournament, kind, payload, etag, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cache %s/%s: %w", tournament, kind, err)
	}
	return nil
}

// Get retrieves a payload, or ErrNotCached.
func (c *ReportCache) Get(ctx context.Context, tournament, kind string) (*CachedPayload, error) {
	row := c.db.conn.QueryRowContext(ctx, `
		SELECT payload, etag, fetched_at FROM report_cache
		WHERE tournament = ? AND kind = ?`,
		tournament, kind)

	cached := &CachedPayload{Tournament: tournament, Kind: kind}
	var etag sql.NullString
	if err := row.Scan(&cached.Payload, &etag, &cached.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", tournament, kind, ErrNotCached)
		}
		return nil, fmt.Errorf("failed to read cache for %s/%s: %w", tournament, kind, err)
	}
	cached.ETag = etag.String
	return cached, nil
}

// GetPayload returns a stored payload and when it was fetched, or nils on a
// miss. It adapts the cache to the fetch client's persistent-store interface.
func (c *ReportCache) GetPayload(ctx context.Context, tournament, kind string) ([]byte, time.Time, error) {
	cached, err := c.Get(ctx, tournament, kind)
	if err != nil {
		if errors.Is(err, ErrNotCached) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, err
	}
	return cached.Payload, cached.FetchedAt, nil
}

// PutPayload stores a fetched payload.
func (c *ReportCache) PutPayload(ctx context.Context, tournament, kind string, payload []byte) error {
	return c.Put(ctx, tournament, kind, payload, "")
}

// Tournaments lists tournaments with at least one cached payload.
func (c *ReportCache) Tournaments(ctx context.Context) ([]string, error) {
	rows, err := c.db.conn.QueryContext(ctx, `
		SELECT DISTINCT tournament FROM report_cache ORDER BY tournament DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

// Invalidate removes every cached payload for a tournament.
func (c *ReportCache) Invalidate(ctx context.Context, tournament string) error {
	_, err := c.db.conn.ExecContext(ctx,
		`DELETE FROM report_cache WHERE tournament = ?`, tournament)
	if err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", tournament, err)
	}
	return nil
}

// PutTrendDataset stores a generated trend dataset snapshot.
func (c *ReportCache) PutTrendDataset(ctx context.Context, id, kind string, payload []byte, generatedAt time.Time) error {
	_, err := c.db.conn.ExecContext(ctx, `
		INSERT INTO trend_datasets (id, kind, payload, generated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			payload = excluded.payload,
			generated_at = excluded.generated_at`,
		id, kind, payload, generatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store trend dataset %s: %w", id, err)
	}
	return nil
}

// LatestTrendDataset returns the most recently generated dataset of a kind,
// or ErrNotCached.
func (c *ReportCache) LatestTrendDataset(ctx context.Context, kind string) ([]byte, time.Time, error) {
	row := c.db.conn.QueryRowContext(ctx, `
		SELECT payload, generated_at FROM trend_datasets
		WHERE kind = ? ORDER BY generated_at DESC LIMIT 1`, kind)

	var payload []byte
	var generatedAt time.Time
	if err := row.Scan(&payload, &generatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, fmt.Errorf("trend dataset %q: %w", kind, ErrNotCached)
		}
		return nil, time.Time{}, fmt.Errorf("failed to read trend dataset %q: %w", kind, err)
	}
	return payload, generatedAt, nil
}

// PruneTrendDatasets keeps the newest n datasets per kind and deletes the rest.
func (c *ReportCache) PruneTrendDatasets(ctx context.Context, kind string, keep int) error {
	_, err := c.db.conn.ExecContext(ctx, `
		DELETE FROM trend_datasets
		WHERE kind = ? AND id NOT IN (
			SELECT id FROM trend_datasets
			WHERE kind = ? ORDER BY generated_at DESC LIMIT ?
		)`, kind, kind, keep)
	if err != nil {
		return fmt.Errorf("failed to prune trend datasets: %w", err)
	}
	return nil
}
