package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testFolder = "2025-06-14, Regional Milwaukee"

func testAssets() map[string]string {
	return map[string]string{
		"/reports/tournaments.json": `["2025-06-14, Regional Milwaukee", "2025-05-30, Regional Bologna"]`,
		"/reports/2025-06-14, Regional Milwaukee/meta.json": `{
			"name": "Regional Milwaukee", "startDate": "2025-06-14", "players": 128,
			"format": "Standard", "formatCode": "standard"
		}`,
		"/reports/2025-06-14, Regional Milwaukee/master.json": `{
			"deckTotal": 128,
			"items": [{"name": "Iono", "found": 90, "total": 128}]
		}`,
		"/reports/2025-06-14, Regional Milwaukee/decks.json": `[
			{"id": "abc", "player": "Player-1", "placement": 1, "archetype": "Gardevoir",
			 "cards": [{"count": 4, "name": "Iono", "set": "PAL", "number": "185", "category": "trainer"}]},
			{"id": "def", "player": "Player-2", "placement": 2, "archetype": "Charizard", "cards": []}
		]`,
		"/reports/2025-06-14, Regional Milwaukee/synonyms.json": `{
			"synonyms": {"Iono::PAF::080": "Iono::PAL::185"}, "canonicals": {"Iono": "Iono::PAL::185"}
		}`,
		"/reports/2025-06-14, Regional Milwaukee/archetypes/index.json": `["Gardevoir", "Charizard"]`,
		"/reports/2025-06-14, Regional Milwaukee/archetypes/Gardevoir.json": `{
			"deckTotal": 1, "items": [{"name": "Iono", "found": 1, "total": 1}]
		}`,
	}
}

func newTestClient(t *testing.T, hits *atomic.Int64) *Client {
	t.Helper()
	assets := testAssets()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		body, ok := assets[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient(&Config{
		BaseURL:           server.URL,
		RequestTimeout:    5 * time.Second,
		CacheTTL:          time.Minute,
		RetryMax:          0,
		RequestsPerSecond: 1000,
		Concurrency:       2,
	})
}

func TestClientListTournaments(t *testing.T) {
	client := newTestClient(t, nil)

	folders, err := client.ListTournaments(context.Background())
	if err != nil {
		t.Fatalf("ListTournaments: %v", err)
	}
	if len(folders) != 2 || folders[0] != testFolder {
		t.Errorf("folders = %v", folders)
	}
}

func TestClientFetchesTournamentFiles(t *testing.T) {
	client := newTestClient(t, nil)
	ctx := context.Background()

	meta, err := client.Meta(ctx, testFolder)
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if meta.Name != "Regional Milwaukee" || meta.Players != 128 {
		t.Errorf("meta = %+v", meta)
	}

	master, diags, err := client.MasterReport(ctx, testFolder)
	if err != nil {
		t.Fatalf("MasterReport: %v", err)
	}
	if len(diags) != 0 || master.DeckTotal != 128 || len(master.Items) != 1 {
		t.Errorf("master = %+v, diags = %v", master, diags)
	}

	table, err := client.Synonyms(ctx, testFolder)
	if err != nil {
		t.Fatalf("Synonyms: %v", err)
	}
	if got := table.Canonical("Iono::PAF::080"); got != "Iono::PAL::185" {
		t.Errorf("Canonical = %q", got)
	}

	index, err := client.ArchetypeIndex(ctx, testFolder)
	if err != nil {
		t.Fatalf("ArchetypeIndex: %v", err)
	}
	if len(index) != 2 {
		t.Errorf("index = %v", index)
	}

	parsed, _, err := client.ArchetypeReport(ctx, testFolder, "Gardevoir")
	if err != nil {
		t.Fatalf("ArchetypeReport: %v", err)
	}
	if parsed.DeckTotal != 1 {
		t.Errorf("archetype report = %+v", parsed)
	}
}

func TestClientNotFound(t *testing.T) {
	client := newTestClient(t, nil)

	_, err := client.Meta(context.Background(), "2020-01-01, Missing Event")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClientCachesPayloads(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, &hits)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.ListTournaments(ctx); err != nil {
			t.Fatalf("ListTournaments: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (cache miss only)", hits.Load())
	}

	client.Invalidate("")
	if _, err := client.ListTournaments(ctx); err != nil {
		t.Fatalf("ListTournaments after invalidate: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 after invalidation", hits.Load())
	}
}

// fakePayloadStore is an in-memory PayloadStore for exercising the
// persistent cache path without a database.
type fakePayloadStore struct {
	mu        sync.Mutex
	payloads  map[string][]byte
	fetchedAt map[string]time.Time
}

func newFakePayloadStore() *fakePayloadStore {
	return &fakePayloadStore{
		payloads:  map[string][]byte{},
		fetchedAt: map[string]time.Time{},
	}
}

func storeKey(tournament, kind string) string {
	return tournament + "\x00" + kind
}

func (s *fakePayloadStore) GetPayload(_ context.Context, tournament, kind string) ([]byte, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(tournament, kind)
	return s.payloads[key], s.fetchedAt[key], nil
}

func (s *fakePayloadStore) PutPayload(_ context.Context, tournament, kind string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(tournament, kind)
	s.payloads[key] = payload
	s.fetchedAt[key] = time.Now()
	return nil
}

func newStoredTestClient(t *testing.T, hits *atomic.Int64, store PayloadStore) *Client {
	t.Helper()
	assets := testAssets()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		body, ok := assets[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient(&Config{
		BaseURL:           server.URL,
		RequestTimeout:    5 * time.Second,
		CacheTTL:          time.Minute,
		RetryMax:          0,
		RequestsPerSecond: 1000,
		Concurrency:       2,
		Store:             store,
	})
}

func TestClientPersistsPayloadsAcrossRestarts(t *testing.T) {
	var hits atomic.Int64
	store := newFakePayloadStore()
	ctx := context.Background()

	first := newStoredTestClient(t, &hits, store)
	if _, err := first.Meta(ctx, testFolder); err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hits = %d, want 1", hits.Load())
	}
	if payload, _, _ := store.GetPayload(ctx, testFolder, "meta"); payload == nil {
		t.Fatal("fetched payload was not persisted")
	}

	// A fresh client has an empty memory cache; the stored payload must
	// satisfy the request without another HTTP round trip.
	second := newStoredTestClient(t, &hits, store)
	meta, err := second.Meta(ctx, testFolder)
	if err != nil {
		t.Fatalf("Meta from store: %v", err)
	}
	if meta.Players != 128 {
		t.Errorf("meta = %+v", meta)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (stored payload should be reused)", hits.Load())
	}

	// Stale stored payloads fall through to HTTP again.
	store.mu.Lock()
	store.fetchedAt[storeKey(testFolder, "meta")] = time.Now().Add(-2 * time.Minute)
	store.mu.Unlock()
	third := newStoredTestClient(t, &hits, store)
	if _, err := third.Meta(ctx, testFolder); err != nil {
		t.Fatalf("Meta after expiry: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 after stored payload expired", hits.Load())
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path           string
		wantTournament string
		wantKind       string
	}{
		{"reports/tournaments.json", "", "tournaments"},
		{"reports/2025-06-14%2C%20Regional%20Milwaukee/master.json", "2025-06-14, Regional Milwaukee", "master"},
		{"reports/2025-06-14%2C%20Regional%20Milwaukee/archetypes/index.json", "2025-06-14, Regional Milwaukee", "archetypes/index"},
		{"reports/2025-06-14%2C%20Regional%20Milwaukee/archetypes/Gardevoir%20ex.json", "2025-06-14, Regional Milwaukee", "archetypes/Gardevoir ex"},
	}
	for _, tt := range tests {
		tournament, kind := splitPath(tt.path)
		if tournament != tt.wantTournament || kind != tt.wantKind {
			t.Errorf("splitPath(%q) = (%q, %q), want (%q, %q)",
				tt.path, tournament, kind, tt.wantTournament, tt.wantKind)
		}
	}
}

func TestClientDeckRecords(t *testing.T) {
	client := newTestClient(t, nil)

	records, tr, err := client.DeckRecords(context.Background(), testFolder)
	if err != nil {
		t.Fatalf("DeckRecords: %v", err)
	}
	if tr.Name != "Regional Milwaukee" || tr.Players != 128 {
		t.Errorf("record = %+v", tr)
	}
	if !tr.Date.Equal(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", tr.Date)
	}
	if len(records) != 2 || records[0].Archetype != "Gardevoir" {
		t.Errorf("records = %+v", records)
	}
	if len(records[0].Cards) != 1 || records[0].Cards[0].Name != "Iono" {
		t.Errorf("cards = %+v", records[0].Cards)
	}
}

func TestClientFetchTournamentsSkipsMissing(t *testing.T) {
	client := newTestClient(t, nil)

	data, err := client.FetchTournaments(context.Background(), []string{
		testFolder,
		"2020-01-01, Missing Event",
	})
	if err != nil {
		t.Fatalf("FetchTournaments: %v", err)
	}
	if len(data) != 1 || data[0].Folder != testFolder {
		t.Errorf("data = %+v", data)
	}
	if data[0].Master == nil || data[0].Synonyms == nil || len(data[0].Decks) != 2 {
		t.Errorf("incomplete tournament data: %+v", data[0])
	}
}

func TestTournamentRecordFolderParsing(t *testing.T) {
	tests := []struct {
		folder   string
		wantName string
		dated    bool
	}{
		{"2025-06-14, Regional Milwaukee", "Regional Milwaukee", true},
		{"Online - Last 14 Days", "Online - Last 14 Days", false},
		{"2025-13-99, Bad Date", "2025-13-99, Bad Date", false},
	}
	for _, tt := range tests {
		record := TournamentRecord(tt.folder, nil)
		if record.ID != tt.folder {
			t.Errorf("ID = %q", record.ID)
		}
		if record.Name != tt.wantName {
			t.Errorf("Name(%q) = %q, want %q", tt.folder, record.Name, tt.wantName)
		}
		if record.Date.IsZero() == tt.dated {
			t.Errorf("Date(%q).IsZero() = %v", tt.folder, record.Date.IsZero())
		}
	}
}

func TestLocalClient(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "reports", testFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(root, "reports", "tournaments.json"): `["` + testFolder + `"]`,
		filepath.Join(dir, "master.json"):                  `{"deckTotal": 5, "items": []}`,
	}
	for path, body := range files {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	client := NewLocalClient(root)
	ctx := context.Background()

	folders, err := client.ListTournaments(ctx)
	if err != nil {
		t.Fatalf("ListTournaments: %v", err)
	}
	if len(folders) != 1 || folders[0] != testFolder {
		t.Errorf("folders = %v", folders)
	}

	master, _, err := client.MasterReport(ctx, testFolder)
	if err != nil {
		t.Fatalf("MasterReport: %v", err)
	}
	if master.DeckTotal != 5 {
		t.Errorf("master = %+v", master)
	}

	if _, err := client.Meta(ctx, testFolder); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing meta err = %v, want ErrNotFound", err)
	}
}
