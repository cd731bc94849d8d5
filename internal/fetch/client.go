// Package fetch retrieves pre-generated tournament reports from the static
// asset store (a public R2 bucket), or from a local mirror of the same
// layout. Every file is plain JSON under reports/{tournament}/; missing
// files are a normal condition and surface as ErrNotFound rather than
// aggregation failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ErrNotFound indicates the asset store has no file at the requested path.
// Callers treat this as "tournament did not publish this report".
var ErrNotFound = errors.New("report not found")

// Config configures the report client.
type Config struct {
	// BaseURL is the public asset store root.
	BaseURL string

	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration

	// CacheTTL is how long fetched payloads are cached in memory.
	// Zero disables caching.
	CacheTTL time.Duration

	// RetryMax is the number of retries per request.
	RetryMax int

	// RequestsPerSecond bounds the request rate against the store.
	RequestsPerSecond float64

	// Concurrency bounds parallel multi-tournament fetches.
	Concurrency int

	// Store persists fetched payloads across restarts. Optional; when set,
	// payloads fresher than CacheTTL are served from it before hitting HTTP.
	Store PayloadStore
}

// PayloadStore is a persistent payload cache keyed by tournament and report
// kind. A miss returns (nil, zero time, nil); errors are reserved for the
// store itself failing.
type PayloadStore interface {
	GetPayload(ctx context.Context, tournament, kind string) ([]byte, time.Time, error)
	PutPayload(ctx context.Context, tournament, kind string, payload []byte) error
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://r2.ciphermaniac.com",
		RequestTimeout:    30 * time.Second,
		CacheTTL:          15 * time.Minute,
		RetryMax:          3,
		RequestsPerSecond: 8,
		Concurrency:       4,
	}
}

// TournamentMeta is the meta.json payload published per tournament.
type TournamentMeta struct {
	Name       string `json:"name"`
	Date       string `json:"date"`
	StartDate  string `json:"startDate"`
	Players    int    `json:"players"`
	Format     string `json:"format"`
	FormatCode string `json:"formatCode"`
	SourceURL  string `json:"sourceUrl"`
	FetchedAt  string `json:"fetchedAt"`
}

// source abstracts where report payloads come from.
type source interface {
	get(ctx context.Context, path string) ([]byte, error)
	invalidate(prefix string)
}

// Client fetches report files from a source, with retries, rate limiting,
// and an in-memory TTL cache when the source is remote.
type Client struct {
	src         source
	concurrency int
}

// NewClient creates a client against the remote asset store.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = config.RetryMax
	rc.HTTPClient.Timeout = config.RequestTimeout
	rc.Logger = nil

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 8
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Client{
		src: &httpSource{
			http:    rc,
			baseURL: strings.TrimRight(config.BaseURL, "/"),
			limiter: rate.NewLimiter(rate.Limit(rps), 1),
			cache:   newPayloadCache(config.CacheTTL),
			store:   config.Store,
			ttl:     config.CacheTTL,
		},
		concurrency: concurrency,
	}
}

// NewLocalClient creates a client over a local directory mirroring the asset
// store layout (root contains reports/tournaments.json and so on). Useful
// offline and for development against downloaded report trees.
func NewLocalClient(root string) *Client {
	return &Client{src: &dirSource{root: root}, concurrency: 4}
}

// Invalidate drops cached payloads for the given tournament, or the whole
// cache when folder is empty.
func (c *Client) Invalidate(folder string) {
	if folder == "" {
		c.src.invalidate("")
		return
	}
	c.src.invalidate("reports/" + url.PathEscape(folder) + "/")
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	return c.src.get(ctx, path)
}

func tournamentPath(folder, file string) string {
	return "reports/" + url.PathEscape(folder) + "/" + file
}

// httpSource fetches payloads over HTTP with retries and rate limiting.
// When a PayloadStore is configured it is consulted after the in-memory
// cache and populated on every successful fetch, so payloads survive
// restarts.
type httpSource struct {
	http    *retryablehttp.Client
	baseURL string
	limiter *rate.Limiter
	cache   *payloadCache
	store   PayloadStore
	ttl     time.Duration
}

func (s *httpSource) get(ctx context.Context, path string) ([]byte, error) {
	if data, ok := s.cache.get(path); ok {
		return data, nil
	}

	tournament, kind := splitPath(path)
	if s.store != nil {
		payload, fetchedAt, err := s.store.GetPayload(ctx, tournament, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to read stored payload for %s: %w", path, err)
		}
		if payload != nil && s.ttl > 0 && time.Since(fetchedAt) < s.ttl {
			s.cache.set(path, payload)
			return payload, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	s.cache.set(path, data)
	if s.store != nil {
		if err := s.store.PutPayload(ctx, tournament, kind, data); err != nil {
			// Persisting is best effort; the fetch itself succeeded.
			return data, nil
		}
	}
	return data, nil
}

// splitPath maps an asset path to the (tournament, kind) key used by the
// persistent store. "reports/tournaments.json" has no tournament; everything
// else is reports/{folder}/{kind}.json with URL-escaped segments.
func splitPath(path string) (tournament, kind string) {
	rest := strings.TrimPrefix(path, "reports/")
	folder, file, ok := strings.Cut(rest, "/")
	if !ok {
		return "", strings.TrimSuffix(rest, ".json")
	}
	if unescaped, err := url.PathUnescape(folder); err == nil {
		folder = unescaped
	}
	if unescaped, err := url.PathUnescape(file); err == nil {
		file = unescaped
	}
	return folder, strings.TrimSuffix(file, ".json")
}

func (s *httpSource) invalidate(prefix string) {
	if prefix == "" {
		s.cache.clear()
		return
	}
	s.cache.invalidatePrefix(prefix)
}

// dirSource reads payloads from a local directory tree. Paths arrive
// URL-escaped (folder names contain commas and spaces), so they are
// unescaped before hitting the filesystem.
type dirSource struct {
	root string
}

func (s *dirSource) get(_ context.Context, path string) ([]byte, error) {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if unescaped, err := url.PathUnescape(part); err == nil {
			parts[i] = unescaped
		}
	}
	full := filepath.Join(s.root, filepath.Join(parts...))

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", full, err)
	}
	return data, nil
}

func (s *dirSource) invalidate(string) {}

// payloadCache is a TTL cache of raw asset payloads keyed by path.
type payloadCache struct {
	ttl  time.Duration
	mu   sync.RWMutex
	data map[string]cacheEntry
}

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

func newPayloadCache(ttl time.Duration) *payloadCache {
	return &payloadCache{ttl: ttl, data: map[string]cacheEntry{}}
}

func (p *payloadCache) get(key string) ([]byte, bool) {
	if p.ttl <= 0 {
		return nil, false
	}
	p.mu.RLock()
	entry, ok := p.data[key]
	p.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.payload, true
}

func (p *payloadCache) set(key string, payload []byte) {
	if p.ttl <= 0 {
		return
	}
	p.mu.Lock()
	p.data[key] = cacheEntry{payload: payload, expiresAt: time.Now().Add(p.ttl)}
	p.mu.Unlock()
}

func (p *payloadCache) clear() {
	p.mu.Lock()
	p.data = map[string]cacheEntry{}
	p.mu.Unlock()
}

func (p *payloadCache) invalidatePrefix(prefix string) {
	p.mu.Lock()
	for key := range p.data {
		if strings.HasPrefix(key, prefix) {
			delete(p.data, key)
		}
	}
	p.mu.Unlock()
}
