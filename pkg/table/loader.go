package table

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Ref identifies one configured table by its header document URL. Refs are
// configured in priority order; the loader assigns priorities from the
// positions.
type Ref struct {
	Name string
	URL  string
}

// Cache is the explicitly passed table cache. The caller owns the value,
// persists it wherever it likes, and decides freshness; the loader keeps
// no state between calls.
type Cache struct {
	Tables    []Table   `json:"tables"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Loader fetches difficulty table documents over HTTP.
type Loader struct {
	client *http.Client
}

// NewLoader creates a table loader.
func NewLoader() *Loader {
	return &Loader{client: &http.Client{Timeout: 30 * time.Second}}
}

// Load returns the table set for refs. When cache is non-nil and isFresh
// accepts its fetch time, the cached tables are returned without network
// traffic; otherwise every table is refetched. The returned cache is
// always complete and safe for the caller to persist.
func (l *Loader) Load(ctx context.Context, refs []Ref, cache *Cache, isFresh func(time.Time) bool) (*Cache, error) {
	if cache != nil && isFresh != nil && isFresh(cache.FetchedAt) {
		return cache, nil
	}

	tables := make([]Table, 0, len(refs))
	for i, ref := range refs {
		t, err := l.fetch(ctx, ref, i)
		if err != nil {
			return nil, fmt.Errorf("load table %s: %w", ref.URL, err)
		}
		tables = append(tables, *t)
	}
	return &Cache{Tables: tables, FetchedAt: time.Now().UTC()}, nil
}

func (l *Loader) fetch(ctx context.Context, ref Ref, priority int) (*Table, error) {
	var hdr Header
	if err := l.getJSON(ctx, ref.URL, &hdr); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	dataURL, err := resolveURL(ref.URL, hdr.DataURL)
	if err != nil {
		return nil, fmt.Errorf("data url %q: %w", hdr.DataURL, err)
	}

	var body Body
	if err := l.getJSON(ctx, dataURL, &body); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}

	name := hdr.Name
	if name == "" {
		name = ref.Name
	}
	return &Table{
		Name:       name,
		URL:        ref.URL,
		Symbol:     hdr.Symbol,
		Priority:   priority,
		LevelOrder: hdr.LevelOrder,
		Charts:     body.Normalize(),
	}, nil
}

func (l *Loader) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "scoradar/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// resolveURL resolves a possibly relative document reference against the
// header URL it came from.
func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
