package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"curator/internal/cache"
	"curator/internal/catalog"
	"curator/internal/types"

	"github.com/google/uuid"
)

// FetchAdapter is the uniform contract every source family implements.
// Fetch returns raw items whose best-available timestamp is strictly
// after since (all items when since is nil). Rate and availability
// failures are soft: the adapter returns whatever it collected.
type FetchAdapter interface {
	Name() string
	Fetch(ctx context.Context, since *time.Time) ([]types.RawItem, error)
}

// Deps carries the cross-adapter collaborators injected by the
// orchestrator.
type Deps struct {
	Logger           *slog.Logger
	PageCache        *cache.Cache[string]
	CodeHostToken    string
	AggregatorAPIKey string
	HTTPClient       *http.Client
}

func (d Deps) client() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// New constructs the adapter for a catalog entry, keyed by its adapter
// type.
func New(def catalog.SourceDefinition, deps Deps) (FetchAdapter, error) {
	switch def.Adapter {
	case catalog.AdapterForum:
		return newForumAdapter(def, deps), nil
	case catalog.AdapterFeed:
		return newFeedAdapter(def, deps), nil
	case catalog.AdapterMetrics:
		return newMetricsAdapter(def, deps), nil
	case catalog.AdapterAggregator:
		return newAggregatorAdapter(def, deps), nil
	case catalog.AdapterHTMLScrape:
		return newHTMLScrapeAdapter(def, deps), nil
	case catalog.AdapterCodeHost:
		return newCodeHostAdapter(def, deps), nil
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", def.Adapter)
	}
}

// pageDelay is the polite pause between successive page requests to
// the same third-party API.
const pageDelay = 250 * time.Millisecond

func politePause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pageDelay):
		return nil
	}
}

// statusError marks a non-2xx response so callers can tell soft
// availability failures from real ones.
type statusError struct {
	Code int
	URL  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// isSoftFailure reports whether the error is a rate or availability
// failure that should end the adapter run with partial results.
func isSoftFailure(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusTooManyRequests || se.Code >= 500
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "curator-pipeline/1.0")
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// newerThan applies the shared relevance cutoff: strictly after since,
// everything when since is nil.
func newerThan(best time.Time, since *time.Time) bool {
	if since == nil {
		return true
	}
	return best.After(*since)
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// rewriteHost applies a per-adapter canonical-hostname substitution
// table; known broken or redirect-prone hosts are rewritten before the
// URL becomes the dedup identity key.
func rewriteHost(rawURL string, table map[string]string) string {
	if len(table) == 0 {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if replacement, ok := table[parsed.Host]; ok {
		parsed.Host = replacement
		return parsed.String()
	}
	return rawURL
}

func newRawItem(sourceID, canonicalURL, title string, text *string, publishedAt *time.Time, metadata map[string]any) types.RawItem {
	return types.RawItem{
		ID:           uuid.NewString(),
		SourceID:     sourceID,
		CanonicalURL: canonicalURL,
		RawTitle:     title,
		RawText:      text,
		RawMetadata:  metadata,
		PublishedAt:  publishedAt,
		FetchedAt:    time.Now().UTC(),
	}
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
