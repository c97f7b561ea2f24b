package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"curator/internal/cache"
	"curator/internal/catalog"
	"curator/internal/types"
	"curator/internal/utils"

	"github.com/mmcdole/gofeed"
)

// Text shorter than this after the excerpt chain means the feed is
// excerpt-only and the canonical page is fetched instead.
const excerptThreshold = 280

// feedHostRewrites maps known broken or redirect-prone feed hosts to
// their working canonical form. The raw URL is the dedup identity key,
// so rewriting has to happen here, before storage.
var feedHostRewrites = map[string]string{
	"feedproxy.google.com": "feeds.feedburner.com",
	"blog.ethereum.org.":   "blog.ethereum.org",
	"www.rekt.news":        "rekt.news",
}

// feedAdapter handles RSS and Atom sources via gofeed, with a
// readability secondary fetch for excerpt-only feeds.
type feedAdapter struct {
	def       catalog.SourceDefinition
	parser    *gofeed.Parser
	pageCache *cache.Cache[string]
	logger    *slog.Logger
	maxItems  int
}

func newFeedAdapter(def catalog.SourceDefinition, deps Deps) *feedAdapter {
	return &feedAdapter{
		def:       def,
		parser:    gofeed.NewParser(),
		pageCache: deps.PageCache,
		logger:    deps.logger(),
		maxItems:  50,
	}
}

func (f *feedAdapter) Name() string { return f.def.ID }

func (f *feedAdapter) Fetch(ctx context.Context, since *time.Time) ([]types.RawItem, error) {
	feed, err := f.parser.ParseURLWithContext(f.def.BaseURL, ctx)
	if err != nil {
		// Only rate and availability statuses are soft. Anything else
		// (connection failure, malformed XML) must surface so the poll
		// cursor stays put and the window is re-covered next run.
		if isFeedSoftFailure(err) {
			f.logger.Warn("feed source unavailable", "source", f.def.ID, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	limit := f.maxItems
	if limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	var items []types.RawItem
	for i := 0; i < limit; i++ {
		feedItem := feed.Items[i]

		published := f.bestTimestamp(feedItem)
		best := published
		if best.IsZero() {
			// No usable timestamp at all. Treat the item as fresh and
			// let dedup sort out repeats.
			best = time.Now().UTC()
		}
		if !newerThan(best, since) {
			continue
		}

		canonical := rewriteHost(feedItem.Link, feedHostRewrites)
		if canonical == "" {
			continue
		}

		body, err := f.extractText(ctx, feedItem, canonical)
		if err != nil {
			f.logger.Warn("skipping feed item, body fetch failed",
				"source", f.def.ID, "link", canonical, "error", err)
			continue
		}

		metadata := map[string]any{
			"guid":       feedItem.GUID,
			"published":  feedItem.Published,
			"updated":    feedItem.Updated,
			"categories": feedItem.Categories,
		}
		if feedItem.Author != nil {
			metadata["author"] = feedItem.Author.Name
		}

		items = append(items, newRawItem(f.def.ID, canonical, feedItem.Title, strPtr(body), timePtr(published), metadata))
	}

	f.logger.Debug("feed fetched", "source", f.def.ID, "feed_items", len(feed.Items), "new_items", len(items))
	return items, nil
}

func (f *feedAdapter) bestTimestamp(item *gofeed.Item) time.Time {
	var published, updated time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		updated = *item.UpdatedParsed
	}
	return laterOf(published, updated)
}

// extractText walks the prioritized candidate fields (excerpt →
// extended content → summary) and falls back to a secondary fetch of
// the canonical page when the feed is excerpt-only.
func (f *feedAdapter) extractText(ctx context.Context, item *gofeed.Item, canonical string) (string, error) {
	for _, candidate := range []string{item.Description, item.Content} {
		text := utils.StripHTML(candidate)
		if len(text) >= excerptThreshold {
			return text, nil
		}
	}

	if f.pageCache != nil {
		if cached, ok := f.pageCache.Get(canonical); ok {
			return cached, nil
		}
	}

	text, err := utils.FetchArticleText(ctx, canonical)
	if err != nil {
		// Keep the short excerpt when the page fetch fails but the
		// excerpt is nonempty; only a fully empty body is an error.
		if short := utils.StripHTML(item.Description); short != "" {
			return short, nil
		}
		return "", err
	}

	if f.pageCache != nil {
		f.pageCache.Set(canonical, text)
	}
	return text, nil
}

// isFeedSoftFailure mirrors isSoftFailure for gofeed's HTTP errors:
// rate limiting and server-side failures leave the poll cursor in
// place without failing the source.
func isFeedSoftFailure(err error) bool {
	var httpErr gofeed.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
}
