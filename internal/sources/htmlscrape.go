package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"curator/internal/cache"
	"curator/internal/catalog"
	"curator/internal/types"
	"curator/internal/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// htmlScrapeAdapter extracts items from listing pages without a feed.
// It expects article-shaped markup; anything more exotic belongs in
// its own adapter.
type htmlScrapeAdapter struct {
	def        catalog.SourceDefinition
	httpClient *http.Client
	pageCache  *cache.Cache[string]
	logger     *slog.Logger
	maxItems   int
}

func newHTMLScrapeAdapter(def catalog.SourceDefinition, deps Deps) *htmlScrapeAdapter {
	return &htmlScrapeAdapter{
		def:        def,
		httpClient: deps.client(),
		pageCache:  deps.PageCache,
		logger:     deps.logger(),
		maxItems:   50,
	}
}

func (h *htmlScrapeAdapter) Name() string { return h.def.ID }

func (h *htmlScrapeAdapter) Fetch(ctx context.Context, since *time.Time) ([]types.RawItem, error) {
	doc, err := h.fetchDocument(ctx, h.def.BaseURL)
	if err != nil {
		if isSoftFailure(err) {
			h.logger.Warn("scrape source unavailable", "source", h.def.ID, "error", err)
			return nil, nil
		}
		return nil, err
	}

	// Page chrome never holds content items.
	doc.Find("script, style, nav, header, footer, aside").Remove()

	base, err := url.Parse(h.def.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	var items []types.RawItem
	doc.Find("article").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(items) >= h.maxItems {
			return false
		}

		item, ok := h.extractItem(ctx, sel, base, since)
		if ok {
			items = append(items, item)
		}
		return true
	})

	h.logger.Debug("scrape fetched", "source", h.def.ID, "new_items", len(items))
	return items, nil
}

func (h *htmlScrapeAdapter) extractItem(ctx context.Context, sel *goquery.Selection, base *url.URL, since *time.Time) (types.RawItem, bool) {
	title := strings.TrimSpace(sel.Find("h1, h2, h3").First().Text())
	href, _ := sel.Find("a[href]").First().Attr("href")
	if title == "" || href == "" {
		return types.RawItem{}, false
	}

	link, err := base.Parse(href)
	if err != nil {
		return types.RawItem{}, false
	}
	canonical := link.String()

	published := h.publishedAt(sel)
	best := published
	if best.IsZero() {
		// No timestamp on the listing: treat the item as fresh and let
		// dedup sort out repeats.
		best = time.Now().UTC()
	}
	if !newerThan(best, since) {
		return types.RawItem{}, false
	}

	body := strings.TrimSpace(sel.Find("p").Text())
	if len(body) < excerptThreshold {
		if full, err := h.articleText(ctx, canonical); err == nil {
			body = full
		} else if body == "" {
			h.logger.Warn("skipping scraped item, body fetch failed",
				"source", h.def.ID, "link", canonical, "error", err)
			return types.RawItem{}, false
		}
	}

	metadata := map[string]any{
		"author": strings.TrimSpace(sel.Find(".author, [rel=author]").First().Text()),
	}

	var publishedPtr *time.Time
	if !published.IsZero() {
		publishedPtr = &published
	}

	return newRawItem(h.def.ID, canonical, title, strPtr(body), publishedPtr, metadata), true
}

func (h *htmlScrapeAdapter) publishedAt(sel *goquery.Selection) time.Time {
	if datetime, ok := sel.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, err := dateparse.ParseAny(datetime); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (h *htmlScrapeAdapter) articleText(ctx context.Context, canonical string) (string, error) {
	if h.pageCache != nil {
		if cached, ok := h.pageCache.Get(canonical); ok {
			return cached, nil
		}
	}
	text, err := utils.FetchArticleText(ctx, canonical)
	if err != nil {
		return "", err
	}
	if h.pageCache != nil {
		h.pageCache.Set(canonical, text)
	}
	return text, nil
}

func (h *htmlScrapeAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "curator-pipeline/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Code: resp.StatusCode, URL: pageURL}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}
