package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"curator/internal/catalog"
	"curator/internal/types"
)

// aggregatorHostRewrites canonicalizes link hosts the aggregator is
// known to hand out in redirect-prone variants.
var aggregatorHostRewrites = map[string]string{
	"old.reddit.com":     "www.reddit.com",
	"mobile.twitter.com": "twitter.com",
	"t.co":               "twitter.com",
}

// aggregatorAdapter polls a social-aggregator listing API with cursor
// pagination.
type aggregatorAdapter struct {
	def        catalog.SourceDefinition
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	maxPages   int
}

type aggregatorListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data aggregatorPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type aggregatorPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
}

func newAggregatorAdapter(def catalog.SourceDefinition, deps Deps) *aggregatorAdapter {
	return &aggregatorAdapter{
		def:        def,
		httpClient: deps.client(),
		logger:     deps.logger(),
		apiKey:     deps.AggregatorAPIKey,
		maxPages:   3,
	}
}

func (a *aggregatorAdapter) Name() string { return a.def.ID }

func (a *aggregatorAdapter) Fetch(ctx context.Context, since *time.Time) ([]types.RawItem, error) {
	var items []types.RawItem
	cursor := ""

	header := http.Header{}
	if a.apiKey != "" {
		header.Set("Authorization", "Bearer "+a.apiKey)
	}

	for page := 0; page < a.maxPages; page++ {
		if page > 0 {
			if err := politePause(ctx); err != nil {
				return items, err
			}
		}

		listURL := fmt.Sprintf("%s/new.json?limit=50", a.def.BaseURL)
		if cursor != "" {
			listURL += "&after=" + cursor
		}

		var listing aggregatorListing
		if err := getJSON(ctx, a.httpClient, listURL, header, &listing); err != nil {
			if isSoftFailure(err) {
				a.logger.Warn("aggregator source unavailable, returning partial results",
					"source", a.def.ID, "page", page, "error", err)
				return items, nil
			}
			return items, fmt.Errorf("failed to fetch aggregator listing: %w", err)
		}

		newOnPage := 0
		for _, child := range listing.Data.Children {
			post := child.Data
			created := time.Unix(int64(post.CreatedUTC), 0).UTC()
			if !newerThan(created, since) {
				continue
			}
			newOnPage++
			items = append(items, a.postToItem(post, created))
		}

		a.logger.Debug("aggregator page fetched", "source", a.def.ID, "page", page, "new_items", newOnPage)

		cursor = listing.Data.After
		if newOnPage == 0 || cursor == "" {
			break
		}
	}

	return items, nil
}

func (a *aggregatorAdapter) postToItem(post aggregatorPost, created time.Time) types.RawItem {
	canonical := post.URL
	if canonical == "" || post.SelfText != "" {
		canonical = "https://www.reddit.com" + post.Permalink
	}
	canonical = rewriteHost(canonical, aggregatorHostRewrites)

	var text *string
	if post.SelfText != "" {
		text = strPtr(post.SelfText)
	}

	metadata := map[string]any{
		"author":        post.Author,
		"score":         post.Ups,
		"comment_count": post.NumComments,
		"permalink":     post.Permalink,
	}

	return newRawItem(a.def.ID, canonical, post.Title, text, timePtr(created), metadata)
}
