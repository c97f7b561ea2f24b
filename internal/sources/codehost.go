package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"curator/internal/catalog"
	"curator/internal/types"

	"github.com/araddon/dateparse"
)

// botAuthors are automation handles whose changes never make cards.
// Anything ending in "[bot]" is filtered regardless of this list.
var botAuthors = map[string]bool{
	"dependabot[bot]":     true,
	"renovate[bot]":       true,
	"github-actions[bot]": true,
	"web-flow":            true,
}

// substantiveTitle gates pull request titles: only changes that look
// like real protocol or client work pass; CI and infra housekeeping
// does not.
var substantiveTitle = regexp.MustCompile(`(?i)(eip-\d+|erc-\d+|implement|add |fix |support|refactor|optimiz|enable|release|hardfork|fork|consensus|snapshot|prune|prague|osaka)`)

// codeHostAdapter polls a GitHub-compatible repository API. Two
// independent queries (recently merged, newly opened) are merged and
// deduplicated by canonical URL.
type codeHostAdapter struct {
	def        catalog.SourceDefinition
	httpClient *http.Client
	logger     *slog.Logger
	token      string
	maxItems   int
}

type pullRequest struct {
	HTMLURL   string `json:"html_url"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	MergedAt  string `json:"merged_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

func newCodeHostAdapter(def catalog.SourceDefinition, deps Deps) *codeHostAdapter {
	return &codeHostAdapter{
		def:        def,
		httpClient: deps.client(),
		logger:     deps.logger(),
		token:      deps.CodeHostToken,
		maxItems:   50,
	}
}

func (c *codeHostAdapter) Name() string { return c.def.ID }

func (c *codeHostAdapter) Fetch(ctx context.Context, since *time.Time) ([]types.RawItem, error) {
	queries := []struct {
		name string
		url  string
	}{
		{"merged", fmt.Sprintf("%s/pulls?state=closed&sort=updated&direction=desc&per_page=50", c.def.BaseURL)},
		{"opened", fmt.Sprintf("%s/pulls?state=open&sort=created&direction=desc&per_page=50", c.def.BaseURL)},
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	seen := make(map[string]bool)
	var items []types.RawItem

	for i, query := range queries {
		if i > 0 {
			if err := politePause(ctx); err != nil {
				return items, err
			}
		}

		var pulls []pullRequest
		if err := getJSON(ctx, c.httpClient, query.url, header, &pulls); err != nil {
			if isSoftFailure(err) {
				c.logger.Warn("code host unavailable, returning partial results",
					"source", c.def.ID, "query", query.name, "error", err)
				return items, nil
			}
			return items, fmt.Errorf("failed to fetch %s pulls: %w", query.name, err)
		}

		for _, pr := range pulls {
			if len(items) >= c.maxItems {
				break
			}
			if query.name == "merged" && pr.MergedAt == "" {
				continue
			}
			if seen[pr.HTMLURL] {
				continue
			}
			if !c.relevant(pr) {
				continue
			}

			best := c.bestTimestamp(pr)
			if !newerThan(best, since) {
				continue
			}

			seen[pr.HTMLURL] = true
			items = append(items, c.pullToItem(pr, query.name, best))
		}
	}

	c.logger.Debug("code host fetched", "source", c.def.ID, "new_items", len(items))
	return items, nil
}

func (c *codeHostAdapter) relevant(pr pullRequest) bool {
	author := pr.User.Login
	if botAuthors[author] || strings.HasSuffix(author, "[bot]") {
		return false
	}
	return substantiveTitle.MatchString(pr.Title)
}

func (c *codeHostAdapter) bestTimestamp(pr pullRequest) time.Time {
	created, _ := dateparse.ParseAny(pr.CreatedAt)
	var activity time.Time
	if pr.MergedAt != "" {
		activity, _ = dateparse.ParseAny(pr.MergedAt)
	} else if pr.UpdatedAt != "" {
		activity, _ = dateparse.ParseAny(pr.UpdatedAt)
	}
	return laterOf(created, activity).UTC()
}

func (c *codeHostAdapter) pullToItem(pr pullRequest, state string, best time.Time) types.RawItem {
	var text *string
	if body := strings.TrimSpace(pr.Body); body != "" {
		text = strPtr(body)
	}

	metadata := map[string]any{
		"author": pr.User.Login,
		"state":  state,
	}

	return newRawItem(c.def.ID, pr.HTMLURL, pr.Title, text, timePtr(best), metadata)
}
