package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"curator/internal/catalog"
	"curator/internal/types"
	"curator/internal/utils"
)

// forumAdapter polls a Discourse-compatible forum API. Topics are
// relevant when the later of created_at and last_posted_at is after
// the cutoff, so a reopened old thread still surfaces.
type forumAdapter struct {
	def        catalog.SourceDefinition
	httpClient *http.Client
	logger     *slog.Logger
	maxPages   int
}

type forumTopicList struct {
	TopicList struct {
		Topics []forumTopic `json:"topics"`
	} `json:"topic_list"`
}

type forumTopic struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	CreatedAt    string `json:"created_at"`
	LastPostedAt string `json:"last_posted_at"`
	PostsCount   int    `json:"posts_count"`
	LikeCount    int    `json:"like_count"`
	Views        int    `json:"views"`
}

type forumTopicDetail struct {
	PostStream struct {
		Posts []struct {
			Cooked   string `json:"cooked"`
			Username string `json:"username"`
			Name     string `json:"name"`
		} `json:"posts"`
	} `json:"post_stream"`
}

func newForumAdapter(def catalog.SourceDefinition, deps Deps) *forumAdapter {
	return &forumAdapter{
		def:        def,
		httpClient: deps.client(),
		logger:     deps.logger(),
		maxPages:   3,
	}
}

func (f *forumAdapter) Name() string { return f.def.ID }

func (f *forumAdapter) Fetch(ctx context.Context, since *time.Time) ([]types.RawItem, error) {
	var items []types.RawItem

	for page := 0; page < f.maxPages; page++ {
		if page > 0 {
			if err := politePause(ctx); err != nil {
				return items, err
			}
		}

		listURL := fmt.Sprintf("%s/latest.json?page=%d", f.def.BaseURL, page)
		var list forumTopicList
		if err := getJSON(ctx, f.httpClient, listURL, nil, &list); err != nil {
			if isSoftFailure(err) {
				f.logger.Warn("forum source unavailable, returning partial results",
					"source", f.def.ID, "page", page, "error", err)
				return items, nil
			}
			return items, fmt.Errorf("failed to fetch topic list: %w", err)
		}

		newOnPage := 0
		for _, topic := range list.TopicList.Topics {
			best := f.bestTimestamp(topic)
			if !newerThan(best, since) {
				continue
			}
			newOnPage++

			item, err := f.topicToItem(ctx, topic, best)
			if err != nil {
				f.logger.Warn("skipping forum topic, detail fetch failed",
					"source", f.def.ID, "topic_id", topic.ID, "error", err)
				continue
			}
			items = append(items, item)
		}

		f.logger.Debug("forum page fetched", "source", f.def.ID, "page", page, "new_items", newOnPage)
		if newOnPage == 0 {
			break
		}
	}

	return items, nil
}

// bestTimestamp picks the later of creation and last activity.
func (f *forumAdapter) bestTimestamp(topic forumTopic) time.Time {
	created, _ := time.Parse(time.RFC3339, topic.CreatedAt)
	lastPosted, _ := time.Parse(time.RFC3339, topic.LastPostedAt)
	return laterOf(created, lastPosted)
}

func (f *forumAdapter) topicToItem(ctx context.Context, topic forumTopic, best time.Time) (types.RawItem, error) {
	detailURL := fmt.Sprintf("%s/t/%d.json", f.def.BaseURL, topic.ID)
	var detail forumTopicDetail
	if err := getJSON(ctx, f.httpClient, detailURL, nil, &detail); err != nil {
		return types.RawItem{}, err
	}
	if len(detail.PostStream.Posts) == 0 {
		return types.RawItem{}, fmt.Errorf("topic %d has no posts", topic.ID)
	}

	first := detail.PostStream.Posts[0]
	body := utils.StripHTML(first.Cooked)
	canonical := fmt.Sprintf("%s/t/%s/%d", f.def.BaseURL, topic.Slug, topic.ID)

	metadata := map[string]any{
		"author_name":     first.Name,
		"author_username": first.Username,
		"like_count":      topic.LikeCount,
		"posts_count":     topic.PostsCount,
		"views":           topic.Views,
		"created_at":      topic.CreatedAt,
		"last_posted_at":  topic.LastPostedAt,
	}

	return newRawItem(f.def.ID, canonical, topic.Title, strPtr(body), timePtr(best), metadata), nil
}
