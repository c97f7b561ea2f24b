package pipeline

import (
	"fmt"
	"strings"

	"curator/internal/types"
)

// authorRule is one (predicate, extractor) pair in the precedence
// chain. Rules are data: adding a source with new metadata keys means
// appending a rule, not touching extraction logic.
type authorRule struct {
	name    string
	extract func(md map[string]any) (string, bool)
}

var authorRules = []authorRule{
	{
		// Forum posts carry both display name and handle; the richer
		// "Name (@handle)" form wins when both are present.
		name: "forum name+handle",
		extract: func(md map[string]any) (string, bool) {
			name := mdString(md, "author_name")
			handle := mdString(md, "author_username")
			if name != "" && handle != "" {
				return fmt.Sprintf("%s (@%s)", name, handle), true
			}
			return "", false
		},
	},
	{
		name: "forum handle",
		extract: func(md map[string]any) (string, bool) {
			if handle := mdString(md, "author_username"); handle != "" {
				return handle, true
			}
			return "", false
		},
	},
	{
		name: "generic author",
		extract: func(md map[string]any) (string, bool) {
			if author := mdString(md, "author"); author != "" {
				return author, true
			}
			return "", false
		},
	},
	{
		name: "source name",
		extract: func(md map[string]any) (string, bool) {
			if name := mdString(md, "source_name"); name != "" {
				return name, true
			}
			return "", false
		},
	},
}

type engagementRule struct {
	name    string
	extract func(md map[string]any) (*types.Engagement, bool)
}

var engagementRules = []engagementRule{
	{
		// Views alone do not fire this rule: forum payloads carry a
		// bare "views" key next to their own counters, and those must
		// reach the forum rule below.
		name: "likes/replies",
		extract: func(md map[string]any) (*types.Engagement, bool) {
			likes, okLikes := mdInt(md, "likes")
			replies, okReplies := mdInt(md, "replies")
			views, _ := mdInt(md, "views")
			if !okLikes && !okReplies {
				return nil, false
			}
			return &types.Engagement{Likes: likes, Replies: replies, Views: views}, true
		},
	},
	{
		name: "forum counters",
		extract: func(md map[string]any) (*types.Engagement, bool) {
			likes, okLikes := mdInt(md, "like_count")
			posts, okPosts := mdInt(md, "posts_count")
			views, okViews := mdInt(md, "views")
			if !okLikes && !okPosts && !okViews {
				return nil, false
			}
			replies := posts
			if replies > 0 {
				replies-- // the first post is the item itself
			}
			return &types.Engagement{Likes: likes, Replies: replies, Views: views}, true
		},
	},
	{
		name: "vote/comment counters",
		extract: func(md map[string]any) (*types.Engagement, bool) {
			score, okScore := mdInt(md, "score")
			comments, okComments := mdInt(md, "comment_count")
			if !okScore && !okComments {
				return nil, false
			}
			return &types.Engagement{Likes: score, Replies: comments}, true
		},
	},
}

// Normalize converts a raw fetched record into its canonical shape.
// It returns nil only when both title and body are empty; callers
// treat that as a benign skip. A zero published timestamp is not
// corrected here; the fetch-time fallback applies only when the
// adapter reported nothing at all.
func Normalize(raw types.RawItem) *types.NormalizedItem {
	title := strings.TrimSpace(raw.RawTitle)

	body := ""
	if raw.RawText != nil {
		body = strings.TrimSpace(*raw.RawText)
	}

	if title == "" && body == "" {
		return nil
	}

	fullText := body
	if fullText == "" {
		fullText = title
	}

	publishedAt := raw.FetchedAt
	if raw.PublishedAt != nil {
		publishedAt = *raw.PublishedAt
	}

	item := &types.NormalizedItem{
		SourceID:     raw.SourceID,
		CanonicalURL: raw.CanonicalURL,
		Title:        title,
		PublishedAt:  publishedAt,
		FullText:     fullText,
		RawMetadata:  raw.RawMetadata,
	}

	for _, rule := range authorRules {
		if author, ok := rule.extract(raw.RawMetadata); ok {
			item.Author = &author
			break
		}
	}

	for _, rule := range engagementRules {
		if engagement, ok := rule.extract(raw.RawMetadata); ok {
			item.Engagement = engagement
			break
		}
	}

	return item
}

func mdString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	if value, ok := md[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// mdInt tolerates the numeric types metadata passes through: adapters
// hand over ints, the JSON round trip through storage hands back
// float64.
func mdInt(md map[string]any, key string) (int, bool) {
	if md == nil {
		return 0, false
	}
	switch v := md[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
