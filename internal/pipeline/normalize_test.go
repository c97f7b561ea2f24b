package pipeline

import (
	"testing"
	"time"

	"curator/internal/types"
)

func rawItem(title string, text *string, metadata map[string]any) types.RawItem {
	return types.RawItem{
		ID:           "item-1",
		SourceID:     "ethresearch",
		CanonicalURL: "https://example.com/t/topic/1",
		RawTitle:     title,
		RawText:      text,
		RawMetadata:  metadata,
		FetchedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func text(s string) *string { return &s }

func TestNormalizeRejectsEmptyItems(t *testing.T) {
	if got := Normalize(rawItem("", nil, nil)); got != nil {
		t.Errorf("Normalize(empty) = %+v, want nil", got)
	}
	if got := Normalize(rawItem("  ", text(" \n "), nil)); got != nil {
		t.Errorf("Normalize(whitespace) = %+v, want nil", got)
	}
}

func TestNormalizeTitleOnlyItem(t *testing.T) {
	item := Normalize(rawItem("EIP-4844 rollout update", nil, nil))
	if item == nil {
		t.Fatal("Normalize returned nil for title-only item")
	}
	if item.FullText != "EIP-4844 rollout update" {
		t.Errorf("FullText = %q, want title fallback", item.FullText)
	}
}

func TestNormalizeAuthorPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     string
	}{
		{
			name: "name and handle combine",
			metadata: map[string]any{
				"author_name":     "Vitalik Buterin",
				"author_username": "vbuterin",
				"author":          "ignored",
			},
			want: "Vitalik Buterin (@vbuterin)",
		},
		{
			name:     "handle alone",
			metadata: map[string]any{"author_username": "vbuterin"},
			want:     "vbuterin",
		},
		{
			name:     "generic author key",
			metadata: map[string]any{"author": "someuser"},
			want:     "someuser",
		},
		{
			name:     "source name last",
			metadata: map[string]any{"source_name": "Lido"},
			want:     "Lido",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := Normalize(rawItem("a title", text("a body"), tc.metadata))
			if item == nil {
				t.Fatal("Normalize returned nil")
			}
			if item.Author == nil || *item.Author != tc.want {
				t.Errorf("Author = %v, want %q", item.Author, tc.want)
			}
		})
	}
}

func TestNormalizeNoAuthorStaysNil(t *testing.T) {
	item := Normalize(rawItem("a title", text("a body"), map[string]any{"views": 10}))
	if item == nil {
		t.Fatal("Normalize returned nil")
	}
	if item.Author != nil {
		t.Errorf("Author = %q, want nil", *item.Author)
	}
}

func TestNormalizeEngagement(t *testing.T) {
	// Counters survive a JSON round trip as float64.
	item := Normalize(rawItem("a title", text("a body"), map[string]any{
		"like_count":  float64(7),
		"posts_count": float64(4),
	}))
	if item == nil {
		t.Fatal("Normalize returned nil")
	}
	if item.Engagement == nil {
		t.Fatal("Engagement = nil, want counters")
	}
	if item.Engagement.Likes != 7 {
		t.Errorf("Likes = %d, want 7", item.Engagement.Likes)
	}
	if item.Engagement.Replies != 3 {
		t.Errorf("Replies = %d, want 3 (posts minus the topic itself)", item.Engagement.Replies)
	}

	// The full forum payload shape: a bare views key next to the forum
	// counters must not divert extraction to the generic rule.
	item = Normalize(rawItem("a title", text("a body"), map[string]any{
		"like_count":  float64(7),
		"posts_count": float64(4),
		"views":       float64(100),
	}))
	if item.Engagement == nil || item.Engagement.Likes != 7 || item.Engagement.Replies != 3 || item.Engagement.Views != 100 {
		t.Errorf("Engagement = %+v, want likes 7 replies 3 views 100", item.Engagement)
	}

	item = Normalize(rawItem("a title", text("a body"), map[string]any{
		"score":         42,
		"comment_count": 11,
	}))
	if item.Engagement == nil || item.Engagement.Likes != 42 || item.Engagement.Replies != 11 {
		t.Errorf("Engagement = %+v, want likes 42 replies 11", item.Engagement)
	}

	item = Normalize(rawItem("a title", text("a body"), nil))
	if item.Engagement != nil {
		t.Errorf("Engagement = %+v, want nil when source reports nothing", item.Engagement)
	}
}

func TestNormalizePublishedAtFallback(t *testing.T) {
	raw := rawItem("a title", text("a body"), nil)
	item := Normalize(raw)
	if !item.PublishedAt.Equal(raw.FetchedAt) {
		t.Errorf("PublishedAt = %v, want fetch time fallback %v", item.PublishedAt, raw.FetchedAt)
	}

	published := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	raw.PublishedAt = &published
	item = Normalize(raw)
	if !item.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt = %v, want %v", item.PublishedAt, published)
	}
}
