package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curator/internal/catalog"
)

func forumServer(t *testing.T, topics []forumTopic, details map[int64]forumTopicDetail) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/latest.json", func(w http.ResponseWriter, r *http.Request) {
		var list forumTopicList
		if r.URL.Query().Get("page") == "0" {
			list.TopicList.Topics = topics
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	})
	for id, detail := range details {
		detail := detail
		mux.HandleFunc(fmt.Sprintf("/t/%d.json", id), func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(detail)
		})
	}
	return httptest.NewServer(mux)
}

func forumDetail(name, username, cooked string) forumTopicDetail {
	var detail forumTopicDetail
	detail.PostStream.Posts = []struct {
		Cooked   string `json:"cooked"`
		Username string `json:"username"`
		Name     string `json:"name"`
	}{
		{Cooked: cooked, Username: username, Name: name},
	}
	return detail
}

func TestForumIncludesReactivatedTopics(t *testing.T) {
	// The cutoff sits between the old topic's creation and its last
	// activity: creation alone would exclude it, activity pulls it in.
	since := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	topics := []forumTopic{
		{
			ID: 12, Title: "Stateless clients revisited", Slug: "stateless-clients-revisited",
			CreatedAt:    "2026-06-01T10:00:00Z",
			LastPostedAt: "2026-08-25T10:00:00Z",
			PostsCount:   14, LikeCount: 30, Views: 900,
		},
		{
			ID: 13, Title: "Long-settled discussion", Slug: "long-settled-discussion",
			CreatedAt:    "2026-06-01T10:00:00Z",
			LastPostedAt: "2026-06-02T10:00:00Z",
		},
	}
	details := map[int64]forumTopicDetail{
		12: forumDetail("Alice", "alice", "<p>Revisiting <strong>stateless</strong> client designs.</p>"),
	}

	srv := forumServer(t, topics, details)
	defer srv.Close()

	def := catalog.SourceDefinition{ID: "ethresearch", BaseURL: srv.URL, Adapter: catalog.AdapterForum}
	adapter := newForumAdapter(def, Deps{HTTPClient: srv.Client(), Logger: testLogger()})

	items, err := adapter.Fetch(context.Background(), &since)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want only the reactivated topic", len(items))
	}

	item := items[0]
	if item.RawTitle != "Stateless clients revisited" {
		t.Errorf("RawTitle = %q", item.RawTitle)
	}
	if want := srv.URL + "/t/stateless-clients-revisited/12"; item.CanonicalURL != want {
		t.Errorf("CanonicalURL = %q, want %q", item.CanonicalURL, want)
	}
	if item.RawText == nil || *item.RawText != "Revisiting stateless client designs." {
		t.Errorf("RawText = %v, want stripped first post", item.RawText)
	}
	if item.RawMetadata["author_username"] != "alice" {
		t.Errorf("author_username = %v", item.RawMetadata["author_username"])
	}
	if item.PublishedAt == nil || !item.PublishedAt.Equal(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v, want last activity time", item.PublishedAt)
	}
}

func TestForumSkipsTopicWhenDetailFetchFails(t *testing.T) {
	topics := []forumTopic{
		{ID: 99, Title: "Detail endpoint is broken", Slug: "broken", CreatedAt: "2026-08-25T10:00:00Z", LastPostedAt: "2026-08-25T10:00:00Z"},
	}

	// No detail handler registered: the per-topic fetch 404s.
	srv := forumServer(t, topics, nil)
	defer srv.Close()

	def := catalog.SourceDefinition{ID: "ethresearch", BaseURL: srv.URL, Adapter: catalog.AdapterForum}
	adapter := newForumAdapter(def, Deps{HTTPClient: srv.Client(), Logger: testLogger()})

	items, err := adapter.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want the broken topic skipped", len(items))
	}
}

func TestForumSoftFailureReturnsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	def := catalog.SourceDefinition{ID: "ethresearch", BaseURL: srv.URL, Adapter: catalog.AdapterForum}
	adapter := newForumAdapter(def, Deps{HTTPClient: srv.Client(), Logger: testLogger()})

	items, err := adapter.Fetch(context.Background(), nil)
	if err != nil {
		t.Errorf("Fetch returned error on rate limit: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want none", len(items))
	}
}
