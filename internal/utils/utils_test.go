package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestURLHashDeterministic(t *testing.T) {
	a := URLHash("https://example.com/t/topic/1")
	b := URLHash("https://example.com/t/topic/1")
	if a != b {
		t.Error("same URL hashed to different values")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}

	if URLHash("https://example.com/t/topic/2") == a {
		t.Error("different URLs hashed to the same value")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags removed", "<p>Hello <strong>world</strong></p>", "Hello world"},
		{"entities unescaped", "fees &amp; rewards &gt; costs", "fees & rewards > costs"},
		{"scripts dropped", `<script>alert("x")</script>visible`, "visible"},
		{"whitespace trimmed", "  \n  text  \n ", "text"},
		{"plain text unchanged", "already plain", "already plain"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripHTML(tc.in); got != tc.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFetchArticleTextRejectsBadURLs(t *testing.T) {
	for _, u := range []string{"", "not-a-url", "ftp://example.com/file"} {
		if _, err := FetchArticleText(context.Background(), u); err == nil {
			t.Errorf("FetchArticleText(%q) succeeded, want error", u)
		}
	}
}

func TestFetchArticleTextHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>article body</p></body></html>")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := FetchArticleText(ctx, srv.URL); err == nil {
		t.Error("FetchArticleText succeeded with a canceled context, want error")
	}
}
