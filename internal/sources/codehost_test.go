package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"curator/internal/catalog"
)

func TestCodeHostRelevance(t *testing.T) {
	def := catalog.SourceDefinition{ID: "geth-prs", BaseURL: "https://api.example.com/repos/x/y", Adapter: catalog.AdapterCodeHost}
	adapter := newCodeHostAdapter(def, Deps{Logger: testLogger()})

	pr := func(author, title string) pullRequest {
		var p pullRequest
		p.User.Login = author
		p.Title = title
		return p
	}

	tests := []struct {
		name string
		pr   pullRequest
		want bool
	}{
		{"substantive eip change", pr("alice", "implement EIP-7702 delegation"), true},
		{"release pull", pr("bob", "release v1.14 preparation"), true},
		{"ci housekeeping", pr("carol", "bump golangci-lint to latest"), false},
		{"known bot", pr("dependabot[bot]", "fix dependency pinning"), false},
		{"bot suffix", pr("somebot[bot]", "add EIP-1559 support"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := adapter.relevant(tc.pr); got != tc.want {
				t.Errorf("relevant(%q by %q) = %v, want %v", tc.pr.Title, tc.pr.User.Login, got, tc.want)
			}
		})
	}
}

func TestCodeHostFetchMergesAndDedupesQueries(t *testing.T) {
	merged := pullRequest{
		HTMLURL:   "https://github.com/x/y/pull/100",
		Title:     "implement EIP-4444 history expiry",
		Body:      "Expires ancient chain history.",
		CreatedAt: "2026-08-01T00:00:00Z",
		UpdatedAt: "2026-08-20T00:00:00Z",
		MergedAt:  "2026-08-20T00:00:00Z",
	}
	merged.User.Login = "alice"

	closedUnmerged := pullRequest{
		HTMLURL:   "https://github.com/x/y/pull/101",
		Title:     "add snapshot pruning toggle",
		CreatedAt: "2026-08-02T00:00:00Z",
		UpdatedAt: "2026-08-21T00:00:00Z",
	}
	closedUnmerged.User.Login = "bob"

	opened := pullRequest{
		HTMLURL:   "https://github.com/x/y/pull/102",
		Title:     "support prague fork timing",
		CreatedAt: "2026-08-25T00:00:00Z",
		UpdatedAt: "2026-08-25T00:00:00Z",
	}
	opened.User.Login = "carol"

	mux := http.NewServeMux()
	mux.HandleFunc("/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("state") {
		case "closed":
			_ = json.NewEncoder(w).Encode([]pullRequest{merged, closedUnmerged})
		case "open":
			// The merged pull shows up again in the second query and
			// must be deduplicated by URL.
			_ = json.NewEncoder(w).Encode([]pullRequest{opened, merged})
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	def := catalog.SourceDefinition{ID: "geth-prs", BaseURL: srv.URL, Adapter: catalog.AdapterCodeHost}
	adapter := newCodeHostAdapter(def, Deps{HTTPClient: srv.Client(), Logger: testLogger()})

	items, err := adapter.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want merged + opened without duplicates", len(items))
	}

	if items[0].CanonicalURL != merged.HTMLURL {
		t.Errorf("first item = %q, want the merged pull", items[0].CanonicalURL)
	}
	if items[0].RawMetadata["state"] != "merged" {
		t.Errorf("merged state = %v", items[0].RawMetadata["state"])
	}
	if items[1].CanonicalURL != opened.HTMLURL {
		t.Errorf("second item = %q, want the opened pull", items[1].CanonicalURL)
	}
}
