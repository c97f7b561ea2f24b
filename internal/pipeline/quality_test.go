package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"curator/internal/catalog"
	"curator/internal/types"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	data := `
[[sources]]
id = "trusted"
base_url = "https://trusted.example.com"
adapter = "feed"
default_category = "research"
trust_weight = 0.9

[[sources]]
id = "weak"
base_url = "https://weak.example.com"
adapter = "feed"
default_category = "community"
trust_weight = 0.1

[[sources]]
id = "alerts"
base_url = "https://alerts.example.com"
adapter = "feed"
default_category = "security"
trust_weight = 0.8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	cat, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return cat
}

func author(name string) *string { return &name }

func TestScoreFormula(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	// Full content signal: 0.35 + 0.40 + 0.15 + 0.10 = 1.0.
	full := types.Card{
		Headline:   "Validators adopt new client release",
		Summary:    "A long enough summary that clears the forty character class boundary easily.",
		Author:     author("alice"),
		Engagement: &types.Engagement{Likes: 3},
	}

	got := scorer.Score("trusted", full)
	want := 0.4*0.9 + 0.6*1.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Score(trusted, full) = %v, want %v", got, want)
	}

	// Unknown sources fall back to the default trust weight.
	got = scorer.Score("nobody", full)
	want = 0.4*catalog.DefaultTrustWeight + 0.6*1.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Score(nobody, full) = %v, want %v", got, want)
	}
}

func TestScoreMonotonicInSignals(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	base := types.Card{Headline: "short", Summary: "tiny"}

	upgrades := []struct {
		name    string
		upgrade func(types.Card) types.Card
	}{
		{"longer headline", func(c types.Card) types.Card {
			c.Headline = "a headline past ten characters"
			return c
		}},
		{"longer summary", func(c types.Card) types.Card {
			c.Summary = "a summary long enough to pass the forty character boundary"
			return c
		}},
		{"author present", func(c types.Card) types.Card {
			c.Author = author("bob")
			return c
		}},
		{"engagement present", func(c types.Card) types.Card {
			c.Engagement = &types.Engagement{Replies: 1}
			return c
		}},
	}

	for _, tc := range upgrades {
		before := scorer.Score("weak", base)
		after := scorer.Score("weak", tc.upgrade(base))
		if after < before {
			t.Errorf("%s: score decreased from %v to %v", tc.name, before, after)
		}
	}
}

func TestShouldAutoSuppress(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{0.0, true},
		{0.249999, true},
		{0.25, false}, // threshold itself survives
		{0.26, false},
		{1.0, false},
	}

	for _, tc := range tests {
		if got := ShouldAutoSuppress(tc.score); got != tc.want {
			t.Errorf("ShouldAutoSuppress(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestContentSignalCapped(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	maxed := types.Card{
		Headline:   "a headline comfortably past the boundary",
		Summary:    "a summary comfortably past the forty character class boundary as well",
		Author:     author("carol"),
		Engagement: &types.Engagement{Likes: 1, Replies: 1, Views: 1},
	}

	if got := scorer.Score("trusted", maxed); got > 1.0 {
		t.Errorf("Score = %v, want <= 1.0", got)
	}
}
