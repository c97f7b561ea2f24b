package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeCatalog(t, `
[[sources]]
id = "minimal"
base_url = "https://example.com"
adapter = "feed"
`)

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	def, ok := cat.Get("minimal")
	if !ok {
		t.Fatal("Get(minimal) missed")
	}
	if def.PollIntervalSeconds != 3600 {
		t.Errorf("PollIntervalSeconds = %d, want default 3600", def.PollIntervalSeconds)
	}
	if def.DefaultCategory != CategoryGeneral {
		t.Errorf("DefaultCategory = %q, want general", def.DefaultCategory)
	}
	if def.TrustWeight != DefaultTrustWeight {
		t.Errorf("TrustWeight = %v, want default", def.TrustWeight)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id", `
[[sources]]
base_url = "https://example.com"
adapter = "feed"
`},
		{"unknown adapter", `
[[sources]]
id = "x"
base_url = "https://example.com"
adapter = "telepathy"
`},
		{"missing base_url", `
[[sources]]
id = "x"
adapter = "feed"
`},
		{"duplicate ids", `
[[sources]]
id = "x"
base_url = "https://a.example.com"
adapter = "feed"

[[sources]]
id = "x"
base_url = "https://b.example.com"
adapter = "forum"
`},
		{"empty file", ``},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeCatalog(t, tc.data)); err == nil {
				t.Error("Load succeeded, want validation error")
			}
		})
	}
}

func TestLoadFallsBackToSeed(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(cat.All()) == 0 {
		t.Fatal("seed catalog is empty")
	}
	if _, ok := cat.Get("ethresearch"); !ok {
		t.Error("seed catalog missing ethresearch")
	}
}

func TestCategoryAndWeightFallbacks(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cat.CategoryFor("no-such-source"); got != CategoryGeneral {
		t.Errorf("CategoryFor(unknown) = %q, want general", got)
	}
	if got := cat.TrustWeight("no-such-source"); got != DefaultTrustWeight {
		t.Errorf("TrustWeight(unknown) = %v, want default", got)
	}
}

func TestExpeditedCategory(t *testing.T) {
	tests := []struct {
		category string
		want     bool
	}{
		{CategorySecurity, true},
		{CategoryClientRelease, true},
		{CategoryResearch, false},
		{CategoryDefi, false},
		{CategoryCommunity, false},
		{CategoryGeneral, false},
	}

	for _, tc := range tests {
		if got := ExpeditedCategory(tc.category); got != tc.want {
			t.Errorf("ExpeditedCategory(%q) = %v, want %v", tc.category, got, tc.want)
		}
	}
}
