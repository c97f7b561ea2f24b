package catalog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// AdapterType selects which fetch adapter family serves a source.
type AdapterType string

const (
	AdapterForum      AdapterType = "forum"
	AdapterFeed       AdapterType = "feed"
	AdapterMetrics    AdapterType = "rest-metrics"
	AdapterAggregator AdapterType = "aggregator"
	AdapterHTMLScrape AdapterType = "html-scrape"
	AdapterCodeHost   AdapterType = "code-host"
)

func (a AdapterType) Valid() bool {
	switch a {
	case AdapterForum, AdapterFeed, AdapterMetrics, AdapterAggregator, AdapterHTMLScrape, AdapterCodeHost:
		return true
	}
	return false
}

// Content categories. Security incidents and client releases are the
// expedited pair that also lands on the high-priority queue.
const (
	CategoryResearch      = "research"
	CategoryDefi          = "defi"
	CategorySecurity      = "security"
	CategoryClientRelease = "client-release"
	CategoryCommunity     = "community"
	CategoryGeneral       = "general"
)

// SourceDefinition is an immutable catalog entry. Definitions are
// seeded at deploy time; the mutable polling state lives in the
// source_registry table.
type SourceDefinition struct {
	ID                  string      `toml:"id"`
	BaseURL             string      `toml:"base_url"`
	Adapter             AdapterType `toml:"adapter"`
	PollIntervalSeconds int         `toml:"poll_interval_seconds"`
	DefaultCategory     string      `toml:"default_category"`
	TrustWeight         float64     `toml:"trust_weight"`
}

type Catalog struct {
	defs []SourceDefinition
	byID map[string]SourceDefinition
}

type catalogFile struct {
	Sources []SourceDefinition `toml:"sources"`
}

// Load reads a TOML catalog file, or falls back to the compiled-in
// seed registry when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return newCatalog(seedSources)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("catalog %s defines no sources", path)
	}

	return newCatalog(file.Sources)
}

func newCatalog(defs []SourceDefinition) (*Catalog, error) {
	byID := make(map[string]SourceDefinition, len(defs))
	out := make([]SourceDefinition, 0, len(defs))

	for i := range defs {
		def := defs[i]
		if def.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if _, dup := byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", def.ID)
		}
		if !def.Adapter.Valid() {
			return nil, fmt.Errorf("catalog entry %q has unknown adapter type %q", def.ID, def.Adapter)
		}
		if def.BaseURL == "" {
			return nil, fmt.Errorf("catalog entry %q has no base_url", def.ID)
		}
		if def.PollIntervalSeconds <= 0 {
			def.PollIntervalSeconds = 3600
		}
		if def.DefaultCategory == "" {
			def.DefaultCategory = CategoryGeneral
		}
		if def.TrustWeight <= 0 || def.TrustWeight > 1 {
			def.TrustWeight = DefaultTrustWeight
		}
		byID[def.ID] = def
		out = append(out, def)
	}

	return &Catalog{defs: out, byID: byID}, nil
}

// All returns the definitions in catalog order.
func (c *Catalog) All() []SourceDefinition {
	return c.defs
}

// Get looks up one definition by id.
func (c *Catalog) Get(id string) (SourceDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// DefaultTrustWeight applies to sources missing from the weight table.
const DefaultTrustWeight = 0.5

// TrustWeight returns the per-source trust weight in [0,1].
func (c *Catalog) TrustWeight(sourceID string) float64 {
	if def, ok := c.byID[sourceID]; ok {
		return def.TrustWeight
	}
	return DefaultTrustWeight
}

// CategoryFor maps a source id to its content category, falling back
// to the general bucket for unknown sources.
func (c *Catalog) CategoryFor(sourceID string) string {
	if def, ok := c.byID[sourceID]; ok {
		return def.DefaultCategory
	}
	return CategoryGeneral
}

// ExpeditedCategory reports whether cards in the category belong on
// the high-priority queue.
func ExpeditedCategory(category string) bool {
	return category == CategorySecurity || category == CategoryClientRelease
}
