package pipeline

import (
	"curator/internal/catalog"
)

// Classifier assigns a category purely from source identity. Content
// never influences the outcome; a research forum post about an exploit
// is still filed under research.
type Classifier struct {
	catalog *catalog.Catalog
}

func NewClassifier(cat *catalog.Catalog) *Classifier {
	return &Classifier{catalog: cat}
}

// Classify returns the category configured for the source, falling
// back to general for sources the catalog no longer knows.
func (c *Classifier) Classify(sourceID string) string {
	return c.catalog.CategoryFor(sourceID)
}

// Expedited reports whether cards in the category need to reach
// downstream consumers ahead of the regular cadence.
func (c *Classifier) Expedited(category string) bool {
	return catalog.ExpeditedCategory(category)
}
