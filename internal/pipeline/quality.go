package pipeline

import (
	"curator/internal/catalog"
	"curator/internal/types"
)

// SuppressThreshold is the quality floor. Scoring exactly at the
// threshold keeps a card visible.
const SuppressThreshold = 0.25

// Content-signal components. The fractions sum past 1.0 on a maximal
// card; the sum is capped.
const (
	signalHeadlineFull  = 0.35
	signalHeadlineShort = 0.15
	signalSummaryFull   = 0.40
	signalSummaryShort  = 0.15
	signalAuthor        = 0.15
	signalEngagement    = 0.10
)

// Scorer combines per-source trust with per-card content completeness.
// Trust dominates less than content: a weak source with a rich card
// still clears the floor.
type Scorer struct {
	catalog *catalog.Catalog
}

func NewScorer(cat *catalog.Catalog) *Scorer {
	return &Scorer{catalog: cat}
}

// Score returns 0.4 * source trust + 0.6 * content signal.
func (s *Scorer) Score(sourceID string, card types.Card) float64 {
	return 0.4*s.catalog.TrustWeight(sourceID) + 0.6*contentSignal(card)
}

// ShouldAutoSuppress is a strict less-than comparison.
func ShouldAutoSuppress(score float64) bool {
	return score < SuppressThreshold
}

func contentSignal(card types.Card) float64 {
	signal := 0.0

	switch {
	case len(card.Headline) > 10:
		signal += signalHeadlineFull
	case len(card.Headline) > 0:
		signal += signalHeadlineShort
	}

	switch {
	case len(card.Summary) > 40:
		signal += signalSummaryFull
	case len(card.Summary) > 0:
		signal += signalSummaryShort
	}

	if card.Author != nil && *card.Author != "" {
		signal += signalAuthor
	}
	if card.Engagement.Any() {
		signal += signalEngagement
	}

	if signal > 1.0 {
		signal = 1.0
	}
	return signal
}
