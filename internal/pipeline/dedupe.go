package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"curator/internal/storage"
	"curator/internal/utils"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

const (
	// fuzzyWindow bounds how far back near-duplicate detection looks.
	// The same story republished a day later is a follow-up, not a dupe.
	fuzzyWindow = 6 * time.Hour

	// similarityThreshold is the Jaro-Winkler score above which two
	// titles count as the same story.
	similarityThreshold = 0.92
)

// Deduplicator decides whether an incoming item is already represented
// by a persisted card. The exact tier is authoritative; the fuzzy tier
// is advisory and errs toward letting items through.
type Deduplicator struct {
	cards  storage.CardStore
	metric *metrics.JaroWinkler
}

func NewDeduplicator(cards storage.CardStore) *Deduplicator {
	return &Deduplicator{
		cards:  cards,
		metric: metrics.NewJaroWinkler(),
	}
}

// IsDuplicate runs both tiers in order. An exact canonical-URL hash hit
// short-circuits without any title comparison. Store errors propagate;
// the caller must not guess in either direction when storage is down.
func (d *Deduplicator) IsDuplicate(ctx context.Context, canonicalURL, title string, publishedAt time.Time) (bool, error) {
	exists, err := d.cards.ExistsByURLHash(ctx, utils.URLHash(canonicalURL))
	if err != nil {
		return false, fmt.Errorf("failed to check url hash: %w", err)
	}
	if exists {
		return true, nil
	}

	folded := foldTitle(title)
	if folded == "" {
		// Nothing to compare against; the exact tier already said no.
		return false, nil
	}

	recent, err := d.cards.ListPublishedBetween(ctx, publishedAt.Add(-fuzzyWindow), publishedAt)
	if err != nil {
		return false, fmt.Errorf("failed to list recent cards: %w", err)
	}

	for _, card := range recent {
		if strutil.Similarity(folded, foldTitle(card.Headline), d.metric) >= similarityThreshold {
			return true, nil
		}
	}
	return false, nil
}

// foldTitle normalizes a title for comparison: case folding plus
// width folding so full-width variants match their ASCII forms.
func foldTitle(title string) string {
	return cases.Fold().String(width.Fold.String(strings.TrimSpace(title)))
}
