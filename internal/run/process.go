package run

import (
	"context"
	"fmt"
	"sync"

	"curator/internal/pipeline"
	"curator/internal/types"
	"curator/internal/utils"

	"github.com/google/uuid"
)

// processPhase drains one batch of unprocessed raw items through a
// bounded worker pool. Items beyond the batch stay queued for the next
// run.
func (o *Orchestrator) processPhase(ctx context.Context, opts Options, stats *runStats) error {
	items, err := o.store.RawItems().ListUnprocessed(ctx, o.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list unprocessed items: %w", err)
	}

	total, err := o.store.RawItems().CountUnprocessed(ctx)
	if err != nil {
		return fmt.Errorf("failed to count unprocessed items: %w", err)
	}
	if deferred := total - len(items); deferred > 0 {
		o.logger.Info("deferring items beyond batch", "batch", len(items), "deferred", deferred)
	}

	sem := make(chan struct{}, o.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(item types.RawItem) {
			defer wg.Done()
			defer func() { <-sem }()
			o.processItem(ctx, item, opts, stats)
		}(item)
	}

	wg.Wait()
	return ctx.Err()
}

// processItem maps one raw item to its terminal outcome. Skips and
// successes mark the item processed; failures leave it queued for a
// later run. Dry-run skips also stay queued so a real run can pick
// them up.
func (o *Orchestrator) processItem(ctx context.Context, raw types.RawItem, opts Options, stats *runStats) {
	err := o.buildCard(ctx, raw, opts)

	switch {
	case err == nil:
		stats.incCreated()
		o.markProcessed(ctx, raw.ID)

	case types.IsSkip(err):
		stats.incSkipped()
		reason := types.SkipReasonOf(err)
		o.logger.Debug("item skipped", "item_id", raw.ID, "source", raw.SourceID, "reason", reason)
		if reason != types.SkipDryRun {
			o.markProcessed(ctx, raw.ID)
		}

	default:
		stats.incFailed()
		o.logger.Error("item processing failed",
			"item_id", raw.ID, "source", raw.SourceID, "url", raw.CanonicalURL, "error", err)
	}
}

// buildCard is the per-item pipeline: normalize, dedup, classify,
// summarize, score, persist, enqueue. Benign outcomes surface as
// SkipError; everything else is a failure.
func (o *Orchestrator) buildCard(ctx context.Context, raw types.RawItem, opts Options) error {
	item := pipeline.Normalize(raw)
	if item == nil {
		return types.NewSkipError(types.SkipEmpty, raw.ID, "no title or body")
	}

	dup, err := o.dedup.IsDuplicate(ctx, item.CanonicalURL, item.Title, item.PublishedAt)
	if err != nil {
		return err
	}
	if dup {
		return types.NewSkipError(types.SkipDuplicate, raw.ID, item.CanonicalURL)
	}

	category := o.classifier.Classify(item.SourceID)

	if opts.DryRun {
		return types.NewSkipError(types.SkipDryRun, raw.ID, "would create card in "+category)
	}

	summary, err := o.summarizer.Summarize(ctx, item.Title, item.FullText)
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}

	headline, err := o.summarizer.Headline(ctx, item.Title, summary)
	if err != nil {
		return fmt.Errorf("failed to generate headline: %w", err)
	}

	card := types.Card{
		ID:              uuid.NewString(),
		SourceID:        item.SourceID,
		CanonicalURL:    item.CanonicalURL,
		URLHash:         utils.URLHash(item.CanonicalURL),
		Category:        category,
		Headline:        headline,
		Summary:         summary,
		Author:          item.Author,
		PublishedAt:     item.PublishedAt,
		Engagement:      item.Engagement,
		PipelineVersion: types.PipelineVersion,
	}
	card.QualityScore = o.scorer.Score(item.SourceID, card)

	if pipeline.ShouldAutoSuppress(card.QualityScore) {
		return types.NewSkipError(types.SkipSuppressed, raw.ID,
			fmt.Sprintf("quality %.2f below threshold", card.QualityScore))
	}

	inserted, err := o.store.Cards().Insert(ctx, card)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}
	if !inserted {
		// Another worker persisted the same canonical URL first.
		return types.NewSkipError(types.SkipDuplicate, raw.ID, "lost insert race")
	}

	if o.classifier.Expedited(category) {
		if err := o.store.Queue().Enqueue(ctx, card.ID, category); err != nil {
			return fmt.Errorf("failed to enqueue high-priority card: %w", err)
		}
	}

	return nil
}

func (o *Orchestrator) markProcessed(ctx context.Context, id string) {
	if err := o.store.RawItems().MarkProcessed(ctx, id); err != nil {
		o.logger.Error("failed to mark item processed", "item_id", id, "error", err)
	}
}
