package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"curator/internal/cache"
	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/pipeline"
	"curator/internal/sources"
	"curator/internal/storage"
	"curator/internal/summarize"
	"curator/internal/types"

	"github.com/google/uuid"
)

// stalenessWindow is how long a running record holds the pipeline
// before a later run may declare it abandoned.
const stalenessWindow = 45 * time.Minute

// Options carries the per-invocation CLI selections.
type Options struct {
	// Sources restricts the fetch phase to these catalog ids. Empty
	// means all active sources.
	Sources []string
	// MinIntervalS/MaxIntervalS select sources by their configured poll
	// cadence, so fast and slow sources can run on separate schedules.
	MinIntervalS int
	MaxIntervalS int
	DryRun       bool
}

// Orchestrator owns one pipeline invocation end to end: lock, fetch,
// process, release.
type Orchestrator struct {
	cfg         *config.Config
	catalog     *catalog.Catalog
	store       storage.StorageInterface
	summarizer  *summarize.Summarizer
	dedup       *pipeline.Deduplicator
	classifier  *pipeline.Classifier
	scorer      *pipeline.Scorer
	adapterDeps sources.Deps
	logger      *slog.Logger
	runnerID    string
}

func New(cfg *config.Config, cat *catalog.Catalog, store storage.StorageInterface, summarizer *summarize.Summarizer, logger *slog.Logger) *Orchestrator {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Orchestrator{
		cfg:        cfg,
		catalog:    cat,
		store:      store,
		summarizer: summarizer,
		dedup:      pipeline.NewDeduplicator(store.Cards()),
		classifier: pipeline.NewClassifier(cat),
		scorer:     pipeline.NewScorer(cat),
		adapterDeps: sources.Deps{
			Logger:           logger,
			PageCache:        cache.New[string](30 * time.Minute),
			CodeHostToken:    cfg.CodeHostToken,
			AggregatorAPIKey: cfg.AggregatorAPIKey,
		},
		logger:   logger,
		runnerID: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	}
}

// Execute runs the full pipeline once. A held lock is not an error:
// the invocation logs and yields so overlapping schedules stay safe.
func (o *Orchestrator) Execute(ctx context.Context, opts Options) error {
	run, acquired, err := o.acquireLock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		o.logger.Info("another run holds the pipeline lock, yielding")
		return nil
	}

	o.logger.Info("pipeline run started",
		"run_id", run.ID, "runner", o.runnerID, "dry_run", opts.DryRun)

	stats := &runStats{}

	runErr := o.fetchPhase(ctx, opts, stats)
	if runErr == nil {
		runErr = o.processPhase(ctx, opts, stats)
	}

	if err := o.release(ctx, run, stats, runErr); err != nil {
		return errors.Join(runErr, err)
	}

	o.logger.Info("pipeline run finished",
		"run_id", run.ID,
		"items_fetched", stats.itemsFetched,
		"cards_created", stats.cardsCreated,
		"cards_skipped", stats.cardsSkipped,
		"cards_failed", stats.cardsFailed)

	return runErr
}

// acquireLock implements the advisory lock over pipeline_runs: expire
// abandoned runs first, then yield to any live one, then insert our
// own record.
func (o *Orchestrator) acquireLock(ctx context.Context) (types.PipelineRun, bool, error) {
	cutoff := time.Now().UTC().Add(-stalenessWindow)

	expired, err := o.store.Runs().ExpireStale(ctx, cutoff)
	if err != nil {
		return types.PipelineRun{}, false, fmt.Errorf("failed to expire stale runs: %w", err)
	}
	if expired > 0 {
		o.logger.Warn("expired abandoned pipeline runs", "count", expired)
	}

	active, err := o.store.Runs().ActiveRunsSince(ctx, cutoff)
	if err != nil {
		return types.PipelineRun{}, false, fmt.Errorf("failed to check active runs: %w", err)
	}
	if len(active) > 0 {
		return types.PipelineRun{}, false, nil
	}

	run := types.PipelineRun{
		ID:        uuid.NewString(),
		Status:    types.RunStatusRunning,
		StartedAt: time.Now().UTC(),
		RunnerID:  o.runnerID,
	}
	if err := o.store.Runs().Insert(ctx, run); err != nil {
		return types.PipelineRun{}, false, fmt.Errorf("failed to insert run record: %w", err)
	}

	return run, true, nil
}

func (o *Orchestrator) release(ctx context.Context, run types.PipelineRun, stats *runStats, runErr error) error {
	run.Status = types.RunStatusCompleted
	if runErr != nil {
		run.Status = types.RunStatusFailed
		run.ErrorMessage = runErr.Error()
	}

	now := time.Now().UTC()
	run.EndedAt = &now
	run.ItemsFetched = stats.itemsFetched
	run.CardsCreated = stats.cardsCreated
	run.CardsSkipped = stats.cardsSkipped
	run.CardsFailed = stats.cardsFailed

	if err := o.store.Runs().Finish(ctx, run); err != nil {
		return fmt.Errorf("failed to finish run record: %w", err)
	}
	return nil
}

// fetchPhase polls the selected sources sequentially. Per-source
// failures are logged and skipped; only infrastructure failures abort
// the phase.
func (o *Orchestrator) fetchPhase(ctx context.Context, opts Options, stats *runStats) error {
	if err := o.syncRegistry(ctx); err != nil {
		return err
	}

	states, err := o.store.Registry().ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sources: %w", err)
	}

	for _, state := range states {
		if err := ctx.Err(); err != nil {
			return err
		}

		def, ok := o.catalog.Get(state.ID)
		if !ok {
			o.logger.Warn("active source missing from catalog", "source", state.ID)
			continue
		}
		if !selected(def, opts) {
			continue
		}

		o.fetchSource(ctx, def, state, stats)
	}

	return nil
}

func (o *Orchestrator) fetchSource(ctx context.Context, def catalog.SourceDefinition, state types.SourceState, stats *runStats) {
	adapter, err := sources.New(def, o.adapterDeps)
	if err != nil {
		o.logger.Error("failed to build adapter", "source", def.ID, "error", err)
		return
	}

	items, fetchErr := adapter.Fetch(ctx, state.LastPolledAt)
	if fetchErr != nil {
		o.logger.Error("source fetch failed", "source", def.ID, "error", fetchErr)
	}

	inserted := 0
	for _, item := range items {
		if err := o.store.RawItems().Insert(ctx, item); err != nil {
			o.logger.Error("failed to insert raw item",
				"source", def.ID, "url", item.CanonicalURL, "error", err)
			continue
		}
		inserted++
	}
	stats.addFetched(inserted)

	// last_polled_at only advances on a clean fetch so a failed source
	// re-covers the same window next run.
	if fetchErr == nil {
		if err := o.store.Registry().SetLastPolled(ctx, def.ID, time.Now().UTC()); err != nil {
			o.logger.Error("failed to advance poll cursor", "source", def.ID, "error", err)
		}
	}

	o.logger.Info("source polled", "source", def.ID, "items", inserted, "clean", fetchErr == nil)
}

func (o *Orchestrator) syncRegistry(ctx context.Context) error {
	defs := o.catalog.All()
	states := make([]types.SourceState, 0, len(defs))
	for _, def := range defs {
		states = append(states, types.SourceState{
			ID:              def.ID,
			APIType:         string(def.Adapter),
			IsActive:        true,
			DefaultCategory: def.DefaultCategory,
			PollIntervalS:   def.PollIntervalSeconds,
		})
	}

	if err := o.store.Registry().Sync(ctx, states); err != nil {
		return fmt.Errorf("failed to sync source registry: %w", err)
	}
	return nil
}

func selected(def catalog.SourceDefinition, opts Options) bool {
	if len(opts.Sources) > 0 {
		found := false
		for _, id := range opts.Sources {
			if id == def.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if opts.MinIntervalS > 0 && def.PollIntervalSeconds < opts.MinIntervalS {
		return false
	}
	if opts.MaxIntervalS > 0 && def.PollIntervalSeconds > opts.MaxIntervalS {
		return false
	}
	return true
}

// runStats aggregates counters across workers. Plain increments are
// not safe here; every mutation takes the mutex.
type runStats struct {
	mu           sync.Mutex
	itemsFetched int
	cardsCreated int
	cardsSkipped int
	cardsFailed  int
}

func (s *runStats) addFetched(n int) {
	s.mu.Lock()
	s.itemsFetched += n
	s.mu.Unlock()
}

func (s *runStats) incCreated() {
	s.mu.Lock()
	s.cardsCreated++
	s.mu.Unlock()
}

func (s *runStats) incSkipped() {
	s.mu.Lock()
	s.cardsSkipped++
	s.mu.Unlock()
}

func (s *runStats) incFailed() {
	s.mu.Lock()
	s.cardsFailed++
	s.mu.Unlock()
}
