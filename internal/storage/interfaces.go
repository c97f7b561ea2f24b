package storage

import (
	"context"
	"time"

	"curator/internal/types"
)

// StorageInterface bundles the per-collection stores the pipeline
// depends on. The core never sees SQL, only these contracts.
type StorageInterface interface {
	RawItems() RawItemStore
	Cards() CardStore
	Registry() RegistryStore
	Runs() RunStore
	Queue() QueueStore
	Close() error
}

type RawItemStore interface {
	Insert(ctx context.Context, item types.RawItem) error
	ListUnprocessed(ctx context.Context, limit int) ([]types.RawItem, error)
	CountUnprocessed(ctx context.Context) (int, error)
	MarkProcessed(ctx context.Context, id string) error
}

type CardStore interface {
	// Insert persists a card, returning false when another writer won
	// the url_hash race. A lost race is a benign skip, not an error.
	Insert(ctx context.Context, card types.Card) (bool, error)
	ExistsByURLHash(ctx context.Context, urlHash string) (bool, error)
	ListPublishedBetween(ctx context.Context, from, to time.Time) ([]types.Card, error)
}

type RegistryStore interface {
	// Sync inserts registry rows for catalog entries that do not exist
	// yet; existing rows keep their polling state.
	Sync(ctx context.Context, states []types.SourceState) error
	ListActive(ctx context.Context) ([]types.SourceState, error)
	SetLastPolled(ctx context.Context, id string, t time.Time) error
}

type RunStore interface {
	ActiveRunsSince(ctx context.Context, cutoff time.Time) ([]types.PipelineRun, error)
	// ExpireStale flips running records started before cutoff to
	// failed, returning how many were cleaned up.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
	Insert(ctx context.Context, run types.PipelineRun) error
	Finish(ctx context.Context, run types.PipelineRun) error
}

type QueueStore interface {
	Enqueue(ctx context.Context, cardID, category string) error
}
