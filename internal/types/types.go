package types

import (
	"time"
)

// PipelineVersion is stamped onto every card created by this build of
// the pipeline so regenerated summaries can be told apart later.
const PipelineVersion = "2"

// RawItem is one fetched record as returned by an adapter. Raw items
// are retained forever for replay; the core only ever flips Processed.
type RawItem struct {
	ID           string
	SourceID     string
	CanonicalURL string
	RawTitle     string
	RawText      *string
	RawMetadata  map[string]any
	PublishedAt  *time.Time
	FetchedAt    time.Time
	Processed    bool
}

// Engagement carries whichever counters a source exposes. A nil
// *Engagement means the source reported nothing, which is not the same
// as zero.
type Engagement struct {
	Likes   int
	Replies int
	Views   int
}

// Any reports whether at least one counter is nonzero.
func (e *Engagement) Any() bool {
	if e == nil {
		return false
	}
	return e.Likes > 0 || e.Replies > 0 || e.Views > 0
}

// NormalizedItem is the canonical shape an item takes inside a single
// processing attempt. It is never persisted.
type NormalizedItem struct {
	SourceID     string
	CanonicalURL string
	Title        string
	Author       *string
	PublishedAt  time.Time
	FullText     string
	Engagement   *Engagement
	RawMetadata  map[string]any
}

// Card is the persisted curated unit. The moderation fields at the
// bottom are owned by the web layer; the core writes their zero values
// once and never touches them again.
type Card struct {
	ID                string
	SourceID          string
	CanonicalURL      string
	URLHash           string
	Category          string
	Headline          string
	Summary           string
	Author            *string
	PublishedAt       time.Time
	Engagement        *Engagement
	QualityScore      float64
	PipelineVersion   string
	IsSuspended       bool
	FlagCount         int
	ReactionUpCount   int
	ReactionDownCount int
}

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// PipelineRun doubles as the advisory lock record: a row in status
// "running" younger than the staleness window owns the pipeline.
type PipelineRun struct {
	ID           string
	Status       string
	StartedAt    time.Time
	EndedAt      *time.Time
	RunnerID     string
	ItemsFetched int
	CardsCreated int
	CardsSkipped int
	CardsFailed  int
	ErrorMessage string
}

// SourceState is the mutable registry row for a catalog entry.
type SourceState struct {
	ID              string
	APIType         string
	IsActive        bool
	LastPolledAt    *time.Time
	DefaultCategory string
	PollIntervalS   int
}

// HighPriorityEntry points downstream consumers at cards in categories
// that need expedited handling.
type HighPriorityEntry struct {
	CardID   string
	Category string
}
