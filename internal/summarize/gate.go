package summarize

import (
	"context"
	"sync"
	"time"
)

// MinCallInterval is the spacing the hosted endpoint tolerates.
const MinCallInterval = 150 * time.Millisecond

// Gate spaces completion calls against a metered endpoint. The gate is
// owned by the summarizer that holds it, never shared through package
// state.
type Gate interface {
	Wait(ctx context.Context) error
}

type noopGate struct{}

func (noopGate) Wait(context.Context) error { return nil }

// NoopGate is for unmetered backends; every caller passes immediately.
func NoopGate() Gate { return noopGate{} }

// minIntervalGate holds the mutex across the sleep so waiting callers
// queue behind each other and calls stay evenly spaced rather than
// releasing in a burst.
type minIntervalGate struct {
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time
}

func NewMinIntervalGate(interval time.Duration) Gate {
	return &minIntervalGate{interval: interval}
}

func (g *minIntervalGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	wait := g.interval - time.Since(g.lastCall)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	g.lastCall = time.Now()
	return nil
}
