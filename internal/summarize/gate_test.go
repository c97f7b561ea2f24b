package summarize

import (
	"context"
	"testing"
	"time"
)

func TestMinIntervalGateSpacesCalls(t *testing.T) {
	interval := 30 * time.Millisecond
	gate := NewMinIntervalGate(interval)
	ctx := context.Background()

	if err := gate.Wait(ctx); err != nil {
		t.Fatalf("first Wait returned error: %v", err)
	}

	start := time.Now()
	if err := gate.Wait(ctx); err != nil {
		t.Fatalf("second Wait returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < interval {
		t.Errorf("second call waited %v, want at least %v", elapsed, interval)
	}
}

func TestMinIntervalGateHonorsCancellation(t *testing.T) {
	gate := NewMinIntervalGate(time.Minute)

	if err := gate.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := gate.Wait(ctx); err == nil {
		t.Error("Wait returned nil under a canceled context, want error")
	}
}

func TestNoopGateNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NoopGate().Wait(ctx); err != nil {
		t.Errorf("NoopGate.Wait = %v, want nil even when canceled", err)
	}
}
