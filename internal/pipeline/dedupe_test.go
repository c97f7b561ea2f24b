package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"curator/internal/types"
	"curator/internal/utils"
)

type fakeCardStore struct {
	hashes     map[string]bool
	recent     []types.Card
	existsErr  error
	listErr    error
	listCalled bool
}

func (f *fakeCardStore) Insert(context.Context, types.Card) (bool, error) {
	return false, errors.New("not used")
}

func (f *fakeCardStore) ExistsByURLHash(_ context.Context, urlHash string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.hashes[urlHash], nil
}

func (f *fakeCardStore) ListPublishedBetween(_ context.Context, _, _ time.Time) ([]types.Card, error) {
	f.listCalled = true
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.recent, nil
}

func TestIsDuplicateExactHashShortCircuits(t *testing.T) {
	url := "https://example.com/t/topic/1"
	store := &fakeCardStore{hashes: map[string]bool{utils.URLHash(url): true}}
	dedup := NewDeduplicator(store)

	dup, err := dedup.IsDuplicate(context.Background(), url, "some title", time.Now())
	if err != nil {
		t.Fatalf("IsDuplicate returned error: %v", err)
	}
	if !dup {
		t.Error("IsDuplicate = false, want true on exact hash hit")
	}
	if store.listCalled {
		t.Error("fuzzy tier ran despite exact hash hit")
	}
}

func TestIsDuplicateFuzzyTitleMatch(t *testing.T) {
	published := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeCardStore{
		recent: []types.Card{
			{Headline: "Pectra upgrade scheduled for next month"},
		},
	}
	dedup := NewDeduplicator(store)

	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"near-identical title", "Pectra upgrade scheduled for next months", true},
		{"case and width variants", "PECTRA UPGRADE SCHEDULED FOR NEXT MONTH", true},
		{"unrelated title", "Solo staker count reaches all-time high", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dup, err := dedup.IsDuplicate(context.Background(), "https://example.com/other", tc.title, published)
			if err != nil {
				t.Fatalf("IsDuplicate returned error: %v", err)
			}
			if dup != tc.want {
				t.Errorf("IsDuplicate(%q) = %v, want %v", tc.title, dup, tc.want)
			}
		})
	}
}

func TestIsDuplicateEmptyTitleSkipsFuzzyTier(t *testing.T) {
	store := &fakeCardStore{recent: []types.Card{{Headline: ""}}}
	dedup := NewDeduplicator(store)

	dup, err := dedup.IsDuplicate(context.Background(), "https://example.com/x", "   ", time.Now())
	if err != nil {
		t.Fatalf("IsDuplicate returned error: %v", err)
	}
	if dup {
		t.Error("IsDuplicate = true, want false for empty title")
	}
	if store.listCalled {
		t.Error("fuzzy tier ran for an empty title")
	}
}

func TestIsDuplicatePropagatesStoreErrors(t *testing.T) {
	wantErr := errors.New("database locked")

	store := &fakeCardStore{existsErr: wantErr}
	if _, err := NewDeduplicator(store).IsDuplicate(context.Background(), "https://x", "t", time.Now()); !errors.Is(err, wantErr) {
		t.Errorf("exact tier error = %v, want wrapped %v", err, wantErr)
	}

	store = &fakeCardStore{listErr: wantErr}
	if _, err := NewDeduplicator(store).IsDuplicate(context.Background(), "https://x", "a real title", time.Now()); !errors.Is(err, wantErr) {
		t.Errorf("fuzzy tier error = %v, want wrapped %v", err, wantErr)
	}
}
