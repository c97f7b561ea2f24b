package types

import (
	"errors"
	"fmt"
)

// SkipReason classifies benign per-item outcomes. Skips are not
// failures: the raw item is still marked processed and the run's
// skipped counter goes up. Dry-run skips are the exception; they leave
// the item unprocessed so a real run can pick it up.
type SkipReason string

const (
	SkipEmpty      SkipReason = "empty"
	SkipDuplicate  SkipReason = "duplicate"
	SkipSuppressed SkipReason = "suppressed"
	SkipDryRun     SkipReason = "dry_run"
)

type SkipError struct {
	Reason SkipReason
	ItemID string
	Detail string
}

func (e *SkipError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("item %s skipped: %s", e.ItemID, e.Reason)
	}
	return fmt.Sprintf("item %s skipped: %s (%s)", e.ItemID, e.Reason, e.Detail)
}

func NewSkipError(reason SkipReason, itemID, detail string) *SkipError {
	return &SkipError{Reason: reason, ItemID: itemID, Detail: detail}
}

// IsSkip reports whether err is a benign skip outcome.
func IsSkip(err error) bool {
	var se *SkipError
	return errors.As(err, &se)
}

// SkipReasonOf returns the reason when err is a skip, "" otherwise.
func SkipReasonOf(err error) SkipReason {
	var se *SkipError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
