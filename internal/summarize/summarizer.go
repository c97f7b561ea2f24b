package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const maxAttempts = 3

// ErrRetriesExhausted means no attempt produced a summary above the
// hard floor. The item stays unprocessed for a later run.
var ErrRetriesExhausted = errors.New("summarization retries exhausted")

// Some local models wrap their chain of thought in reasoning tags.
var reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Summarizer drives the per-item retry loop against one backend. The
// gate is injected so tests can substitute spacing behavior.
type Summarizer struct {
	backend CompletionBackend
	gate    Gate
	logger  *slog.Logger
}

func New(backend CompletionBackend, gate Gate, logger *slog.Logger) *Summarizer {
	if gate == nil || !backend.Metered() {
		gate = NoopGate()
	}
	return &Summarizer{backend: backend, gate: gate, logger: logger}
}

// Summarize produces a ~60 word summary of title+body, retrying up to
// three times with corrective feedback. Acceptance loosens only on the
// final attempt; see Evaluate for the band policy.
func (s *Summarizer) Summarize(ctx context.Context, title, body string) (string, error) {
	basePrompt := s.summaryPrompt(title, body)
	sourceText := title + "\n" + body

	var prevCount int
	var prevMissing []string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := basePrompt
		if attempt > 1 {
			prompt += retryFeedback(prevCount, prevMissing)
		}

		candidate, err := s.complete(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("summary attempt %d: %w", attempt, err)
		}

		count := WordCount(candidate)
		verdict := Evaluate(count, attempt == maxAttempts)
		check := CheckEntities(sourceText, candidate)

		if verdict.Accepted {
			return s.accept(candidate, count, verdict, check, sourceText), nil
		}

		s.logger.Debug("summary attempt rejected",
			"attempt", attempt, "words", count, "band", verdict.Band.String(),
			"missing_entities", len(check.Missing))

		prevCount = count
		prevMissing = check.Missing
	}

	return "", ErrRetriesExhausted
}

// accept applies the post-loop safety net and degradation warnings to
// an already-accepted candidate.
func (s *Summarizer) accept(candidate string, count int, verdict Verdict, check EntityCheck, sourceText string) string {
	if count > hardCeiling {
		candidate = TruncateWords(candidate, truncateTarget)
		check = CheckEntities(sourceText, candidate)
		s.logger.Warn("summary exceeded hard ceiling, truncated",
			"words_before", count, "words_after", WordCount(candidate))
	} else if verdict.Warn {
		s.logger.Warn("summary accepted below fallback band",
			"words", count, "band", verdict.Band.String())
	}

	if !check.Passed {
		s.logger.Warn("summary dropped source entities",
			"missing", strings.Join(check.Missing, ", "),
			"missing_critical", strings.Join(check.MissingCritical, ", "))
	}

	return candidate
}

// Headline is a single-shot call with a deterministic fallback: the
// first 12 words of the original title when the backend returns
// nothing usable.
func (s *Summarizer) Headline(ctx context.Context, title, summary string) (string, error) {
	headline, err := s.complete(ctx, s.headlinePrompt(title, summary))
	if err != nil {
		return "", fmt.Errorf("headline call: %w", err)
	}

	headline = strings.Trim(headline, `"' `)
	if headline == "" {
		s.logger.Warn("empty headline from backend, falling back to title")
		return TruncateWords(title, 12), nil
	}
	return headline, nil
}

func (s *Summarizer) complete(ctx context.Context, prompt string) (string, error) {
	if err := s.gate.Wait(ctx); err != nil {
		return "", err
	}

	raw, err := s.backend.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	cleaned := reasoningBlock.ReplaceAllString(raw, "")
	return strings.TrimSpace(cleaned), nil
}
