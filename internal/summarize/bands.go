package summarize

import "strings"

// Acceptance bands for summary word counts. Strict applies on every
// attempt; the wider bands unlock only on the final attempt.
const (
	strictMin = 58
	strictMax = 62

	fallbackMin = 50
	fallbackMax = 70

	hardFloor = 20

	// hardCeiling triggers the post-loop truncation safety net.
	hardCeiling = 67

	// truncateTarget is where an overlong accepted summary is cut.
	truncateTarget = 60
)

// Band names the acceptance decision for one candidate summary.
type Band int

const (
	BandStrict Band = iota
	BandFallback
	BandHardFloor
	BandFail
)

func (b Band) String() string {
	switch b {
	case BandStrict:
		return "strict"
	case BandFallback:
		return "fallback"
	case BandHardFloor:
		return "hard-floor"
	default:
		return "fail"
	}
}

// Verdict is the outcome of evaluating one candidate against the
// acceptance policy.
type Verdict struct {
	Band     Band
	Accepted bool
	// Warn marks acceptances that should be logged as degraded.
	Warn bool
}

// Evaluate applies the band policy to a word count. Non-final attempts
// only ever accept the strict band; the final attempt widens through
// fallback and the hard floor before failing.
func Evaluate(wordCount int, finalAttempt bool) Verdict {
	if wordCount >= strictMin && wordCount <= strictMax {
		return Verdict{Band: BandStrict, Accepted: true}
	}
	if !finalAttempt {
		return Verdict{Band: BandFail}
	}
	if wordCount >= fallbackMin && wordCount <= fallbackMax {
		return Verdict{Band: BandFallback, Accepted: true}
	}
	if wordCount >= hardFloor {
		return Verdict{Band: BandHardFloor, Accepted: true, Warn: true}
	}
	return Verdict{Band: BandFail}
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// TruncateWords cuts text to at most n words.
func TruncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}
