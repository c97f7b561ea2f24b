package summarize

import (
	"fmt"
	"strings"
)

// truncationMarker is appended when body text is cut at the backend's
// character budget so the model knows the text is incomplete.
const truncationMarker = "\n\n[content truncated]"

// Hosted models follow terse instructions; local models drift without
// the firmer variant.
const summaryPromptHosted = `Summarize the following item for a technical news digest in exactly 60 words. Preserve every technical identifier (proposal numbers like EIP-4844, percentages, dollar amounts, version strings) verbatim. Output only the summary, no preamble.

Title: %s

%s`

const summaryPromptLocal = `You are writing one entry for a technical news digest.

Write a summary of EXACTLY 60 words. Not 50, not 70: 60 words. Count them.
Copy every technical identifier from the source verbatim: proposal numbers (EIP-4844, ERC-20), percentages, dollar amounts, version strings.
Do not add opinions. Do not add a preamble or a closing line. Output only the summary text.

Title: %s

%s`

const headlinePromptHosted = `Write a headline of at most 10 words for this item. Output only the headline, no quotes, no preamble.

Title: %s
Summary: %s`

const headlinePromptLocal = `Write one headline for this item. At most 10 words. Output ONLY the headline text: no quotes, no preamble, no explanation.

Title: %s
Summary: %s`

func (s *Summarizer) summaryPrompt(title, body string) string {
	template := summaryPromptLocal
	if s.backend.Metered() {
		template = summaryPromptHosted
	}
	return fmt.Sprintf(template, title, s.truncateBody(body))
}

func (s *Summarizer) headlinePrompt(title, summary string) string {
	template := headlinePromptLocal
	if s.backend.Metered() {
		template = headlinePromptHosted
	}
	return fmt.Sprintf(template, title, summary)
}

func (s *Summarizer) truncateBody(body string) string {
	budget := s.backend.CharBudget()
	if len(body) <= budget {
		return body
	}
	return body[:budget] + truncationMarker
}

// retryFeedback tells the model what was wrong with the previous
// attempt: the off-target word count, and any identifiers it dropped.
func retryFeedback(prevWordCount int, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\nYour previous attempt was %d words; the summary must be 60 words.", prevWordCount)
	if len(missing) > 0 {
		fmt.Fprintf(&b, " It must include these identifiers verbatim: %s.", strings.Join(missing, ", "))
	}
	return b.String()
}
