package summarize

import (
	"regexp"
	"strings"
)

// Entity pattern classes. Proposal identifiers are the critical class:
// a summary of an EIP discussion that drops the EIP number is useless
// no matter how much else it preserved.
var (
	proposalPattern   = regexp.MustCompile(`(?i)\b(?:EIP|ERC|BIP|CAIP)-\d+\b`)
	percentagePattern = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)
	dollarPattern     = regexp.MustCompile(`\$[\d,]+(?:\.\d+)?[KMBTkmbt]?\b|\$[\d,]+(?:\.\d+)?`)
	versionPattern    = regexp.MustCompile(`\bv\d+\.\d+(?:\.\d+)?\b`)
)

const preservationRatio = 0.80

// EntityCheck is the result of comparing source text entities against
// a candidate summary. It drives retry feedback and warning logs only,
// never card creation.
type EntityCheck struct {
	Passed          bool
	SourceEntities  []string
	Missing         []string
	MissingCritical []string
}

// CheckEntities extracts the recognized identifier classes from source
// text and verifies each appears verbatim in the summary. Zero source
// entities is an automatic pass; a missing critical identifier is an
// automatic fail regardless of the overall ratio.
func CheckEntities(sourceText, summary string) EntityCheck {
	entities := extractEntities(sourceText)
	check := EntityCheck{SourceEntities: entities}

	if len(entities) == 0 {
		check.Passed = true
		return check
	}

	summaryFold := strings.ToLower(summary)
	for _, entity := range entities {
		if strings.Contains(summaryFold, strings.ToLower(entity)) {
			continue
		}
		check.Missing = append(check.Missing, entity)
		if proposalPattern.MatchString(entity) {
			check.MissingCritical = append(check.MissingCritical, entity)
		}
	}

	preserved := len(entities) - len(check.Missing)
	ratio := float64(preserved) / float64(len(entities))
	check.Passed = ratio >= preservationRatio && len(check.MissingCritical) == 0
	return check
}

func extractEntities(text string) []string {
	var entities []string
	seen := make(map[string]bool)

	for _, pattern := range []*regexp.Regexp{proposalPattern, percentagePattern, dollarPattern, versionPattern} {
		for _, match := range pattern.FindAllString(text, -1) {
			key := strings.ToLower(match)
			if seen[key] {
				continue
			}
			seen[key] = true
			entities = append(entities, match)
		}
	}
	return entities
}
