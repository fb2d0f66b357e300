package scoring

import (
	"strings"
)

// stopwords are excluded from claim matching regardless of length.
var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "also": true,
	"because": true, "been": true, "being": true, "between": true, "both": true,
	"but": true, "cannot": true, "could": true, "does": true, "doing": true,
	"down": true, "during": true, "each": true, "from": true, "further": true,
	"have": true, "having": true, "here": true, "into": true, "itself": true,
	"just": true, "more": true, "most": true, "much": true, "must": true,
	"only": true, "other": true, "over": true, "same": true, "should": true,
	"some": true, "such": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "through": true, "under": true, "until": true,
	"very": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "will": true, "with": true, "would": true,
	"your": true,
}

// significantWords extracts the lowercase significant words of a text:
// longer than three characters and not a stopword. Duplicates collapse.
func significantWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(raw, ".,;:!?\"'()[]{}*_`")
		if len(word) <= 3 || stopwords[word] {
			continue
		}
		words[word] = true
	}
	return words
}

// addressesClaim reports whether a response engages a claim. The response
// matches when it shares at least three significant words with the claim,
// or at least half of the claim's significant words, whichever threshold is
// lower. Short claims therefore need proportionally less overlap.
func addressesClaim(responseWords map[string]bool, claim string) bool {
	claimWords := significantWords(claim)
	if len(claimWords) == 0 {
		return false
	}

	shared := 0
	for word := range claimWords {
		if responseWords[word] {
			shared++
		}
	}

	if shared >= 3 {
		return true
	}
	return float64(shared) >= 0.5*float64(len(claimWords))
}

// countOccurrences counts total (not distinct) case-insensitive hits of the
// markers inside text.
func countOccurrences(text string, markers []string) int {
	lower := strings.ToLower(text)
	total := 0
	for _, marker := range markers {
		total += strings.Count(lower, marker)
	}
	return total
}

// containsPhrase reports a case-insensitive match of any phrase in text.
func containsPhrase(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
