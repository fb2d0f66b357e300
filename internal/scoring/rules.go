// Package scoring tracks per-panelist argument quality across debate
// rounds. Scores are behavioral rewards and penalties, not truth judgments:
// they reward engaging opposing claims and penalize evasion and drift.
package scoring

// Score event categories.
const (
	EventAddressedClaim     = "addressed_claim"
	EventIgnoredClaim       = "ignored_claim"
	EventProvidedEvidence   = "provided_evidence"
	EventNovelPerspective   = "novel_perspective"
	EventStanceConsistent   = "stance_consistent"
	EventStanceDrift        = "stance_drift"
	EventExcessiveHedging   = "excessive_hedging"
	EventUserCompellingVote = "user_compelling_vote"
	EventUserWeakVote       = "user_weak_vote"
)

// Points maps each event category to its score delta.
var Points = map[string]int{
	EventAddressedClaim:     10,
	EventIgnoredClaim:       -10,
	EventProvidedEvidence:   8,
	EventNovelPerspective:   8,
	EventStanceConsistent:   5,
	EventStanceDrift:        -15,
	EventExcessiveHedging:   -5,
	EventUserCompellingVote: 24,
	EventUserWeakVote:       -16,
}

const (
	// EvidenceCap bounds evidence rewards per round (3 * 8 = 24 max).
	EvidenceCap = 3

	// NoveltyCap bounds novelty rewards per round (2 * 8 = 16 max).
	NoveltyCap = 2

	// HedgeTrigger is the hedge-marker count at which the hedging penalty
	// fires.
	HedgeTrigger = 5

	// ForcedConcessionGap is the score deficit at which a trailing panelist
	// must concede the leading argument. Strictly below this gap no
	// concession is forced.
	ForcedConcessionGap = 30
)

// hedgeMarkers are phrases that signal non-committal argument. Matching is
// case-insensitive on the response text.
var hedgeMarkers = []string{
	"might",
	"maybe",
	"perhaps",
	"possibly",
	"arguably",
	"it seems",
	"it could be",
	"i think",
	"somewhat",
	"to some extent",
	"hard to say",
	"not entirely sure",
}

// justificationPhrases waive the stance-drift penalty: changing position is
// free when the change is acknowledged as persuasion rather than silent
// drift.
var justificationPhrases = []string{
	"i concede",
	"you're right about",
	"you are right about",
	"upon reflection",
	"i've reconsidered",
	"i have reconsidered",
	"i stand corrected",
	"that changed my mind",
}
