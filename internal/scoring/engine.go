package scoring

import (
	"fmt"

	"github.com/parleyhq/parley/internal/core"
)

// Engine holds the scoring state for one debate. It is not safe for
// concurrent use; the debate engine owns it and drives it from the step
// loop only.
type Engine struct {
	order           []string
	cumulative      map[string]int
	declaredStances map[string]core.StanceLabel
	declaredClaims  map[string]string
	prevClaims      []core.ArgumentUnit
	ignoredClaims   map[string][]string
}

// New creates a scoring engine for a panel. The order slice fixes both
// iteration order and leader tie-breaking.
func New(order []string) *Engine {
	e := &Engine{
		order:           order,
		cumulative:      make(map[string]int, len(order)),
		declaredStances: make(map[string]core.StanceLabel, len(order)),
		declaredClaims:  make(map[string]string, len(order)),
		ignoredClaims:   make(map[string][]string, len(order)),
	}
	for _, name := range order {
		e.cumulative[name] = 0
	}
	return e
}

// NewFromHistory rebuilds scoring state from persisted rounds so a resumed
// debate scores exactly as if it had never been unloaded. Cumulative totals
// come from the latest scored round, declared stances follow the last
// recorded stance per panelist, and claim context comes from the latest
// round that has quality data.
func NewFromHistory(order []string, history []*core.DebateRound) *Engine {
	e := New(order)

	for _, round := range history {
		for name, score := range round.Scores {
			e.cumulative[name] = score.Cumulative
		}
		if round.Quality == nil {
			continue
		}
		for name, stance := range round.Quality.Stances {
			if stance == nil {
				continue
			}
			e.declaredStances[name] = stance.Label
			if stance.CoreClaim != "" {
				e.declaredClaims[name] = stance.CoreClaim
			}
		}
		e.prevClaims = claimUnits(round.Quality.Arguments)
	}

	return e
}

// RoundInput carries everything needed to score one completed round.
type RoundInput struct {
	RoundNumber int
	Responses   map[string]string
	Quality     *core.RoundQuality
	Votes       map[string]core.VoteKind
}

// ScoreRound scores every panelist for one round and folds the results
// into the cumulative totals. It never fails: panelists with placeholder
// responses or missing quality data simply accrue no events. The round's
// claim units become the claim context for the next round.
func (e *Engine) ScoreRound(in RoundInput) map[string]*core.RoundScore {
	scores := make(map[string]*core.RoundScore, len(e.order))

	for _, name := range e.order {
		events := e.scorePanelist(name, in)

		total := 0
		for _, ev := range events {
			total += ev.Points
		}
		e.cumulative[name] += total

		scores[name] = &core.RoundScore{
			RoundTotal: total,
			Cumulative: e.cumulative[name],
			Events:     events,
		}
	}

	if in.Quality != nil {
		e.prevClaims = claimUnits(in.Quality.Arguments)
	}

	return scores
}

// scorePanelist computes the score events for one panelist in one round.
func (e *Engine) scorePanelist(name string, in RoundInput) []core.ScoreEvent {
	var events []core.ScoreEvent

	response, hasResponse := in.Responses[name]
	valid := hasResponse && core.IsValidResponse(response)

	if valid {
		responseWords := significantWords(response)

		// Engagement with the previous round's claims.
		for _, claim := range e.prevClaims {
			if claim.Panelist == name {
				continue
			}
			if addressesClaim(responseWords, claim.Text) {
				events = append(events, core.ScoreEvent{
					Category: EventAddressedClaim,
					Points:   Points[EventAddressedClaim],
					Reason:   fmt.Sprintf("engaged %s's claim: %s", claim.Panelist, snippet(claim.Text)),
				})
			} else {
				events = append(events, core.ScoreEvent{
					Category: EventIgnoredClaim,
					Points:   Points[EventIgnoredClaim],
					Reason:   fmt.Sprintf("ignored %s's claim: %s", claim.Panelist, snippet(claim.Text)),
				})
				e.ignoredClaims[name] = append(e.ignoredClaims[name], claim.Text)
			}
		}

		if in.Quality != nil {
			events = append(events, e.argumentEvents(name, in.Quality)...)
			events = append(events, e.stanceEvents(name, response, in.Quality)...)
		}

		if countOccurrences(response, hedgeMarkers) >= HedgeTrigger {
			events = append(events, core.ScoreEvent{
				Category: EventExcessiveHedging,
				Points:   Points[EventExcessiveHedging],
				Reason:   "response leans on hedging language",
			})
		}
	}

	// Human votes apply even without quality data.
	switch in.Votes[name] {
	case core.VoteCompelling:
		events = append(events, core.ScoreEvent{
			Category: EventUserCompellingVote,
			Points:   Points[EventUserCompellingVote],
			Reason:   "human found the argument compelling",
		})
	case core.VoteWeak:
		events = append(events, core.ScoreEvent{
			Category: EventUserWeakVote,
			Points:   Points[EventUserWeakVote],
			Reason:   "human found the argument weak",
		})
	}

	return events
}

// argumentEvents rewards evidence and novel challenges, both capped per
// round.
func (e *Engine) argumentEvents(name string, quality *core.RoundQuality) []core.ScoreEvent {
	var events []core.ScoreEvent
	evidence, novelty := 0, 0

	for _, unit := range quality.Arguments {
		if unit.Panelist != name {
			continue
		}
		switch unit.Kind {
		case core.ArgEvidence:
			if evidence >= EvidenceCap {
				continue
			}
			evidence++
			events = append(events, core.ScoreEvent{
				Category: EventProvidedEvidence,
				Points:   Points[EventProvidedEvidence],
				Reason:   snippet(unit.Text),
			})
		case core.ArgChallenge:
			if novelty >= NoveltyCap {
				continue
			}
			novelty++
			events = append(events, core.ScoreEvent{
				Category: EventNovelPerspective,
				Points:   Points[EventNovelPerspective],
				Reason:   snippet(unit.Text),
			})
		}
	}

	return events
}

// stanceEvents compares this round's stance against the panelist's declared
// position. The first recorded stance only establishes the baseline. Drift
// is penalized unless the response justifies the change; either way the
// declared stance follows the panelist.
func (e *Engine) stanceEvents(name, response string, quality *core.RoundQuality) []core.ScoreEvent {
	stance := quality.Stances[name]
	if stance == nil {
		return nil
	}

	var events []core.ScoreEvent

	declared, ok := e.declaredStances[name]
	switch {
	case !ok:
		// Baseline round, nothing to compare yet.
	case stance.Label == declared:
		events = append(events, core.ScoreEvent{
			Category: EventStanceConsistent,
			Points:   Points[EventStanceConsistent],
			Reason:   fmt.Sprintf("held %s position", declared),
		})
	case containsPhrase(response, justificationPhrases):
		// Justified pivot: position change acknowledged, no penalty.
	default:
		events = append(events, core.ScoreEvent{
			Category: EventStanceDrift,
			Points:   Points[EventStanceDrift],
			Reason:   fmt.Sprintf("shifted %s -> %s without acknowledging why", declared, stance.Label),
		})
	}

	e.declaredStances[name] = stance.Label
	if stance.CoreClaim != "" {
		e.declaredClaims[name] = stance.CoreClaim
	}

	return events
}

// AdvanceRound clears per-round tracking. Cumulative totals, declared
// stances and claim context all survive; only the ignored-claim record
// resets.
func (e *Engine) AdvanceRound() {
	e.ignoredClaims = make(map[string][]string, len(e.order))
}

// Cumulative returns a panelist's running total.
func (e *Engine) Cumulative(name string) int {
	return e.cumulative[name]
}

// Leader returns the panelist with the highest cumulative score. Ties
// resolve to the earliest panelist in configuration order.
func (e *Engine) Leader() (string, int) {
	if len(e.order) == 0 {
		return "", 0
	}
	leader := e.order[0]
	best := e.cumulative[leader]
	for _, name := range e.order[1:] {
		if e.cumulative[name] > best {
			leader = name
			best = e.cumulative[name]
		}
	}
	return leader, best
}

// Standing is one panelist's position on the scoreboard going into a turn.
type Standing struct {
	Cumulative       int
	LeaderName       string
	LeaderScore      int
	Gap              int
	ForcedConcession bool
	LeaderClaim      string
}

// StandingFor computes a panelist's scoreboard standing. The forced
// concession flag fires exactly at the configured gap, never below it.
func (e *Engine) StandingFor(name string) Standing {
	leader, best := e.Leader()
	s := Standing{
		Cumulative:  e.cumulative[name],
		LeaderName:  leader,
		LeaderScore: best,
	}
	if name == leader {
		return s
	}
	s.Gap = best - e.cumulative[name]
	s.ForcedConcession = s.Gap >= ForcedConcessionGap
	if s.ForcedConcession {
		s.LeaderClaim = e.declaredClaims[leader]
	}
	return s
}

// IgnoredClaims returns the claims a panelist left unaddressed this round.
func (e *Engine) IgnoredClaims(name string) []string {
	return e.ignoredClaims[name]
}

// claimUnits filters argument units down to claims.
func claimUnits(units []core.ArgumentUnit) []core.ArgumentUnit {
	var claims []core.ArgumentUnit
	for _, u := range units {
		if u.Kind == core.ArgClaim {
			claims = append(claims, u)
		}
	}
	return claims
}

// snippet truncates text for event reasons.
func snippet(text string) string {
	const max = 60
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
