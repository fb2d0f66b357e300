// Package core contains the core domain types for parley.
package core

import (
	"time"
)

// DefaultMaxRounds is the number of debate rounds before moderation is
// forced when the caller does not specify one.
const DefaultMaxRounds = 3

// Phase represents where a debate is in its lifecycle. Transitions are
// owned exclusively by the engine's step function.
type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseDebate     Phase = "debate"
	PhasePaused     Phase = "paused"
	PhaseModeration Phase = "moderation"
	PhaseFinished   Phase = "finished"
)

// DebateMode controls how much human involvement a debate expects.
type DebateMode string

const (
	// ModeAutonomous runs rounds back to back with no human checkpoint.
	ModeAutonomous DebateMode = "autonomous"
	// ModeSupervised pauses after every round for an optional human message.
	ModeSupervised DebateMode = "supervised"
	// ModeParticipatory pauses after every round and never auto-detects
	// consensus; the human drives closure.
	ModeParticipatory DebateMode = "participatory"
)

// StanceMode controls how panelist positions are determined.
type StanceMode string

const (
	// StanceFree lets every panelist pick its own position.
	StanceFree StanceMode = "free"
	// StanceAdversarial assigns PRO/CON (and possibly DEVIL_ADVOCATE)
	// roles deterministically from the panel size.
	StanceAdversarial StanceMode = "adversarial"
	// StanceAssigned uses caller-provided role assignments.
	StanceAssigned StanceMode = "assigned"
)

// Role is a debate-position role a panelist can be assigned.
type Role string

const (
	RolePro            Role = "PRO"
	RoleCon            Role = "CON"
	RoleDevilsAdvocate Role = "DEVIL_ADVOCATE"
	RoleNeutral        Role = "NEUTRAL"
)

// StanceLabel is a position extracted from a panelist's response.
type StanceLabel string

const (
	StanceFor         StanceLabel = "FOR"
	StanceAgainst     StanceLabel = "AGAINST"
	StanceConditional StanceLabel = "CONDITIONAL"
	StanceNeutral     StanceLabel = "NEUTRAL"
)

// VoteKind is a human judgment about one panelist's last response.
type VoteKind string

const (
	VoteCompelling VoteKind = "compelling"
	VoteWeak       VoteKind = "weak"
)

// Panelist is one configured debate participant bound to a provider.
type Panelist struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Persona  string `json:"persona,omitempty"`
}

// AssignedRole binds a panelist to a debate-position role with the
// behavioral constraints that role carries. Computed once per debate and
// never mutated mid-round.
type AssignedRole struct {
	ParticipantName   string   `json:"participant_name"`
	Role              Role     `json:"role"`
	PositionStatement string   `json:"position_statement"`
	Constraints       []string `json:"constraints,omitempty"`
}

// Stance is a panelist's extracted position for one round.
type Stance struct {
	Label            StanceLabel `json:"label"`
	Confidence       float64     `json:"confidence"`
	CoreClaim        string      `json:"core_claim,omitempty"`
	EvidenceStrength float64     `json:"evidence_strength,omitempty"`
}

// ArgumentKind classifies one argument unit in a response.
type ArgumentKind string

const (
	ArgClaim      ArgumentKind = "claim"
	ArgEvidence   ArgumentKind = "evidence"
	ArgChallenge  ArgumentKind = "challenge"
	ArgConcession ArgumentKind = "concession"
)

// ArgumentUnit is a single tagged fragment of a panelist's response.
type ArgumentUnit struct {
	ID       string       `json:"id,omitempty"`
	Panelist string       `json:"panelist"`
	Kind     ArgumentKind `json:"kind"`
	Text     string       `json:"text"`
	Round    int          `json:"round"`
}

// Concession records a panelist acknowledging an opposing point.
type Concession struct {
	Panelist   string `json:"panelist"`
	ToPanelist string `json:"to_panelist,omitempty"`
	Point      string `json:"point"`
	Round      int    `json:"round"`
}

// Responsiveness measures how directly a response engaged the claims put
// to it in the previous round.
type Responsiveness struct {
	Score     float64 `json:"score"`
	Addressed int     `json:"addressed"`
	Missed    int     `json:"missed"`
}

// RoundQuality holds the evaluator's best-effort analysis of one round.
// All fields are optional: an evaluation failure leaves the round without
// quality data but never blocks the debate.
type RoundQuality struct {
	Stances        map[string]*Stance         `json:"stances,omitempty"`
	Arguments      []ArgumentUnit             `json:"arguments,omitempty"`
	Concessions    []Concession               `json:"concessions,omitempty"`
	Responsiveness map[string]*Responsiveness `json:"responsiveness,omitempty"`
}

// ScoreEvent is one reward or penalty applied to a panelist.
type ScoreEvent struct {
	Category string `json:"category"`
	Points   int    `json:"points"`
	Reason   string `json:"reason,omitempty"`
}

// RoundScore is a panelist's scoring outcome for one round. Cumulative may
// go negative; it carries the running total as of this round so score state
// can be rebuilt from history on resume.
type RoundScore struct {
	RoundTotal int          `json:"round_total"`
	Cumulative int          `json:"cumulative"`
	Events     []ScoreEvent `json:"events,omitempty"`
}

// DebateRound is the record of one executed round. Append-only: after
// creation it is only extended with quality and score data computed from
// the same round's responses.
type DebateRound struct {
	RoundNumber    int                    `json:"round_number"`
	PanelResponses map[string]string      `json:"panel_responses"`
	Consensus      bool                   `json:"consensus_reached"`
	UserMessage    string                 `json:"user_message,omitempty"`
	Quality        *RoundQuality          `json:"quality,omitempty"`
	Scores         map[string]*RoundScore `json:"scores,omitempty"`
}

// DebateState is the full persisted state of one debate thread. It is
// mutated only by the engine's step function, snapshotted to storage after
// every step, and becomes immutable once the phase is finished.
//
// Invariant: DebateRoundNum == len(History) after every completed round.
type DebateState struct {
	ThreadID         string                   `json:"thread_id"`
	Topic            string                   `json:"topic"`
	Phase            Phase                    `json:"phase"`
	DebateRoundNum   int                      `json:"debate_round"`
	MaxRounds        int                      `json:"max_rounds"`
	ConsensusReached bool                     `json:"consensus_reached"`
	DebateMode       DebateMode               `json:"debate_mode"`
	StanceMode       StanceMode               `json:"stance_mode"`
	ScoringEnabled   bool                     `json:"scoring_enabled"`
	Panel            []Panelist               `json:"panel"`
	AssignedRoles    map[string]*AssignedRole `json:"assigned_roles,omitempty"`
	PanelResponses   map[string]string        `json:"panel_responses,omitempty"`
	History          []*DebateRound           `json:"debate_history"`
	Summary          string                   `json:"summary,omitempty"`
	TaggedPanelists  []string                 `json:"tagged_panelists,omitempty"`

	// Pending human input, set by resume and consumed by the next round.
	PendingUserMessage string              `json:"pending_user_message,omitempty"`
	PendingVotes       map[string]VoteKind `json:"pending_votes,omitempty"`

	// LastError is set when a round fails fatally.
	LastError string `json:"last_error,omitempty"`

	// EventSeq is the next sequence number for this thread's event stream.
	EventSeq int64 `json:"event_seq"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PanelNames returns panelist names in configuration order. All transcript
// appends and fan-in attribution follow this order, never completion order.
func (s *DebateState) PanelNames() []string {
	names := make([]string, len(s.Panel))
	for i, p := range s.Panel {
		names[i] = p.Name
	}
	return names
}

// PanelistByName returns the panelist with the given name, or nil.
func (s *DebateState) PanelistByName(name string) *Panelist {
	for i := range s.Panel {
		if s.Panel[i].Name == name {
			return &s.Panel[i]
		}
	}
	return nil
}

// Finished reports whether the debate has reached its terminal phase.
func (s *DebateState) Finished() bool {
	return s.Phase == PhaseFinished
}

// LatestRound returns the most recent completed round, or nil.
func (s *DebateState) LatestRound() *DebateRound {
	if len(s.History) == 0 {
		return nil
	}
	return s.History[len(s.History)-1]
}

// StanceRecord pins a stance to its round and panelist for storage.
type StanceRecord struct {
	Round    int    `json:"round"`
	Panelist string `json:"panelist"`
	Stance   Stance `json:"stance"`
}

// DebateSummary is a lightweight listing row for a stored debate.
type DebateSummary struct {
	ThreadID         string     `json:"thread_id"`
	Topic            string     `json:"topic"`
	Phase            Phase      `json:"phase"`
	DebateMode       DebateMode `json:"debate_mode"`
	Rounds           int        `json:"rounds"`
	PanelSize        int        `json:"panel_size"`
	ConsensusReached bool       `json:"consensus_reached"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewDebateConfig carries everything needed to create a debate.
type NewDebateConfig struct {
	Topic          string                   `json:"topic"`
	Panel          []Panelist               `json:"panel"`
	DebateMode     DebateMode               `json:"debate_mode,omitempty"`
	StanceMode     StanceMode               `json:"stance_mode,omitempty"`
	MaxRounds      int                      `json:"max_rounds,omitempty"`
	ScoringEnabled *bool                    `json:"scoring_enabled,omitempty"`
	AssignedRoles  map[string]*AssignedRole `json:"assigned_roles,omitempty"`
}

// ResumeInput is the human contribution injected when a paused debate is
// resumed. All fields are optional.
type ResumeInput struct {
	Message         string   `json:"message,omitempty"`
	CompellingVotes []string `json:"compelling_votes,omitempty"`
	WeakVotes       []string `json:"weak_votes,omitempty"`
}

// ValidDebateMode reports whether m is a known debate mode.
func ValidDebateMode(m DebateMode) bool {
	switch m {
	case ModeAutonomous, ModeSupervised, ModeParticipatory:
		return true
	}
	return false
}

// ValidStanceMode reports whether m is a known stance mode.
func ValidStanceMode(m StanceMode) bool {
	switch m {
	case StanceFree, StanceAdversarial, StanceAssigned:
		return true
	}
	return false
}

// ValidRole reports whether r is a known debate role.
func ValidRole(r Role) bool {
	switch r {
	case RolePro, RoleCon, RoleDevilsAdvocate, RoleNeutral:
		return true
	}
	return false
}
