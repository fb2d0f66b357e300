// Package events defines the typed event stream a debate emits while it
// runs. Events exist for observers (CLI progress, SSE clients, stored
// replay); the engine's behavior never depends on whether anyone listens.
package events

import (
	"time"

	"github.com/parleyhq/parley/internal/core"
)

// Type identifies an event on the debate stream.
type Type string

const (
	TypeStatus                  Type = "status"
	TypePanelistResponse        Type = "panelist_response"
	TypeDebateRound             Type = "debate_round"
	TypeStanceExtracted         Type = "stance_extracted"
	TypeConcessionDetected      Type = "concession_detected"
	TypeResponsivenessScore     Type = "responsiveness_score"
	TypeScoreUpdate             Type = "score_update"
	TypeForcedConcessionWarning Type = "forced_concession_warning"
	TypeDebatePaused            Type = "debate_paused"
	TypeResult                  Type = "result"
	TypeError                   Type = "error"
	TypeDone                    Type = "done"
)

// Event is one entry on a debate's event stream. Seq increases by one per
// event within a thread and survives restarts.
type Event struct {
	Seq       int64     `json:"seq"`
	ThreadID  string    `json:"thread_id"`
	Type      Type      `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusData reports a phase change or progress note.
type StatusData struct {
	Phase   core.Phase `json:"phase"`
	Round   int        `json:"round"`
	Message string     `json:"message,omitempty"`
}

// PanelistResponseData carries one panelist's turn, placeholder or not.
type PanelistResponseData struct {
	Panelist    string `json:"panelist"`
	Round       int    `json:"round"`
	Response    string `json:"response"`
	Placeholder bool   `json:"placeholder"`
}

// DebateRoundData carries a completed round record.
type DebateRoundData struct {
	Round *core.DebateRound `json:"round"`
}

// StanceExtractedData carries one panelist's extracted stance.
type StanceExtractedData struct {
	Panelist string       `json:"panelist"`
	Round    int          `json:"round"`
	Stance   *core.Stance `json:"stance"`
}

// ConcessionDetectedData carries a detected concession.
type ConcessionDetectedData struct {
	Concession core.Concession `json:"concession"`
}

// ResponsivenessData carries one panelist's responsiveness measure.
type ResponsivenessData struct {
	Panelist       string               `json:"panelist"`
	Round          int                  `json:"round"`
	Responsiveness *core.Responsiveness `json:"responsiveness"`
}

// ScoreUpdateData carries one panelist's scoring outcome for a round.
type ScoreUpdateData struct {
	Panelist   string            `json:"panelist"`
	Round      int               `json:"round"`
	RoundTotal int               `json:"round_total"`
	Cumulative int               `json:"cumulative"`
	Events     []core.ScoreEvent `json:"events,omitempty"`
}

// ForcedConcessionData warns that a trailing panelist entered their turn
// under a mandatory concession instruction.
type ForcedConcessionData struct {
	Panelist string `json:"panelist"`
	Leader   string `json:"leader"`
	Gap      int    `json:"gap"`
}

// DebatePausedData reports a pause checkpoint awaiting human input.
type DebatePausedData struct {
	Round  int    `json:"round"`
	Reason string `json:"reason,omitempty"`
}

// ResultData is the terminal success payload.
type ResultData struct {
	Summary          string `json:"summary"`
	ConsensusReached bool   `json:"consensus_reached"`
	Rounds           int    `json:"rounds"`
}

// ErrorData is the terminal failure payload.
type ErrorData struct {
	Message string `json:"message"`
}
