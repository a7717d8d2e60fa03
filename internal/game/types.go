// internal/game/types.go
//
// Type definitions for the match engine.
// Defines:
//   - Phase: where a session is in its lifecycle.
//   - Resolution: how the most recent round ended.
//   - Timings: the durations a session is created with.
//   - View: a per-player snapshot used to render status.

package game

import "time"

const (
	MaxPlayers      = 2
	WinningScore    = 3
	MaxWrongGuesses = 5

	// Draw is recorded as the match winner when the word pool runs out.
	Draw = "DRAW"
)

// Phase of a session's lifecycle.
//
//	waiting → starting → round_active ⇄ round_resolved → match_complete
//
// closed is entered when the last player leaves (or a wait expires) and is terminal.
type Phase string

const (
	PhaseWaiting       Phase = "waiting"
	PhaseStarting      Phase = "starting"
	PhaseRoundActive   Phase = "round_active"
	PhaseRoundResolved Phase = "round_resolved"
	PhaseMatchComplete Phase = "match_complete"
	PhaseClosed        Phase = "closed"
)

// Resolution describes how the latest round ended.
type Resolution string

const (
	ResolutionNone      Resolution = ""
	ResolutionWin       Resolution = "win"
	ResolutionTimeout   Resolution = "timeout"
	ResolutionExhausted Resolution = "exhausted"
)

// Timings are fixed for the lifetime of a session.
type Timings struct {
	WaitingTime   time.Duration // lone player waits this long for an opponent; 0 disables
	RoundDuration time.Duration
	StartDelay    time.Duration // second player joins → first round
	ResultDelay   time.Duration // round resolved → next round
}

// DefaultTimings mirrors the stock server configuration.
func DefaultTimings() Timings {
	return Timings{
		WaitingTime:   10 * time.Second,
		RoundDuration: 30 * time.Second,
		StartDelay:    3 * time.Second,
		ResultDelay:   3 * time.Second,
	}
}

// View is what one player can see of a session at a moment in time.
type View struct {
	SessionID     string     `json:"sessionId"`
	Phase         Phase      `json:"phase"`
	Round         int        `json:"round"`
	Masked        string     `json:"masked,omitempty"`
	Word          string     `json:"word,omitempty"` // revealed once the viewer can no longer guess it
	Score         int        `json:"score"`
	Opponent      string     `json:"opponent,omitempty"`
	OpponentScore int        `json:"opponentScore"`
	Wrong         int        `json:"wrong"`
	SecondsLeft   int        `json:"secondsLeft"`
	RoundExpired  bool       `json:"roundExpired,omitempty"`
	Resolution    Resolution `json:"resolution,omitempty"`
	RoundWinner   string     `json:"roundWinner,omitempty"`
	Winner        string     `json:"winner,omitempty"`

	viewer string
}

// Snapshot is the full, viewer-independent state of a session.
type Snapshot struct {
	ID          string
	Phase       Phase
	Players     []string
	Scores      map[string]int
	Wrong       map[string]int
	Word        string
	Round       int
	Resolution  Resolution
	RoundWinner string
	Winner      string
	UsedWords   []string
}
