// internal/lobby/match.go
//
// Matchmaking and in-game operations, keyed by username.

package lobby

import (
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/registry"
)

// StartStatus says how RequestStart placed the user.
type StartStatus string

const (
	AlreadyInSession      StartStatus = "already-in-session"
	JoinedWaitingSession  StartStatus = "joined-waiting-session"
	StartedSession        StartStatus = "started-session"
	CreatedWaitingSession StartStatus = "created-waiting-session"
)

// StartResult is the outcome of RequestStart.
type StartResult struct {
	Status    StartStatus `json:"status"`
	SessionID string      `json:"sessionId"`
	Phase     string      `json:"phase"` // "waiting" or "active"
}

// Message is the legacy status line for the result.
func (r StartResult) Message() string {
	switch {
	case r.Status == StartedSession:
		return "Game started"
	case r.Status == AlreadyInSession && r.Phase == "active":
		return "Resuming game in progress"
	}
	return "Waiting for another player"
}

// RequestStart puts username into a game: the one they are already in, else
// the oldest session still waiting for a player, else a new one. A finished
// match the user is still seated in is left first.
func (l *Lobby) RequestStart(username string) (StartResult, error) {
	if l.reg.Player(username) == nil {
		return StartResult{}, ErrNotLoggedIn
	}

	var res StartResult
	_ = l.reg.Update(func(tx *registry.Tx) error {
		if s := tx.SessionOf(username); s != nil {
			if s.Phase() != game.PhaseMatchComplete {
				res = StartResult{Status: AlreadyInSession, SessionID: s.ID(), Phase: s.CoarsePhase()}
				log.Debug().Str("user", username).Str("session", s.ID()).Msg("resuming existing game")
				return nil
			}
			leave(tx, username)
		}

		for _, s := range tx.Sessions() {
			if !s.WaitingForPlayers() {
				continue
			}
			added, started := s.AddPlayer(username)
			if !added {
				continue
			}
			tx.Bind(username, s.ID())
			res = StartResult{Status: JoinedWaitingSession, SessionID: s.ID(), Phase: "waiting"}
			if started {
				res.Status, res.Phase = StartedSession, "active"
			}
			return nil
		}

		s := l.newSession()
		tx.Add(s)
		s.AddPlayer(username)
		tx.Bind(username, s.ID())
		res = StartResult{Status: CreatedWaitingSession, SessionID: s.ID(), Phase: "waiting"}
		log.Info().Str("user", username).Str("session", s.ID()).Msg("created game session")
		return nil
	})
	return res, nil
}

// Guess forwards a letter to the user's game. false means the guess was not
// applied, for whatever reason.
func (l *Lobby) Guess(username string, letter rune) bool {
	s := l.reg.SessionOf(username)
	if s == nil {
		return false
	}
	return s.Guess(username, letter)
}

// Quit removes username from their game, if any.
func (l *Lobby) Quit(username string) {
	_ = l.reg.Update(func(tx *registry.Tx) error {
		if s := tx.SessionOf(username); s != nil {
			log.Info().Str("user", username).Str("session", s.ID()).Msg("player quit")
		}
		leave(tx, username)
		return nil
	})
}

// Status is what a polling client renders.
type Status struct {
	Text string     `json:"status"`
	View *game.View `json:"view,omitempty"`
}

// Status returns username's current game status.
func (l *Lobby) Status(username string) Status {
	s := l.reg.SessionOf(username)
	if s == nil {
		return Status{Text: game.NotInGame}
	}
	v := s.View(username)
	if v.Phase == game.PhaseClosed {
		return Status{Text: game.NotInGame}
	}
	return Status{Text: game.Render(v), View: &v}
}
