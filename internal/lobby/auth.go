// internal/lobby/auth.go
//
// Logins and the displacement protocol.
//
// Each successful login replaces the user's PlayerSession and stamps it with
// a new registry version. A client proves it is still the authoritative one
// by presenting both the token and the version it was issued; an older
// version means another client has logged in since.

package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/registry"
	"github.com/robalobadob/wordduel/internal/store"
)

const (
	msgDisplaced = "This account has been logged in from another client"
	msgDeleted   = "Your account has been deleted by an administrator"
)

// Credential is what a client presents to prove its login.
type Credential struct {
	Token   string `json:"token"`
	Version uint64 `json:"version"`
}

// Takeover points a new login at the game its username is already playing.
type Takeover struct {
	SessionID string `json:"sessionId"`
	Phase     string `json:"phase"` // "waiting" or "active"
}

// LoginResult is a successful login.
type LoginResult struct {
	Username   string        `json:"username"`
	Role       registry.Role `json:"role"`
	Credential Credential    `json:"credential"`
	Takeover   *Takeover     `json:"takeover,omitempty"`
}

// String renders the legacy reply: SUCCESS:<token>[:GAME_TAKEOVER:<id>:<phase>].
func (r LoginResult) String() string {
	if r.Takeover == nil {
		return "SUCCESS:" + r.Credential.Token
	}
	return fmt.Sprintf("SUCCESS:%s:GAME_TAKEOVER:%s:%s", r.Credential.Token, r.Takeover.SessionID, r.Takeover.Phase)
}

// LoginFailure renders a Login error in the legacy format.
func LoginFailure(err error) string {
	if errors.Is(err, ErrInvalidCredentials) {
		return "INVALID_CREDENTIALS"
	}
	return "ERROR"
}

// Login verifies the password and makes this the user's only live login.
// A previous login is flagged for forced logout; if the user is seated in a
// game the result carries a takeover bundle for it.
func (l *Lobby) Login(ctx context.Context, username, password string) (LoginResult, error) {
	acct, err := l.store.VerifyCredentials(ctx, username, password)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrWrongPassword) {
		log.Info().Str("user", username).Msg("login rejected")
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify credentials: %w", err)
	}
	res := LoginResult{Username: acct.Username, Role: registry.Role(acct.Role)}
	// Issued under the registry lock: the stored token is the live login's.
	err = l.reg.Update(func(tx *registry.Tx) error {
		token, err := l.store.IssueToken(ctx, acct.Username)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		if old := tx.Player(acct.Username); old != nil {
			old.ForceLogout(msgDisplaced)
			log.Info().Str("user", acct.Username).Msg("previous login displaced")
		}
		p := &registry.PlayerSession{
			Username:  acct.Username,
			Role:      res.Role,
			Token:     token,
			CreatedAt: l.opts.Clock.Now(),
		}
		tx.PutPlayer(p)
		res.Credential = Credential{Token: token, Version: p.Version}

		if s := tx.SessionOf(acct.Username); s != nil {
			res.Takeover = &Takeover{SessionID: s.ID(), Phase: s.CoarsePhase()}
			log.Info().Str("user", acct.Username).Str("session", s.ID()).Msg("new login takes over game")
		}
		return nil
	})
	if err != nil {
		return LoginResult{}, err
	}
	log.Info().Str("user", acct.Username).Str("role", string(res.Role)).Msg("logged in")
	return res, nil
}

// Logout ends the login identified by cred, leaving any game. A credential
// that has been displaced gets ErrStaleSession and changes nothing, so an old
// client cannot sign its successor out.
func (l *Lobby) Logout(ctx context.Context, username string, cred Credential) error {
	err := l.reg.Update(func(tx *registry.Tx) error {
		p := tx.Player(username)
		if p == nil || p.Token != cred.Token || p.Version != cred.Version {
			return ErrStaleSession
		}
		tx.DeletePlayer(username)
		leave(tx, username)
		if err := l.store.ClearToken(ctx, username); err != nil {
			log.Warn().Err(err).Str("user", username).Msg("clear token")
		}
		return nil
	})
	if err != nil {
		log.Debug().Str("user", username).Msg("logout with stale credential ignored")
		return err
	}
	log.Info().Str("user", username).Msg("logged out")
	return nil
}

// SessionState is the outcome of a session check.
type SessionState string

const (
	StateActive      SessionState = "ACTIVE"
	StateNoSession   SessionState = "NO_SESSION"
	StateDisplaced   SessionState = "DISPLACED"
	StateForceLogout SessionState = "FORCE_LOGOUT"
)

// SessionCheck tells a polling client whether its login still stands.
type SessionCheck struct {
	State   SessionState `json:"state"`
	Message string       `json:"message,omitempty"`
}

func (c SessionCheck) String() string {
	if c.Message == "" {
		return string(c.State)
	}
	return string(c.State) + ":" + c.Message
}

// CheckSession reports ACTIVE, NO_SESSION, DISPLACED or FORCE_LOGOUT for
// the login identified by cred.
func (l *Lobby) CheckSession(username string, cred Credential) SessionCheck {
	p := l.reg.Player(username)
	switch {
	case p == nil:
		return SessionCheck{State: StateNoSession}
	case p.Version == cred.Version && p.Token == cred.Token:
		if msg, forced := p.Forced(); forced {
			return SessionCheck{State: StateForceLogout, Message: msg}
		}
		return SessionCheck{State: StateActive}
	case cred.Version < p.Version:
		return SessionCheck{State: StateDisplaced, Message: msgDisplaced}
	}
	return SessionCheck{State: StateNoSession}
}

// Authorize returns the live login for cred, or an error if it is not the
// current one or has been flagged for logout.
func (l *Lobby) Authorize(username string, cred Credential) (*registry.PlayerSession, error) {
	switch c := l.CheckSession(username, cred); c.State {
	case StateActive:
		return l.reg.Player(username), nil
	case StateNoSession:
		return nil, ErrNotLoggedIn
	default:
		return nil, fmt.Errorf("%w: %s", ErrStaleSession, c.Message)
	}
}

// Role returns the user's role: from the live login when there is one, else
// from the store. Unknown users are "unknown".
func (l *Lobby) Role(ctx context.Context, username string) string {
	if p := l.reg.Player(username); p != nil {
		return string(p.Role)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	role, err := l.store.Role(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "unknown"
	case err != nil:
		log.Warn().Err(err).Str("user", username).Msg("load role")
		return "error"
	}
	return role
}
