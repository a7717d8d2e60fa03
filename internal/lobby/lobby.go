// internal/lobby/lobby.go
//
// Front door to the match engine, shared by every transport.
// Responsibilities:
//   - Login, logout and session checks, including displacement of an older
//     login and takeover of its game (auth.go).
//   - Matchmaking, guesses, quitting and status (match.go).
//   - Admin account and configuration operations (admin.go).
//   - Persisting match wins and disposing of sessions nobody joined.
//
// Notes:
//   - All registry mutations run inside registry.Update; session methods are
//     called with the registry lock held, never the other way round.
//   - Storage failures are logged and never change game state.

package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/config"
	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/registry"
	"github.com/robalobadob/wordduel/internal/store"
	"github.com/robalobadob/wordduel/internal/words"
)

var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStaleSession       = errors.New("session has been replaced")
	ErrForbidden          = errors.New("admin only")
	ErrInvalidConfig      = errors.New("durations must be positive")
)

// Credentials is the identity store.
type Credentials interface {
	VerifyCredentials(ctx context.Context, username, password string) (store.Account, error)
	IssueToken(ctx context.Context, username string) (string, error)
	ClearToken(ctx context.Context, username string) error
	ClearAllTokens(ctx context.Context) error
	Role(ctx context.Context, username string) (string, error)
}

// Scores persists match results.
type Scores interface {
	IncrementWins(ctx context.Context, username string) error
	TopPlayers(ctx context.Context, n int) ([]store.Standing, error)
}

// Accounts backs the admin player-management operations.
type Accounts interface {
	CreatePlayer(ctx context.Context, username, password, role string) (store.Account, error)
	UpdatePassword(ctx context.Context, username, password string) error
	DeletePlayer(ctx context.Context, username string) (string, error)
	SearchPlayers(ctx context.Context, term string) ([]store.Account, error)
}

// GameConfigStore persists the admin-tunable timings.
type GameConfigStore interface {
	LoadGameConfig(ctx context.Context) (store.GameConfig, error)
	SaveGameConfig(ctx context.Context, gc store.GameConfig) error
}

// Store is everything the lobby needs from persistence. *store.Store
// satisfies it.
type Store interface {
	Credentials
	Scores
	Accounts
	GameConfigStore
}

// Options tune how sessions are created. Zero values use the system clock,
// a fresh shuffle per session and short random IDs.
type Options struct {
	Clock     game.Clock
	Scheduler game.Scheduler
	Order     func(words []string) []string // candidate order for a new session
	NewID     func() string
}

// Lobby coordinates logins, matchmaking and game sessions.
type Lobby struct {
	reg   *registry.Registry
	store Store
	pool  *words.Pool
	live  *config.Live
	opts  Options
}

// New wires a Lobby. live supplies the timings for each new session.
func New(reg *registry.Registry, st Store, pool *words.Pool, live *config.Live, opts Options) *Lobby {
	if opts.Clock == nil {
		opts.Clock = game.SystemClock{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = game.SystemClock{}
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString()[:8] }
	}
	return &Lobby{reg: reg, store: st, pool: pool, live: live, opts: opts}
}

func (l *Lobby) wordOrder() []string {
	if l.opts.Order != nil {
		return l.opts.Order(l.pool.Words())
	}
	return l.pool.Shuffled()
}

func (l *Lobby) newSession() *game.Session {
	return game.NewSession(l.opts.NewID(), l.wordOrder(), l.live.Timings(), game.Options{
		Clock:     l.opts.Clock,
		Scheduler: l.opts.Scheduler,
		Hooks: game.Hooks{
			OnMatchComplete: l.matchComplete,
			OnWaitExpired:   l.waitExpired,
		},
	})
}

// matchComplete records a match win. Draws are not persisted.
func (l *Lobby) matchComplete(s *game.Session, winner string) {
	if winner == game.Draw {
		log.Info().Str("session", s.ID()).Msg("match ended in a draw")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.IncrementWins(ctx, winner); err != nil {
		log.Error().Err(err).Str("session", s.ID()).Str("user", winner).Msg("record win")
	}
}

// waitExpired disposes of a session whose lone player found no opponent.
func (l *Lobby) waitExpired(s *game.Session) {
	_ = l.reg.Update(func(tx *registry.Tx) error {
		names, ok := s.ExpireWaiting()
		if !ok {
			return nil
		}
		for _, u := range names {
			if tx.SessionOf(u) == s {
				tx.Unbind(u)
			}
		}
		tx.Remove(s.ID())
		return nil
	})
}

// leave removes user from their game session, disposing of it once empty.
func leave(tx *registry.Tx, user string) {
	s := tx.SessionOf(user)
	if s == nil {
		return
	}
	tx.Unbind(user)
	if s.RemovePlayer(user) == 0 {
		tx.Remove(s.ID())
		log.Info().Str("session", s.ID()).Msg("session removed, no players left")
	}
}

// Shutdown clears every stored token and closes all game sessions.
func (l *Lobby) Shutdown(ctx context.Context) {
	if err := l.store.ClearAllTokens(ctx); err != nil {
		log.Error().Err(err).Msg("clear session tokens")
	}
	var closed int
	_ = l.reg.Update(func(tx *registry.Tx) error {
		for _, s := range tx.Sessions() {
			for _, u := range s.Players() {
				tx.Unbind(u)
			}
			s.Close()
			tx.Remove(s.ID())
			closed++
		}
		for _, p := range tx.Players() {
			tx.DeletePlayer(p.Username)
		}
		return nil
	})
	log.Info().Int("sessions", closed).Msg("lobby shut down")
}
