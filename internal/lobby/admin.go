// internal/lobby/admin.go
//
// Admin operations and the leaderboard. Every admin operation takes the
// acting username and fails with ErrForbidden unless that user is logged in
// as an admin.

package lobby

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/registry"
	"github.com/robalobadob/wordduel/internal/store"
)

// LeaderboardSize is how many players Leaderboard returns.
const LeaderboardSize = 5

func (l *Lobby) requireAdmin(actor string) error {
	p := l.reg.Player(actor)
	if p == nil || p.Role != registry.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// CreatePlayer adds a player account.
func (l *Lobby) CreatePlayer(ctx context.Context, actor, username, password string) (store.Account, error) {
	if err := l.requireAdmin(actor); err != nil {
		return store.Account{}, err
	}
	a, err := l.store.CreatePlayer(ctx, username, password, store.RolePlayer)
	if err != nil {
		return store.Account{}, fmt.Errorf("create player: %w", err)
	}
	log.Info().Str("admin", actor).Str("user", a.Username).Msg("player created")
	return a, nil
}

// UpdatePlayer sets a new password for a player.
func (l *Lobby) UpdatePlayer(ctx context.Context, actor, username, password string) error {
	if err := l.requireAdmin(actor); err != nil {
		return err
	}
	if err := l.store.UpdatePassword(ctx, username, password); err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	log.Info().Str("admin", actor).Str("user", username).Msg("player password updated")
	return nil
}

// DeletePlayer removes a player account. A live login for it is flagged for
// forced logout and the player leaves any game.
func (l *Lobby) DeletePlayer(ctx context.Context, actor, username string) error {
	if err := l.requireAdmin(actor); err != nil {
		return err
	}
	username, err := l.store.DeletePlayer(ctx, username)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	_ = l.reg.Update(func(tx *registry.Tx) error {
		if p := tx.Player(username); p != nil {
			p.ForceLogout(msgDeleted)
		}
		leave(tx, username)
		return nil
	})
	log.Info().Str("admin", actor).Str("user", username).Msg("player deleted")
	return nil
}

// SearchPlayers lists players whose username contains term.
func (l *Lobby) SearchPlayers(ctx context.Context, actor, term string) ([]store.Account, error) {
	if err := l.requireAdmin(actor); err != nil {
		return nil, err
	}
	return l.store.SearchPlayers(ctx, strings.TrimSpace(term))
}

// SetGameConfig persists new wait and round durations (seconds) and applies
// them to sessions created from now on.
func (l *Lobby) SetGameConfig(ctx context.Context, actor string, gc store.GameConfig) error {
	if err := l.requireAdmin(actor); err != nil {
		return err
	}
	if gc.WaitTime <= 0 || gc.RoundDuration <= 0 {
		return ErrInvalidConfig
	}
	if err := l.store.SaveGameConfig(ctx, gc); err != nil {
		return fmt.Errorf("save game config: %w", err)
	}
	l.live.SetWaitAndRound(time.Duration(gc.WaitTime)*time.Second, time.Duration(gc.RoundDuration)*time.Second)
	log.Info().Str("admin", actor).Int("wait_time", gc.WaitTime).Int("round_duration", gc.RoundDuration).Msg("game config updated")
	return nil
}

// GameConfig returns the stored timings, falling back to the in-memory
// values when the store cannot be read.
func (l *Lobby) GameConfig(ctx context.Context, actor string) (store.GameConfig, error) {
	if err := l.requireAdmin(actor); err != nil {
		return store.GameConfig{}, err
	}
	gc, err := l.store.LoadGameConfig(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load game config, using in-memory values")
		t := l.live.Timings()
		return store.GameConfig{
			WaitTime:      int(t.WaitingTime / time.Second),
			RoundDuration: int(t.RoundDuration / time.Second),
		}, nil
	}
	return gc, nil
}

// Leaderboard returns the top players by match wins.
func (l *Lobby) Leaderboard(ctx context.Context) ([]store.Standing, error) {
	top, err := l.store.TopPlayers(ctx, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return top, nil
}
