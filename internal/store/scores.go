// internal/store/scores.go
//
// Match wins and the leaderboard.

package store

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// Standing is one leaderboard row.
type Standing struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}

// IncrementWins records one match win for username.
func (s *Store) IncrementWins(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET wins = wins + 1 WHERE username=?`, username)
	if err != nil {
		return fmt.Errorf("increment wins: %w", err)
	}
	return mustAffect(res)
}

// TopPlayers returns up to n players, most wins first. Admins are not ranked.
func (s *Store) TopPlayers(ctx context.Context, n int) ([]Standing, error) {
	n = lo.Clamp(n, 1, 100)
	rows, err := s.db.QueryContext(ctx, `
        SELECT username, wins
        FROM users
        WHERE user_type = 'player'
        ORDER BY wins DESC, username ASC
        LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	defer rows.Close()

	out := make([]Standing, 0, n)
	for rows.Next() {
		var r Standing
		if err := rows.Scan(&r.Username, &r.Wins); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
