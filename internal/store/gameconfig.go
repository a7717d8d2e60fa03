// internal/store/gameconfig.go
//
// Persisted game timings (game_config table), in whole seconds.

package store

import (
	"context"
	"fmt"
)

const (
	keyWaitTime      = "wait_time"
	keyRoundDuration = "round_duration"
)

// GameConfig holds the admin-tunable timings.
type GameConfig struct {
	WaitTime      int `json:"waitTime"`
	RoundDuration int `json:"roundDuration"`
}

// LoadGameConfig reads the stored timings. Missing rows stay zero.
func (s *Store) LoadGameConfig(ctx context.Context) (GameConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT config_name, config_value FROM game_config`)
	if err != nil {
		return GameConfig{}, fmt.Errorf("load game config: %w", err)
	}
	defer rows.Close()

	var gc GameConfig
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return GameConfig{}, err
		}
		switch name {
		case keyWaitTime:
			gc.WaitTime = value
		case keyRoundDuration:
			gc.RoundDuration = value
		}
	}
	return gc, rows.Err()
}

// SaveGameConfig upserts both timings in one transaction.
func (s *Store) SaveGameConfig(ctx context.Context, gc GameConfig) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const upsert = `INSERT INTO game_config (config_name, config_value) VALUES (?, ?)
        ON CONFLICT(config_name) DO UPDATE SET config_value=excluded.config_value`
	for name, v := range map[string]int{keyWaitTime: gc.WaitTime, keyRoundDuration: gc.RoundDuration} {
		if _, err := tx.ExecContext(ctx, upsert, name, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit game config: %w", err)
	}
	return nil
}
