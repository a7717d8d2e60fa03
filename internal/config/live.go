package config

import (
	"sync"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
)

// Live holds the timings handed to newly created sessions. Sessions copy the
// value at creation, so updates never reach a match in progress.
type Live struct {
	mu sync.RWMutex
	t  game.Timings
}

func NewLive(t game.Timings) *Live { return &Live{t: t} }

// Timings returns the current value.
func (l *Live) Timings() game.Timings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.t
}

// SetWaitAndRound replaces the admin-tunable durations. Non-positive values
// leave the current setting alone.
func (l *Live) SetWaitAndRound(wait, round time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if wait > 0 {
		l.t.WaitingTime = wait
	}
	if round > 0 {
		l.t.RoundDuration = round
	}
}
