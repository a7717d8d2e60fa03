// Package gametest provides a manual clock for driving session timers in
// tests.
package gametest

import (
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
)

// Clock is a manual game.Clock and game.Scheduler. Timers fire synchronously from
// Advance, in due order.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*Timer
}

type Timer struct {
	c       *Clock
	due     time.Time
	seq     int
	fn      func()
	stopped bool
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) game.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &Timer{c: c, due: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *Timer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// Pending counts timers that have neither fired nor been stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, firing every timer that comes due.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			if c.timers[i].due.Equal(c.timers[j].due) {
				return c.timers[i].seq < c.timers[j].seq
			}
			return c.timers[i].due.Before(c.timers[j].due)
		})
		var next *Timer
		for _, t := range c.timers {
			if !t.stopped && !t.due.After(end) {
				next = t
				break
			}
		}
		if next == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		next.stopped = true
		c.now = next.due
		c.mu.Unlock()
		next.fn()
	}
}

// Latest returns the most recently scheduled timer.
func (c *Clock) Latest() *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out *Timer
	for _, t := range c.timers {
		if out == nil || t.seq > out.seq {
			out = t
		}
	}
	return out
}

// FireStale runs t's callback even if it was stopped, standing in for a
// timer that had already been dequeued when Stop was called.
func (t *Timer) FireStale() { t.fn() }

// Skip moves time forward without firing anything.
func (c *Clock) Skip(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
