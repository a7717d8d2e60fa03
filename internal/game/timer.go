package game

import "time"

// Clock supplies the current time to a session.
type Clock interface {
	Now() time.Time
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock and the runtime timer facility.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// phaseTimer is the single outstanding timer slot owned by a session.
// Every arm or cancel bumps gen; a callback only acts when the generation it
// was armed with is still current, so a timer that fires after being
// superseded (or after the session closed) does nothing.
type phaseTimer struct {
	t   Timer
	gen uint64
}

func (pt *phaseTimer) arm(s Scheduler, d time.Duration, fn func(gen uint64)) {
	pt.cancel()
	gen := pt.gen
	pt.t = s.AfterFunc(d, func() { fn(gen) })
}

func (pt *phaseTimer) cancel() {
	pt.gen++
	if pt.t != nil {
		pt.t.Stop()
		pt.t = nil
	}
}

func (pt *phaseTimer) current(gen uint64) bool { return pt.gen == gen }
