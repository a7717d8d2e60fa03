package httpserver

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterTTL = time.Hour

type limiterEntry struct {
	lim        *rate.Limiter
	lastAccess time.Time
}

// limiterSet hands out one token bucket per key (username).
type limiterSet struct {
	mu    sync.Mutex
	rps   float64
	burst int
	m     map[string]*limiterEntry
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &limiterSet{rps: rps, burst: burst, m: make(map[string]*limiterEntry)}
}

func (ls *limiterSet) get(key string) *rate.Limiter {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	now := time.Now()
	if e, ok := ls.m[key]; ok {
		e.lastAccess = now
		return e.lim
	}
	if len(ls.m) > 1024 {
		ls.sweepLocked(now.Add(-limiterTTL))
	}
	e := &limiterEntry{lim: rate.NewLimiter(rate.Limit(ls.rps), ls.burst), lastAccess: now}
	ls.m[key] = e
	return e.lim
}

func (ls *limiterSet) sweepLocked(cutoff time.Time) {
	for k, e := range ls.m {
		if e.lastAccess.Before(cutoff) {
			delete(ls.m, k)
		}
	}
}

// limitGuesses throttles per user. Runs after requireToken.
func (s *Server) limitGuesses(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.guesses.get(claimsFrom(r).Username).Allow() {
			http.Error(w, `{"error":"Too many requests. Please slow down."}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
