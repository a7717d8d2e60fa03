package game_test

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/game/gametest"
)

func newTestSession(t *testing.T, words []string, hooks game.Hooks) (*game.Session, *gametest.Clock) {
	t.Helper()
	c := gametest.NewClock()
	return game.NewSession("abc123", words, game.DefaultTimings(), game.Options{Clock: c, Scheduler: c, Hooks: hooks}), c
}

// startMatch seats alice and bob and runs the pre-round countdown.
func startMatch(t *testing.T, s *game.Session, c *gametest.Clock) {
	t.Helper()
	if added, started := s.AddPlayer("alice"); !added || started {
		t.Fatalf("first join: added=%v started=%v", added, started)
	}
	if s.Phase() != game.PhaseWaiting {
		t.Fatalf("phase after first join = %s", s.Phase())
	}
	if added, started := s.AddPlayer("bob"); !added || !started {
		t.Fatalf("second join: added=%v started=%v", added, started)
	}
	if s.Phase() != game.PhaseStarting {
		t.Fatalf("phase after second join = %s", s.Phase())
	}
	c.Advance(3 * time.Second)
	if s.Phase() != game.PhaseRoundActive {
		t.Fatalf("phase after start delay = %s", s.Phase())
	}
}

func guessAll(t *testing.T, s *game.Session, name, letters string) {
	t.Helper()
	for _, l := range letters {
		if !s.Guess(name, l) {
			t.Fatalf("guess %c by %s rejected", l, name)
		}
	}
}

func TestRoundsThenDrawWhenWordsRunOut(t *testing.T) {
	var mu sync.Mutex
	var results []string
	s, c := newTestSession(t, []string{"DOG", "CAT"}, game.Hooks{
		OnMatchComplete: func(_ *game.Session, winner string) {
			mu.Lock()
			results = append(results, winner)
			mu.Unlock()
		},
	})
	startMatch(t, s, c)

	if got := s.Snapshot().Word; got != "DOG" {
		t.Fatalf("round 1 word = %q, want DOG", got)
	}
	guessAll(t, s, "alice", "DOG")

	snap := s.Snapshot()
	if snap.Phase != game.PhaseRoundResolved || snap.RoundWinner != "alice" || snap.Scores["alice"] != 1 {
		t.Fatalf("after round 1: %+v", snap)
	}
	if st := s.Status("bob"); !strings.Contains(st, "alice won the round") {
		t.Errorf("bob status = %q", st)
	}

	c.Advance(3 * time.Second)
	snap = s.Snapshot()
	if snap.Phase != game.PhaseRoundActive || snap.Word != "CAT" || snap.Round != 2 {
		t.Fatalf("round 2: %+v", snap)
	}

	c.Advance(30 * time.Second)
	if s.Phase() != game.PhaseRoundResolved {
		t.Fatalf("phase after timeout = %s", s.Phase())
	}
	if st := s.Status("alice"); !strings.Contains(st, "Round expired") {
		t.Errorf("status after timeout = %q", st)
	}

	c.Advance(3 * time.Second)
	snap = s.Snapshot()
	if snap.Phase != game.PhaseMatchComplete || snap.Winner != game.Draw || snap.Round != 3 {
		t.Fatalf("after pool exhausted: %+v", snap)
	}
	if snap.Scores["alice"] != 1 || snap.Scores["bob"] != 0 {
		t.Errorf("scores changed by draw: %v", snap.Scores)
	}
	if st := s.Status("bob"); !strings.Contains(st, "Game finished. Winner: DRAW") {
		t.Errorf("draw status = %q", st)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0] != game.Draw {
		t.Errorf("match results = %v", results)
	}
}

func TestFiveWrongBlocksOnlyThatPlayer(t *testing.T) {
	s, c := newTestSession(t, []string{"DOG", "CAT"}, game.Hooks{})
	startMatch(t, s, c)

	guessAll(t, s, "alice", "ABCEF")
	if s.Guess("alice", 'D') {
		t.Fatal("guess accepted after 5 wrong")
	}
	if st := s.Status("alice"); !strings.Contains(st, "You got 5 letters wrong") || !strings.Contains(st, "DOG") {
		t.Errorf("alice status = %q", st)
	}

	guessAll(t, s, "bob", "DOG")
	snap := s.Snapshot()
	if snap.RoundWinner != "bob" || snap.Scores["bob"] != 1 {
		t.Fatalf("bob should have won: %+v", snap)
	}

	// wrong count resets with the next round
	c.Advance(3 * time.Second)
	if !s.Guess("alice", 'C') {
		t.Error("alice still blocked in round 2")
	}
	if w := s.Snapshot().Wrong["alice"]; w != 0 {
		t.Errorf("alice wrong in round 2 = %d", w)
	}
}

func TestRoundTimerAfterWinIsNoop(t *testing.T) {
	s, c := newTestSession(t, []string{"DOG", "CAT", "COW"}, game.Hooks{})
	startMatch(t, s, c)
	roundTimer := c.Latest()

	guessAll(t, s, "alice", "DOG")
	roundTimer.FireStale()

	snap := s.Snapshot()
	if snap.Phase != game.PhaseRoundResolved || snap.Resolution != game.ResolutionWin || snap.RoundWinner != "alice" {
		t.Fatalf("stale timer changed resolved round: %+v", snap)
	}

	c.Advance(3 * time.Second)
	roundTimer.FireStale()
	snap = s.Snapshot()
	if snap.Phase != game.PhaseRoundActive || snap.Round != 2 {
		t.Fatalf("stale timer changed round 2: %+v", snap)
	}
	if c.Pending() != 1 {
		t.Errorf("pending timers = %d, want 1", c.Pending())
	}
}

func TestMatchEndsAtThreeWins(t *testing.T) {
	var calls []string
	s, c := newTestSession(t, []string{"DOG", "CAT", "COW", "PIG"}, game.Hooks{
		OnMatchComplete: func(_ *game.Session, w string) { calls = append(calls, w) },
	})
	startMatch(t, s, c)

	for i, word := range []string{"DOG", "CAT", "COW"} {
		guessAll(t, s, "alice", word)
		score := s.Snapshot().Scores["alice"]
		if score != i+1 {
			t.Fatalf("score after round %d = %d", i+1, score)
		}
		if i < 2 {
			if s.Phase() != game.PhaseRoundResolved {
				t.Fatalf("match ended early at score %d", score)
			}
			c.Advance(3 * time.Second)
		}
	}

	snap := s.Snapshot()
	if snap.Phase != game.PhaseMatchComplete || snap.Winner != "alice" {
		t.Fatalf("after 3 wins: %+v", snap)
	}
	if s.Guess("bob", 'P') {
		t.Error("guess accepted after match complete")
	}
	c.Advance(time.Minute)
	if got := s.Snapshot().Scores["alice"]; got != 3 {
		t.Errorf("final score = %d", got)
	}
	if c.Pending() != 0 {
		t.Errorf("timers left after match: %d", c.Pending())
	}
	if len(calls) != 1 || calls[0] != "alice" {
		t.Errorf("hook calls = %v", calls)
	}
	if st := s.Status("alice"); !strings.Contains(st, "Congratulations! You won the game!") {
		t.Errorf("winner status = %q", st)
	}
	if st := s.Status("bob"); !strings.Contains(st, "Game finished. Winner: alice") {
		t.Errorf("loser status = %q", st)
	}
}

func TestGuessRejections(t *testing.T) {
	s, c := newTestSession(t, []string{"DOG"}, game.Hooks{})
	s.AddPlayer("alice")
	if s.Guess("alice", 'D') {
		t.Error("guess accepted while waiting")
	}
	s.AddPlayer("bob")
	if s.Guess("alice", 'D') {
		t.Error("guess accepted while starting")
	}
	c.Advance(3 * time.Second)

	if s.Guess("carol", 'D') {
		t.Error("guess accepted from non-member")
	}
	if s.Guess("alice", '7') {
		t.Error("non-letter accepted")
	}
	if !s.Guess("alice", 'd') {
		t.Error("lowercase letter rejected")
	}
	if s.Guess("alice", 'D') {
		t.Error("repeat (case-insensitive) accepted")
	}
	if !s.Guess("bob", 'D') {
		t.Error("letters are tracked per player")
	}

	c.Skip(30 * time.Second)
	if s.Guess("alice", 'O') {
		t.Error("guess accepted after round duration")
	}
	if st := s.Status("alice"); !strings.Contains(st, "Round expired") {
		t.Errorf("status after elapsed = %q", st)
	}
}

// Random guess sequences are accepted exactly when the round is live, the
// guesser has fewer than five misses, time remains and the letter is new.
func TestGuessAcceptancePredicate(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 20; trial++ {
		s, c := newTestSession(t, []string{"BEAD"}, game.Hooks{})
		startMatch(t, s, c)
		start := c.Now()

		wrong := map[string]int{}
		guessed := map[string]map[rune]bool{"alice": {}, "bob": {}}
		resolved := false

		for i := 0; i < 60; i++ {
			if rng.IntN(8) == 0 {
				c.Skip(time.Duration(rng.IntN(5)) * time.Second)
			}
			who := []string{"alice", "bob"}[rng.IntN(2)]
			letter := 'A' + rune(rng.IntN(12))
			if rng.IntN(2) == 0 {
				letter = unicode.ToLower(letter)
			}
			up := unicode.ToUpper(letter)

			want := !resolved && wrong[who] < game.MaxWrongGuesses &&
				c.Now().Sub(start) < 30*time.Second && !guessed[who][up]
			got := s.Guess(who, letter)
			if got != want {
				t.Fatalf("trial %d step %d: %s guess %c = %v, want %v", trial, i, who, letter, got, want)
			}
			if !got {
				continue
			}
			guessed[who][up] = true
			if !strings.ContainsRune("BEAD", up) {
				wrong[who]++
				continue
			}
			if guessed[who]['B'] && guessed[who]['E'] && guessed[who]['A'] && guessed[who]['D'] {
				resolved = true
			}
		}
	}
}

func TestConcurrentCompletionAwardsOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, c := newTestSession(t, []string{"AB", "CD"}, game.Hooks{})
		startMatch(t, s, c)
		s.Guess("alice", 'A')
		s.Guess("bob", 'A')

		var wg sync.WaitGroup
		for _, name := range []string{"alice", "bob"} {
			wg.Add(1)
			go func(n string) {
				defer wg.Done()
				s.Guess(n, 'B')
			}(name)
		}
		wg.Wait()

		snap := s.Snapshot()
		if total := snap.Scores["alice"] + snap.Scores["bob"]; total != 1 {
			t.Fatalf("round awarded %d times: %v", total, snap.Scores)
		}
	}
}

func TestLeaveDuringCountdownReturnsToWaiting(t *testing.T) {
	s, c := newTestSession(t, []string{"DOG"}, game.Hooks{})
	s.AddPlayer("alice")
	s.AddPlayer("bob")
	if n := s.RemovePlayer("bob"); n != 1 {
		t.Fatalf("remaining = %d", n)
	}
	c.Advance(3 * time.Second)
	if s.Phase() != game.PhaseWaiting || !s.WaitingForPlayers() {
		t.Fatalf("phase = %s", s.Phase())
	}
	if added, started := s.AddPlayer("carol"); !added || !started {
		t.Errorf("rejoin: added=%v started=%v", added, started)
	}
}

func TestLastPlayerLeavingClosesSession(t *testing.T) {
	s, c := newTestSession(t, []string{"DOG", "CAT"}, game.Hooks{})
	startMatch(t, s, c)
	roundTimer := c.Latest()
	s.RemovePlayer("alice")
	if s.Phase() != game.PhaseRoundActive {
		t.Fatalf("one leaver should not end the match, phase = %s", s.Phase())
	}
	s.RemovePlayer("bob")
	if s.Phase() != game.PhaseClosed {
		t.Fatalf("phase = %s", s.Phase())
	}
	if c.Pending() != 0 {
		t.Errorf("pending timers after close = %d", c.Pending())
	}
	before := s.Snapshot()
	roundTimer.FireStale()
	c.Advance(time.Minute)
	if s.Phase() != game.PhaseClosed {
		t.Errorf("closed session moved to %s", s.Phase())
	}
	if after := s.Snapshot(); after.Round != before.Round || after.Resolution != before.Resolution {
		t.Errorf("stale round timer changed a closed session: %+v -> %+v", before, after)
	}
	if s.Status("alice") != game.NotInGame {
		t.Errorf("closed status = %q", s.Status("alice"))
	}
}

func TestWaitingExpiry(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		s, c := newTestSession(t, []string{"DOG"}, game.Hooks{})
		s.AddPlayer("alice")
		if st := s.Status("alice"); !strings.Contains(st, "Waiting for another player") || !strings.Contains(st, "10 seconds") {
			t.Errorf("waiting status = %q", st)
		}
		c.Advance(9 * time.Second)
		if s.Phase() != game.PhaseWaiting {
			t.Fatal("expired early")
		}
		c.Advance(time.Second)
		if s.Phase() != game.PhaseClosed || s.PlayerCount() != 0 {
			t.Fatalf("phase = %s players = %d", s.Phase(), s.PlayerCount())
		}
	})

	t.Run("hook", func(t *testing.T) {
		var fired *game.Session
		s, c := newTestSession(t, []string{"DOG"}, game.Hooks{
			OnWaitExpired: func(s *game.Session) { fired = s },
		})
		s.AddPlayer("alice")
		c.Advance(10 * time.Second)
		if fired != s {
			t.Fatal("hook not called")
		}
		if s.Phase() != game.PhaseWaiting {
			t.Fatal("hook owner should decide when to expire")
		}
		names, ok := s.ExpireWaiting()
		if !ok || len(names) != 1 || names[0] != "alice" {
			t.Fatalf("ExpireWaiting = %v, %v", names, ok)
		}
		if _, ok := s.ExpireWaiting(); ok {
			t.Error("second expiry succeeded")
		}
	})
}

func TestMaskAndCoarsePhase(t *testing.T) {
	s, c := newTestSession(t, []string{"DOG"}, game.Hooks{})
	s.AddPlayer("alice")
	if s.CoarsePhase() != "waiting" {
		t.Errorf("coarse = %s", s.CoarsePhase())
	}
	s.AddPlayer("bob")
	if s.CoarsePhase() != "active" {
		t.Errorf("coarse = %s", s.CoarsePhase())
	}
	if st := s.Status("alice"); !strings.Contains(st, "Game started") {
		t.Errorf("starting status = %q", st)
	}
	c.Advance(3 * time.Second)
	s.Guess("alice", 'O')
	v := s.View("alice")
	if v.Masked != "_ O _" || v.Word != "" || v.Opponent != "bob" {
		t.Errorf("view = %+v", v)
	}
	if st := s.Status("alice"); st != "_ O _ | Score: 0/3 | Wrong: 0/5 | Time: 30s" {
		t.Errorf("active status = %q", st)
	}
}
