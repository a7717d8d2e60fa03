// internal/game/session.go
//
// Match engine for a single two-player session.
// Responsibilities:
//   - Seat up to two players; start the match when the second one arrives.
//   - Run rounds: draw an unused word, arm the round timer, resolve on a
//     completed word or on timeout, pause between rounds.
//   - Validate and apply letter guesses for each player independently.
//   - End the match at 3 round wins, or as a draw when the words run out.
//
// Notes:
//   - All state is guarded by one mutex per session, so two players completing
//     the word at the same moment can never both be awarded the round.
//   - Each session owns exactly one timer slot (see phaseTimer). Arming a new
//     phase always cancels the previous one.
//   - Hooks run after the mutex is released.

package game

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
)

// Hooks let the owner react to transitions that happen off the request path.
type Hooks struct {
	// OnMatchComplete fires exactly once per match; winner is Draw when the
	// word pool ran out.
	OnMatchComplete func(s *Session, winner string)

	// OnWaitExpired fires when a lone player has waited WaitingTime. The owner
	// is expected to call ExpireWaiting. When nil the session expires itself.
	OnWaitExpired func(s *Session)
}

// Options carry the collaborators a session runs against.
type Options struct {
	Clock     Clock
	Scheduler Scheduler
	Hooks     Hooks
}

type player struct {
	name    string
	score   int
	wrong   int
	guessed map[rune]struct{}
}

// Session is one match between at most two players.
type Session struct {
	id      string
	timings Timings
	clock   Clock
	sched   Scheduler
	hooks   Hooks

	mu           sync.Mutex
	players      []*player
	words        []string // candidate order for this session
	used         map[string]struct{}
	phase        Phase
	word         string
	round        int
	roundStart   time.Time
	resolution   Resolution
	roundWinner  string
	resolvedAt   time.Time
	startingAt   time.Time
	waitingSince time.Time
	winner       string
	timer        phaseTimer
}

// NewSession creates a session in the waiting phase. words is the order in
// which this session will draw candidates.
func NewSession(id string, words []string, timings Timings, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemClock{}
	}
	return &Session{
		id:      id,
		timings: timings,
		clock:   opts.Clock,
		sched:   opts.Scheduler,
		hooks:   opts.Hooks,
		words:   append([]string(nil), words...),
		used:    make(map[string]struct{}),
		phase:   PhaseWaiting,
	}
}

func (s *Session) ID() string { return s.id }

// Timings returns the durations this session was created with.
func (s *Session) Timings() Timings { return s.timings }

// ----------------------------- membership ----------------------------------

// AddPlayer seats name if the session is still waiting and has room.
// started reports whether this join filled the session and kicked off the
// pre-round countdown.
func (s *Session) AddPlayer(name string) (added, started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting || len(s.players) >= MaxPlayers || s.playerLocked(name) != nil {
		return false, false
	}
	s.players = append(s.players, &player{name: name, guessed: make(map[rune]struct{})})
	log.Debug().Str("session", s.id).Str("user", name).Int("players", len(s.players)).Msg("player joined")

	if len(s.players) == MaxPlayers {
		s.phase = PhaseStarting
		s.startingAt = s.clock.Now()
		s.timer.arm(s.sched, s.timings.StartDelay, s.beginRound)
		log.Info().Str("session", s.id).Dur("in", s.timings.StartDelay).Msg("match starting")
		return true, true
	}
	s.armWaitLocked()
	return true, false
}

// RemovePlayer drops name and returns how many players remain. The session
// closes itself when nobody is left. A player leaving during the pre-round
// countdown sends the session back to waiting.
func (s *Session) RemovePlayer(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.players {
		if p.name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(s.players)
	}
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	log.Debug().Str("session", s.id).Str("user", name).Int("players", len(s.players)).Msg("player left")

	switch {
	case len(s.players) == 0:
		s.closeLocked()
	case s.phase == PhaseStarting:
		s.phase = PhaseWaiting
		s.armWaitLocked()
	}
	return len(s.players)
}

// Close cancels any outstanding timer and releases word tracking.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.phase == PhaseClosed {
		return
	}
	s.timer.cancel()
	s.phase = PhaseClosed
	s.used = nil
	log.Debug().Str("session", s.id).Msg("session closed")
}

// ExpireWaiting closes the session if its lone player has waited out
// WaitingTime without an opponent, returning the evicted players.
func (s *Session) ExpireWaiting() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.waitExpiredLocked() {
		return nil, false
	}
	names := s.namesLocked()
	s.players = nil
	s.closeLocked()
	log.Info().Str("session", s.id).Strs("players", names).Msg("no opponent found in time")
	return names, true
}

func (s *Session) waitExpiredLocked() bool {
	return s.phase == PhaseWaiting &&
		len(s.players) == 1 &&
		s.timings.WaitingTime > 0 &&
		s.clock.Now().Sub(s.waitingSince) >= s.timings.WaitingTime
}

func (s *Session) armWaitLocked() {
	s.waitingSince = s.clock.Now()
	if s.timings.WaitingTime <= 0 {
		s.timer.cancel()
		return
	}
	s.timer.arm(s.sched, s.timings.WaitingTime, s.waitTimerFired)
}

func (s *Session) waitTimerFired(gen uint64) {
	s.mu.Lock()
	due := s.phase != PhaseClosed && s.timer.current(gen) && s.waitExpiredLocked()
	hook := s.hooks.OnWaitExpired
	s.mu.Unlock()
	if !due {
		return
	}
	if hook != nil {
		hook(s)
		return
	}
	s.ExpireWaiting()
}

// Has reports whether name is seated in this session.
func (s *Session) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerLocked(name) != nil
}

// PlayerCount is the number of seated players.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Players returns seated usernames in join order.
func (s *Session) Players() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namesLocked()
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// WaitingForPlayers reports whether another player may still join.
func (s *Session) WaitingForPlayers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseWaiting && len(s.players) < MaxPlayers
}

// CoarsePhase is "waiting" until the match has been filled, "active" after.
func (s *Session) CoarsePhase() string {
	if s.WaitingForPlayers() {
		return "waiting"
	}
	return "active"
}

func (s *Session) playerLocked(name string) *player {
	for _, p := range s.players {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (s *Session) namesLocked() []string {
	out := make([]string, len(s.players))
	for i, p := range s.players {
		out[i] = p.name
	}
	return out
}

// ------------------------------- rounds ------------------------------------

// beginRound runs from the start-delay or result-delay timer.
func (s *Session) beginRound(gen uint64) {
	s.mu.Lock()
	if s.phase == PhaseClosed || !s.timer.current(gen) ||
		(s.phase != PhaseStarting && s.phase != PhaseRoundResolved) {
		s.mu.Unlock()
		return
	}
	drawn := s.beginRoundLocked()
	hook := s.hooks.OnMatchComplete
	s.mu.Unlock()

	if !drawn && hook != nil {
		hook(s, Draw)
	}
}

// beginRoundLocked starts the next round, or ends the match as a draw when no
// unused word is left. It reports whether a round was started.
func (s *Session) beginRoundLocked() bool {
	s.timer.cancel()
	s.round++
	s.resolution = ResolutionNone
	s.roundWinner = ""
	s.resolvedAt = time.Time{}

	next := s.nextWordLocked()
	if next == "" {
		s.phase = PhaseMatchComplete
		s.winner = Draw
		s.resolution = ResolutionExhausted
		s.resolvedAt = s.clock.Now()
		log.Info().Str("session", s.id).Int("round", s.round).Msg("word pool exhausted, match drawn")
		return false
	}

	s.word = next
	s.used[next] = struct{}{}
	for _, p := range s.players {
		p.wrong = 0
		p.guessed = make(map[rune]struct{})
	}
	s.roundStart = s.clock.Now()
	s.phase = PhaseRoundActive
	s.timer.arm(s.sched, s.timings.RoundDuration, s.roundTimedOut)
	log.Info().Str("session", s.id).Int("round", s.round).Msg("round started")
	return true
}

func (s *Session) nextWordLocked() string {
	for _, w := range s.words {
		if _, ok := s.used[w]; !ok {
			return w
		}
	}
	return ""
}

func (s *Session) roundTimedOut(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRoundActive || !s.timer.current(gen) {
		return
	}
	s.resolveRoundLocked(ResolutionTimeout, "")
	log.Info().Str("session", s.id).Int("round", s.round).Msg("round timed out")
}

// resolveRoundLocked moves an active round into the between-rounds pause.
func (s *Session) resolveRoundLocked(how Resolution, winner string) {
	s.resolution = how
	s.roundWinner = winner
	s.resolvedAt = s.clock.Now()
	s.phase = PhaseRoundResolved
	s.timer.arm(s.sched, s.timings.ResultDelay, s.beginRound)
}

// ------------------------------- guesses -----------------------------------

// Guess applies letter for name. It returns false, changing nothing, when the
// guess cannot be applied: no such player, no live round, five wrong guesses
// already, round time used up, not a letter, or already tried this round.
func (s *Session) Guess(name string, letter rune) bool {
	s.mu.Lock()
	accepted, reason, matchWinner := s.guessLocked(name, letter)
	hook := s.hooks.OnMatchComplete
	s.mu.Unlock()

	if !accepted {
		log.Debug().Str("session", s.id).Str("user", name).Str("letter", string(letter)).
			Str("reason", reason).Msg("guess rejected")
		return false
	}
	if matchWinner != "" && hook != nil {
		hook(s, matchWinner)
	}
	return true
}

func (s *Session) guessLocked(name string, letter rune) (accepted bool, reason, matchWinner string) {
	p := s.playerLocked(name)
	switch {
	case p == nil:
		return false, "not in session", ""
	case s.phase != PhaseRoundActive:
		return false, "no active round", ""
	case p.wrong >= MaxWrongGuesses:
		return false, "too many wrong guesses", ""
	case s.clock.Now().Sub(s.roundStart) >= s.timings.RoundDuration:
		return false, "round time elapsed", ""
	}

	letter = unicode.ToUpper(letter)
	if letter < 'A' || letter > 'Z' {
		return false, "not a letter", ""
	}
	if _, dup := p.guessed[letter]; dup {
		return false, "already guessed", ""
	}
	p.guessed[letter] = struct{}{}

	if !strings.ContainsRune(s.word, letter) {
		p.wrong++
		if p.wrong >= MaxWrongGuesses {
			log.Info().Str("session", s.id).Str("user", name).Msg("reached maximum wrong guesses")
		}
		return true, "", ""
	}
	if !s.solvedLocked(p) {
		return true, "", ""
	}

	p.score++
	log.Info().Str("session", s.id).Str("user", name).Int("round", s.round).Int("score", p.score).Msg("round won")
	if p.score >= WinningScore {
		s.timer.cancel()
		s.resolution = ResolutionWin
		s.roundWinner = name
		s.resolvedAt = s.clock.Now()
		s.winner = name
		s.phase = PhaseMatchComplete
		log.Info().Str("session", s.id).Str("winner", name).Msg("match complete")
		return true, "", name
	}
	s.resolveRoundLocked(ResolutionWin, name)
	return true, "", ""
}

func (s *Session) solvedLocked(p *player) bool {
	for _, c := range s.word {
		if _, ok := p.guessed[c]; !ok {
			return false
		}
	}
	return true
}

// ------------------------------- views -------------------------------------

// View returns what name currently sees. Unknown viewers get a view without
// per-player fields.
func (s *Session) View(name string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	v := View{
		SessionID:   s.id,
		Phase:       s.phase,
		Round:       s.round,
		Resolution:  s.resolution,
		RoundWinner: s.roundWinner,
		Winner:      s.winner,
		viewer:      name,
	}
	me := s.playerLocked(name)
	for _, p := range s.players {
		if p != me {
			v.Opponent, v.OpponentScore = p.name, p.score
		}
	}
	if me != nil {
		v.Score, v.Wrong = me.score, me.wrong
		v.Masked = mask(s.word, me.guessed)
	}

	switch s.phase {
	case PhaseWaiting:
		if s.timings.WaitingTime > 0 && len(s.players) > 0 {
			v.SecondsLeft = ceilSeconds(s.timings.WaitingTime - now.Sub(s.waitingSince))
		}
	case PhaseStarting:
		v.SecondsLeft = max(1, ceilSeconds(s.timings.StartDelay-now.Sub(s.startingAt)))
	case PhaseRoundActive:
		left := s.timings.RoundDuration - now.Sub(s.roundStart)
		v.SecondsLeft = max(0, int(left/time.Second))
		v.RoundExpired = left <= 0
		if v.RoundExpired || v.Wrong >= MaxWrongGuesses {
			v.Word = s.word
		}
	case PhaseRoundResolved:
		v.SecondsLeft = max(1, ceilSeconds(s.timings.ResultDelay-now.Sub(s.resolvedAt)))
		v.Word = s.word
	case PhaseMatchComplete:
		v.Word = s.word
	}
	return v
}

// Status renders View(name) in the client wire format.
func (s *Session) Status(name string) string {
	return Render(s.View(name))
}

// Snapshot copies the full session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:          s.id,
		Phase:       s.phase,
		Players:     s.namesLocked(),
		Scores:      make(map[string]int, len(s.players)),
		Wrong:       make(map[string]int, len(s.players)),
		Word:        s.word,
		Round:       s.round,
		Resolution:  s.resolution,
		RoundWinner: s.roundWinner,
		Winner:      s.winner,
	}
	for _, p := range s.players {
		snap.Scores[p.name] = p.score
		snap.Wrong[p.name] = p.wrong
	}
	for w := range s.used {
		snap.UsedWords = append(snap.UsedWords, w)
	}
	return snap
}

func mask(word string, guessed map[rune]struct{}) string {
	if word == "" {
		return ""
	}
	var b strings.Builder
	for i, c := range word {
		if i > 0 {
			b.WriteByte(' ')
		}
		if _, ok := guessed[c]; ok {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
