// internal/registry/registry.go
//
// In-memory registry of live game sessions and logged-in players.
// Characteristics:
//   - Game sessions keyed by ID, with a username → session index.
//   - Player sessions (login identity, not game state) keyed by username.
//   - Concurrency-safe via RWMutex; multi-step changes run inside Update so
//     matchmaking's find-then-join cannot interleave with another join.
//   - State is lost when the process restarts.
//
// Lock order is registry first, then a game session's own lock. Game session
// hooks run without the session lock held, so they may call Update.

package registry

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/robalobadob/wordduel/internal/game"
)

// Role of a logged-in user.
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// PlayerSession is one user's current login. A new login replaces the record
// rather than mutating it; only the force-logout flag changes in place.
type PlayerSession struct {
	Username  string
	Role      Role
	Token     string
	Version   uint64 // assigned by PutPlayer, strictly increasing per registry
	CreatedAt time.Time

	mu       sync.Mutex
	forced   bool
	forceMsg string
}

// ForceLogout flags the login so its next session check tells the client to
// sign out.
func (p *PlayerSession) ForceLogout(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forced, p.forceMsg = true, msg
}

// Forced reports whether ForceLogout was called, and with what message.
func (p *PlayerSession) Forced() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forceMsg, p.forced
}

// Registry owns every live game session and player session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	order    []string          // session IDs in creation order
	byUser   map[string]string // username → session ID
	players  map[string]*PlayerSession
	version  uint64
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*game.Session),
		byUser:   make(map[string]string),
		players:  make(map[string]*PlayerSession),
	}
}

// Update runs fn with exclusive access.
func (r *Registry) Update(fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&Tx{r: r, writable: true})
}

// View runs fn with shared access. Mutating a read-only Tx panics.
func (r *Registry) View(fn func(tx *Tx) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(&Tx{r: r})
}

// SessionOf is a read-only shortcut for Tx.SessionOf.
func (r *Registry) SessionOf(user string) *game.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&Tx{r: r}).SessionOf(user)
}

// Player is a read-only shortcut for Tx.Player.
func (r *Registry) Player(user string) *PlayerSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players[user]
}

// Tx is a view of the registry valid only inside Update or View.
type Tx struct {
	r        *Registry
	writable bool
}

func (tx *Tx) mustWrite() {
	if !tx.writable {
		panic("registry: mutation in read-only transaction")
	}
}

// SessionOf returns the game session user is bound to, or nil.
func (tx *Tx) SessionOf(user string) *game.Session {
	id, ok := tx.r.byUser[user]
	if !ok {
		return nil
	}
	return tx.r.sessions[id]
}

// Session looks up a game session by ID.
func (tx *Tx) Session(id string) *game.Session { return tx.r.sessions[id] }

// Sessions returns live game sessions, oldest first.
func (tx *Tx) Sessions() []*game.Session {
	return lo.Map(tx.r.order, func(id string, _ int) *game.Session { return tx.r.sessions[id] })
}

// Add registers s. An existing session with the same ID is replaced.
func (tx *Tx) Add(s *game.Session) {
	tx.mustWrite()
	if _, ok := tx.r.sessions[s.ID()]; !ok {
		tx.r.order = append(tx.r.order, s.ID())
	}
	tx.r.sessions[s.ID()] = s
}

// Remove drops the session with id and every username bound to it.
func (tx *Tx) Remove(id string) {
	tx.mustWrite()
	if _, ok := tx.r.sessions[id]; !ok {
		return
	}
	delete(tx.r.sessions, id)
	tx.r.order = lo.Without(tx.r.order, id)
	for u, sid := range tx.r.byUser {
		if sid == id {
			delete(tx.r.byUser, u)
		}
	}
}

// Bind records that user plays in session id.
func (tx *Tx) Bind(user, id string) {
	tx.mustWrite()
	tx.r.byUser[user] = id
}

// Unbind forgets user's game session.
func (tx *Tx) Unbind(user string) {
	tx.mustWrite()
	delete(tx.r.byUser, user)
}

// Player returns user's login, or nil.
func (tx *Tx) Player(user string) *PlayerSession { return tx.r.players[user] }

// Players returns every current login.
func (tx *Tx) Players() []*PlayerSession {
	return lo.Values(tx.r.players)
}

// PutPlayer stores p as user's current login, stamping a fresh Version.
func (tx *Tx) PutPlayer(p *PlayerSession) {
	tx.mustWrite()
	tx.r.version++
	p.Version = tx.r.version
	tx.r.players[p.Username] = p
}

// DeletePlayer removes user's login.
func (tx *Tx) DeletePlayer(user string) {
	tx.mustWrite()
	delete(tx.r.players, user)
}
