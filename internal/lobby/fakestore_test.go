package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/robalobadob/wordduel/internal/store"
)

type fakeUser struct {
	password string
	role     string
	token    string
	wins     int
}

// fakeStore is an in-memory Store. Set fail to make every call error.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*fakeUser
	cfg   store.GameConfig
	seq   int
	fail  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*fakeUser{}, cfg: store.GameConfig{WaitTime: 10, RoundDuration: 30}}
}

func (f *fakeStore) add(name, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[name] = &fakeUser{password: "password1", role: role}
}

func (f *fakeStore) tokenOf(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.users[name]; u != nil {
		return u.token
	}
	return ""
}

func (f *fakeStore) winsOf(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.users[name]; u != nil {
		return u.wins
	}
	return -1
}

// lookup matches usernames case-insensitively, like the users table.
func (f *fakeStore) lookup(name string) (string, *fakeUser) {
	for k, u := range f.users {
		if strings.EqualFold(k, name) {
			return k, u
		}
	}
	return "", nil
}

func (f *fakeStore) VerifyCredentials(_ context.Context, username, password string) (store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return store.Account{}, f.fail
	}
	username, u := f.lookup(username)
	if u == nil {
		return store.Account{}, store.ErrNotFound
	}
	if u.password != password {
		return store.Account{}, store.ErrWrongPassword
	}
	return store.Account{Username: username, Role: u.role, Wins: u.wins}, nil
}

func (f *fakeStore) IssueToken(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	tok := fmt.Sprintf("tok-%d", f.seq)
	f.users[username].token = tok
	return tok, nil
}

func (f *fakeStore) ClearToken(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.users[username]; u != nil {
		u.token = ""
	}
	return nil
}

func (f *fakeStore) ClearAllTokens(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		u.token = ""
	}
	return nil
}

func (f *fakeStore) Role(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.users[username]; u != nil {
		return u.role, nil
	}
	return "", store.ErrNotFound
}

func (f *fakeStore) IncrementWins(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	u := f.users[username]
	if u == nil {
		return store.ErrNotFound
	}
	u.wins++
	return nil
}

func (f *fakeStore) TopPlayers(_ context.Context, n int) ([]store.Standing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Standing
	for name, u := range f.users {
		if u.role == store.RolePlayer {
			out = append(out, store.Standing{Username: name, Wins: u.wins})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeStore) CreatePlayer(_ context.Context, username, password, role string) (store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; ok {
		return store.Account{}, store.ErrUsernameTaken
	}
	f.users[username] = &fakeUser{password: password, role: role}
	return store.Account{Username: username, Role: role}, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[username]
	if u == nil || u.role != store.RolePlayer {
		return store.ErrNotFound
	}
	u.password = password
	return nil
}

func (f *fakeStore) DeletePlayer(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, u := f.lookup(username)
	if u == nil || u.role != store.RolePlayer {
		return "", store.ErrNotFound
	}
	delete(f.users, stored)
	return stored, nil
}

func (f *fakeStore) SearchPlayers(_ context.Context, term string) ([]store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Account
	for name, u := range f.users {
		if u.role == store.RolePlayer && strings.Contains(name, term) {
			out = append(out, store.Account{Username: name, Role: u.role, Wins: u.wins})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeStore) LoadGameConfig(context.Context) (store.GameConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return store.GameConfig{}, f.fail
	}
	return f.cfg, nil
}

func (f *fakeStore) SaveGameConfig(_ context.Context, gc store.GameConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.cfg = gc
	return nil
}

var errDown = errors.New("database is down")
