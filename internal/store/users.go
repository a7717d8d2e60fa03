// internal/store/users.go
//
// Accounts: credentials, roles and the current session token.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidAccount wraps username/password validation failures.
var ErrInvalidAccount = errors.New("invalid account")

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// Account is a stored user without the password hash.
type Account struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Wins      int       `json:"wins"`
	CreatedAt time.Time `json:"createdAt"`
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func validateUsername(u string) error {
	if len(u) < 3 || len(u) > 24 {
		return fmt.Errorf("%w: username must be 3–24 chars", ErrInvalidAccount)
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: username: letters, numbers, underscore only", ErrInvalidAccount)
		}
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < 8 || len(p) > 100 {
		return fmt.Errorf("%w: password must be 8–100 chars", ErrInvalidAccount)
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// VerifyCredentials checks password against the stored hash. It returns
// ErrNotFound for unknown users and ErrWrongPassword on mismatch.
func (s *Store) VerifyCredentials(ctx context.Context, username, password string) (Account, error) {
	var (
		a       Account
		hash    string
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, user_type, wins, created_at FROM users WHERE username=?`,
		normalizeUsername(username),
	).Scan(&a.Username, &hash, &a.Role, &a.Wins, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("load user: %w", err)
	}
	if !checkPassword(hash, password) {
		return Account{}, ErrWrongPassword
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return a, nil
}

// IssueToken stores and returns a fresh session token for username.
func (s *Store) IssueToken(ctx context.Context, username string) (string, error) {
	token := uuid.NewString()
	res, err := s.db.ExecContext(ctx, `UPDATE users SET session_token=? WHERE username=?`, token, username)
	if err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return "", err
	}
	return token, nil
}

// ClearToken forgets username's session token. Unknown users are ignored.
func (s *Store) ClearToken(ctx context.Context, username string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET session_token=NULL WHERE username=?`, username); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// ClearAllTokens forgets every stored session token.
func (s *Store) ClearAllTokens(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET session_token=NULL WHERE session_token IS NOT NULL`); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Role returns username's stored role.
func (s *Store) Role(ctx context.Context, username string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT user_type FROM users WHERE username=?`, username).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load role: %w", err)
	}
	return role, nil
}

// CreatePlayer inserts a new account. role defaults to player.
func (s *Store) CreatePlayer(ctx context.Context, username, password, role string) (Account, error) {
	username = normalizeUsername(username)
	if err := validateUsername(username); err != nil {
		return Account{}, err
	}
	if err := validatePassword(password); err != nil {
		return Account{}, err
	}
	if role == "" {
		role = RolePlayer
	}
	if role != RolePlayer && role != RoleAdmin {
		return Account{}, fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, role)
	}

	h, err := hashPassword(password)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	a := Account{Username: username, Role: role, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, user_type, created_at) VALUES (?,?,?,?)`,
		a.Username, h, a.Role, a.CreatedAt.Format(time.RFC3339))
	if isDuplicate(err) {
		return Account{}, ErrUsernameTaken
	}
	if err != nil {
		return Account{}, fmt.Errorf("insert user: %w", err)
	}
	return a, nil
}

// EnsureAdmin creates an admin account unless username already exists.
func (s *Store) EnsureAdmin(ctx context.Context, username, password string) (created bool, err error) {
	_, err = s.CreatePlayer(ctx, username, password, RoleAdmin)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// UpdatePassword replaces a player's password. Admin accounts are not
// reachable through it.
func (s *Store) UpdatePassword(ctx context.Context, username, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	h, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=? WHERE username=? AND user_type='player'`, h, username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return mustAffect(res)
}

// DeletePlayer removes a player account and returns its stored username,
// which may differ in case from the one given.
func (s *Store) DeletePlayer(ctx context.Context, username string) (string, error) {
	var stored string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM users WHERE username=? AND user_type='player' RETURNING username`, username).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("delete user: %w", err)
	}
	return stored, nil
}

// SearchPlayers lists player accounts whose username contains term,
// alphabetically.
// An empty term lists everyone.
func (s *Store) SearchPlayers(ctx context.Context, term string) ([]Account, error) {
	pattern := "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term) + "%"
	rows, err := s.db.QueryContext(ctx, `
        SELECT username, user_type, wins, created_at
        FROM users
        WHERE username LIKE ? ESCAPE '\' AND user_type='player'
        ORDER BY username COLLATE NOCASE
        LIMIT 100`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		var a Account
		var created string
		if err := rows.Scan(&a.Username, &a.Role, &a.Wins, &created); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, a)
	}
	return out, rows.Err()
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
