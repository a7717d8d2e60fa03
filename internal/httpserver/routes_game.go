// internal/httpserver/routes_game.go
//
// Login and game routes.
//   - POST /auth/login   → credentials in, bearer token (+ takeover bundle) out
//   - POST /auth/logout  → end this login; a displaced token is refused
//   - GET  /auth/session → ACTIVE | NO_SESSION | DISPLACED | FORCE_LOGOUT
//   - GET  /auth/role    → role of the caller
//   - POST /game/start   → matchmaking
//   - POST /game/guess   → one letter
//   - POST /game/quit    → leave the current game
//   - GET  /game/status  → status line + structured view
//
// Every response that has a legacy string form carries it as "legacy" so
// older clients keep parsing the same text.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/lobby"
)

func (s *Server) mountAuth(r chi.Router) {
	r.Post("/auth/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/session", s.handleSession)
		r.Get("/auth/role", s.handleRole)
	})
}

func (s *Server) mountGame(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken, s.requireLive)
		r.Post("/game/start", s.handleStart)
		r.With(s.limitGuesses).Post("/game/guess", s.handleGuess)
		r.Post("/game/quit", s.handleQuit)
		r.Get("/game/status", s.handleStatus)
	})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRes struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Username  string          `json:"username"`
	Role      string          `json:"role"`
	Takeover  *lobby.Takeover `json:"takeover,omitempty"`
	Legacy    string          `json:"legacy"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.lobby.Login(r.Context(), strings.TrimSpace(body.Username), body.Password)
	if errors.Is(err, lobby.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":  "Invalid username or password",
			"legacy": lobby.LoginFailure(err),
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user", body.Username).Msg("login")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login_failed", "legacy": lobby.LoginFailure(err)})
		return
	}

	tok, exp, err := s.signer.Sign(auth.Claims{
		Username:     res.Username,
		Role:         string(res.Role),
		SessionToken: res.Credential.Token,
		Version:      res.Credential.Version,
	})
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginRes{
		Token:     tok,
		ExpiresAt: exp,
		Username:  res.Username,
		Role:      string(res.Role),
		Takeover:  res.Takeover,
		Legacy:    res.String(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	if err := s.lobby.Logout(r.Context(), c.Username, credentialOf(c)); err != nil {
		http.Error(w, `{"error":"stale_session"}`, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	check := s.lobby.CheckSession(c.Username, credentialOf(c))
	writeJSON(w, http.StatusOK, map[string]string{
		"state":   string(check.State),
		"message": check.Message,
		"legacy":  check.String(),
	})
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"role": s.lobby.Role(r.Context(), claimsFrom(r).Username)})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	res, err := s.lobby.RequestStart(claimsFrom(r).Username)
	if err != nil {
		jsonError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    string(res.Status),
		"sessionId": res.SessionID,
		"phase":     res.Phase,
		"message":   res.Message(),
	})
}

type guessReq struct {
	Letter string `json:"letter"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var body guessReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	letter := strings.TrimSpace(body.Letter)
	if utf8.RuneCountInString(letter) != 1 {
		http.Error(w, `{"error":"letter must be a single character"}`, http.StatusBadRequest)
		return
	}
	ch, _ := utf8.DecodeRuneInString(letter)
	user := claimsFrom(r).Username
	accepted := s.lobby.Guess(user, ch)
	st := s.lobby.Status(user)
	writeJSON(w, http.StatusOK, map[string]any{
		"accepted": accepted,
		"status":   st.Text,
		"view":     st.View,
	})
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	s.lobby.Quit(claimsFrom(r).Username)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobby.Status(claimsFrom(r).Username))
}
