// internal/httpserver/routes_admin.go
//
// Admin routes, all behind a live admin login:
//   - POST   /admin/players        → create a player
//   - PUT    /admin/players/{name} → set a player's password
//   - DELETE /admin/players/{name} → delete a player (forces their logout)
//   - GET    /admin/players?q=     → search players
//   - GET    /admin/config         → current wait/round durations (seconds)
//   - PUT    /admin/config         → change them for sessions created from now on

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/lobby"
	"github.com/robalobadob/wordduel/internal/store"
)

func (s *Server) mountAdmin(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken, s.requireLive, s.requireAdmin)
		r.Post("/admin/players", s.handleCreatePlayer)
		r.Put("/admin/players/{name}", s.handleUpdatePlayer)
		r.Delete("/admin/players/{name}", s.handleDeletePlayer)
		r.Get("/admin/players", s.handleSearchPlayers)
		r.Get("/admin/config", s.handleGetConfig)
		r.Put("/admin/config", s.handleSetConfig)
	})
}

// adminError maps store and lobby errors for admin handlers.
func adminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidAccount):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Error().Err(err).Msg("admin operation")
		}
		jsonError(w, code, err.Error())
	}
}

type playerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var body playerReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	a, err := s.lobby.CreatePlayer(r.Context(), claimsFrom(r).Username, body.Username, body.Password)
	if err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var body playerReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.lobby.UpdatePlayer(r.Context(), claimsFrom(r).Username, chi.URLParam(r, "name"), body.Password); err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.lobby.DeletePlayer(r.Context(), claimsFrom(r).Username, chi.URLParam(r, "name")); err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSearchPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	found, err := s.lobby.SearchPlayers(r.Context(), claimsFrom(r).Username, q)
	if err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"players": found,
		"legacy":  lobby.FormatSearch(q, found),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	gc, err := s.lobby.GameConfig(r.Context(), claimsFrom(r).Username)
	if err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"waitTime":      gc.WaitTime,
		"roundDuration": gc.RoundDuration,
		"legacy":        lobby.FormatGameConfig(gc),
	})
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var body store.GameConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.lobby.SetGameConfig(r.Context(), claimsFrom(r).Username, body); err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
