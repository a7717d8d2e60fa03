// internal/httpserver/server.go
//
// HTTP server wiring for the word duel backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/leaderboard", "POST /auth/login".
//   - Authenticated endpoints: /auth/*, /game/* (routes_game.go).
//   - Admin endpoints: /admin/* (routes_admin.go).
//   - Live status stream: GET /game/ws (ws.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - Every game route requires a bearer token whose login is still the live
//     one; a displaced client gets 401 with the session state so it can sign
//     itself out.
//   - The WebSocket route sits outside the timeout group; it is long-lived.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/lobby"
)

// Options tune the transport.
type Options struct {
	ClientOrigin   string
	GuessRPS       float64
	GuessBurst     int
	StatusInterval time.Duration // /game/ws push period
}

// Server bundles the router with the lobby it serves.
type Server struct {
	r       *chi.Mux
	lobby   *lobby.Lobby
	signer  *auth.Signer
	guesses *limiterSet
	opts    Options
	http    *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(l *lobby.Lobby, signer *auth.Signer, opts Options) *Server {
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = time.Second
	}
	s := &Server{
		r:       chi.NewRouter(),
		lobby:   l,
		signer:  signer,
		guesses: newLimiterSet(opts.GuessRPS, opts.GuessBurst),
		opts:    opts,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(cors(opts.ClientOrigin))

	s.r.With(s.requireToken, s.requireLive).Get("/game/ws", s.handleStatusStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"wordduel","endpoints":["/health","POST /auth/login","POST /game/start","POST /game/guess","GET /game/status","GET /leaderboard"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Get("/leaderboard", s.handleLeaderboard)
		s.mountAuth(r)
		s.mountGame(r)
		s.mountAdmin(r)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
		})
	})

	return s
}

// Start serves HTTP on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v; encoding errors are only logged since the status line
// has already gone out.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// jsonError writes {"error": msg}.
func jsonError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.lobby.Leaderboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		http.Error(w, `{"error":"Error retrieving leaderboard"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"players": top,
		"legacy":  lobby.FormatLeaderboard(top),
	})
}
