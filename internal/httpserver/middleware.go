package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/lobby"
	"github.com/robalobadob/wordduel/internal/registry"
)

type ctxClaimsKey struct{}

// requireToken rejects requests without a valid bearer token and stores its
// claims in the request context.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.BearerToken(r)
		if tokenStr == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		claims, err := s.signer.Parse(tokenStr)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxClaimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLive additionally requires the token's login to be the current one.
// Runs after requireToken.
func (s *Server) requireLive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := claimsFrom(r)
		if _, err := s.lobby.Authorize(c.Username, credentialOf(c)); err != nil {
			check := s.lobby.CheckSession(c.Username, credentialOf(c))
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":   "session_inactive",
				"state":   string(check.State),
				"message": check.Message,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin allows only live admin logins. Runs after requireLive.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := claimsFrom(r)
		if s.lobby.Role(r.Context(), c.Username) != string(registry.RoleAdmin) {
			http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(ctxClaimsKey{}).(*auth.Claims)
	if c == nil {
		return &auth.Claims{}
	}
	return c
}

func credentialOf(c *auth.Claims) lobby.Credential {
	return lobby.Credential{Token: c.SessionToken, Version: c.Version}
}

// statusFor maps lobby errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, lobby.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, lobby.ErrNotLoggedIn), errors.Is(err, lobby.ErrStaleSession):
		return http.StatusUnauthorized
	case errors.Is(err, lobby.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
