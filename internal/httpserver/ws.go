// internal/httpserver/ws.go
//
// GET /game/ws streams the caller's status once per StatusInterval so clients
// need not poll. Each frame also carries the session check; the stream ends
// after the first frame whose check is not ACTIVE.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/lobby"
)

const wsWriteWait = 5 * time.Second

type statusFrame struct {
	lobby.Status
	Session lobby.SessionCheck `json:"session"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.opts.ClientOrigin
		},
	}
}

func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	cred := credentialOf(c)

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("user", c.Username).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.opts.StatusInterval)
	defer ticker.Stop()
	for {
		frame := statusFrame{
			Status:  s.lobby.Status(c.Username),
			Session: s.lobby.CheckSession(c.Username, cred),
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			log.Debug().Err(err).Str("user", c.Username).Msg("websocket write")
			return
		}
		if frame.Session.State != lobby.StateActive {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, frame.Session.String()),
				time.Now().Add(wsWriteWait))
			return
		}
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
