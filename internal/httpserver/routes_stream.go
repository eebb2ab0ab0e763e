// apps/go-server/internal/httpserver/routes_stream.go
//
// Waiting for the action log to grow.
//   - GET /games/{id}/actions/{version}          the action at version
//     ?wait=1 holds the request until it exists (long-poll); 204 when
//     LONG_POLL_SECONDS pass first.
//   - GET /games/{id}/actions/stream?from=N      WebSocket push of every
//     action from version N on. The server closes the stream after the
//     game's final action.
//
// Both routes are mounted outside the request timeout.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

func (s *Server) mountStream(r chi.Router) {
	r.Get("/games/{id}/actions/stream", s.handleStream)
	r.Get("/games/{id}/actions/{version}", s.handleAction)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok := intParam(r, "version")
	if !ok {
		badRequest(w, "invalid_version")
		return
	}
	if q := r.URL.Query().Get("wait"); q != "1" && q != "true" {
		a, err := s.svc.Action(r.Context(), id, v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.LongPoll)
	defer cancel()
	a, err := s.svc.WaitAction(ctx, id, v)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, a)
	case errors.Is(err, context.DeadlineExceeded):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		writeError(w, r, err)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, _, err := s.svc.Game(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	from := intQuery(r, "from", 1)
	if from < 1 {
		from = 1
	}

	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == s.cfg.ClientOrigin
		},
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("game", id).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	user := userFrom(r).ID
	log.Debug().Str("game", id).Str("user", user).Int("from", from).Msg("stream opened")

	go readPump(conn, cancel)
	actions := s.follow(ctx, id, from)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case a, ok := <-actions:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
				return
			}
			if err := conn.WriteJSON(a); err != nil {
				log.Debug().Err(err).Str("game", id).Str("user", user).Msg("stream write")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// follow emits the actions of a game from version `from` on and closes
// the channel after the final action.
func (s *Server) follow(ctx context.Context, id string, from int) <-chan game.Action {
	out := make(chan game.Action, 16)
	go func() {
		defer close(out)
		for v := from; ; v++ {
			a, err := s.svc.WaitAction(ctx, id, v)
			if err != nil || a.Version < v {
				return
			}
			select {
			case out <- a:
			case <-ctx.Done():
				return
			}
			if a.GameStatus.Terminal() {
				return
			}
		}
	}()
	return out
}

// readPump drains client frames so pongs and close frames are processed.
// Clients are not expected to send anything.
func readPump(conn *websocket.Conn, done context.CancelFunc) {
	defer done()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("stream read")
			}
			return
		}
	}
}
