// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the Scrabble backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     request logging).
//   - Public endpoints: "/", "/health", /bags, /auth/signup|login|logout.
//   - Authenticated endpoints: /auth/me, /stats/me, /leaderboard and the
//     game routes (routes_games.go, routes_stream.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Long-poll and WebSocket routes are mounted outside the request
//     timeout; they bound themselves.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scrabble/apps/go-server/internal/config"
	"github.com/robalobadob/scrabble/apps/go-server/internal/service"
	"github.com/robalobadob/scrabble/apps/go-server/internal/stats"
)

// Server bundles the router and its dependencies.
type Server struct {
	r     *chi.Mux
	cfg   config.Config
	svc   *service.Service
	db    *sql.DB
	stats *stats.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, svc *service.Service, db *sql.DB, st *stats.Store) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, svc: svc, db: db, stats: st}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"scrabble-go","endpoints":["/health","/bags","/auth/*","/games","/leaderboard"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		mountBags(r)
	})

	s.mountAuthRoutes()

	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(10 * time.Second))
			r.Get("/stats/me", s.handleMyStats)
			r.Get("/leaderboard", s.handleLeaderboard)
			s.mountGames(r)
		})
		s.mountStream(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

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

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one debug line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Msg("http")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------- stats -------------------------------------

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.ForUser(r.Context(), userFrom(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}
	rows, err := s.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}
