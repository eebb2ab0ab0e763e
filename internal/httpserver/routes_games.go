// apps/go-server/internal/httpserver/routes_games.go
//
// Game routes (all require auth):
//   - GET  /games                     list (?status=A,B&mine=1&limit=N)
//   - POST /games                     create
//   - GET  /games/{id}                game + players
//   - GET  /games/{id}/players        (?version=N for the scores as of N)
//   - POST /games/{id}/join|leave|terminate
//   - POST /games/{id}/turn           pending turn (placements / exchanges / neither)
//   - POST /games/{id}/play|skip|exchange
//   - POST /games/{id}/rack/{tileNumber}/exchange
//   - GET  /games/{id}/boards/{version}
//   - GET  /games/{id}/rack           caller's current hand
//   - GET  /games/{id}/racks/{round}  caller's hand at the start of a round
//   - GET  /games/{id}/actions        log (?from=N)
//   - GET  /games/{id}/words
//   - GET  /games/{id}/chats          (?since=N)
//   - POST /games/{id}/chats

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
	"github.com/robalobadob/scrabble/apps/go-server/internal/service"
	"github.com/robalobadob/scrabble/apps/go-server/internal/store"
)

func (s *Server) mountGames(r chi.Router) {
	r.Get("/games", s.handleListGames)
	r.Post("/games", s.handleCreateGame)
	r.Get("/games/{id}", s.handleGetGame)
	r.Get("/games/{id}/players", s.handlePlayers)
	r.Post("/games/{id}/join", s.handleJoin)
	r.Post("/games/{id}/leave", s.handleLeave)
	r.Post("/games/{id}/terminate", s.handleTerminate)
	r.Post("/games/{id}/turn", s.handleTurn)
	r.Post("/games/{id}/play", s.handlePlay)
	r.Post("/games/{id}/skip", s.handleSkip)
	r.Post("/games/{id}/exchange", s.handleExchange)
	r.Post("/games/{id}/rack/{tileNumber}/exchange", s.handleExchangeTile)
	r.Get("/games/{id}/boards/{version}", s.handleBoard)
	r.Get("/games/{id}/rack", s.handleCurrentRack)
	r.Get("/games/{id}/racks/{round}", s.handleRack)
	r.Get("/games/{id}/actions", s.handleActions)
	r.Get("/games/{id}/words", s.handleWords)
	r.Get("/games/{id}/chats", s.handleChats)
	r.Post("/games/{id}/chats", s.handlePostChat)
}

// intParam parses a numeric URL parameter.
func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}

// intQuery parses a numeric query parameter, def when absent or invalid.
func intQuery(r *http.Request, name string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return n
	}
	return def
}

func badRequest(w http.ResponseWriter, code string) {
	http.Error(w, `{"error":"`+code+`"}`, http.StatusBadRequest)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{Limit: intQuery(r, "limit", 50)}
	if v := r.URL.Query().Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			f.Statuses = append(f.Statuses, game.Status(strings.ToUpper(strings.TrimSpace(st))))
		}
	}
	if r.URL.Query().Get("mine") == "1" {
		f.UserID = userFrom(r).ID
	}
	gs, err := s.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(gs)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req service.NewGame
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	// fixed draw order is for local testing only
	if s.cfg.Production {
		req.Stack = nil
	}
	me := userFrom(r)
	g, err := s.svc.Create(r.Context(), me.ID, me.Username, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type gameRes struct {
	Game    game.Game     `json:"game"`
	Players []game.Player `json:"players"`
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, players, err := s.svc.Game(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(gameRes{Game: g, Players: players})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		players []game.Player
		err     error
	)
	if v := r.URL.Query().Get("version"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			badRequest(w, "invalid_version")
			return
		}
		players, err = s.svc.PlayersAt(r.Context(), id, n)
	} else {
		_, players, err = s.svc.Game(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(players)
}

// writeResult encodes the actions a command appended.
func writeResult(w http.ResponseWriter, r *http.Request, res *game.Result, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r)
	res, err := s.svc.Join(r.Context(), chi.URLParam(r, "id"), me.ID, me.Username)
	writeResult(w, r, res, err)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Leave(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID)
	writeResult(w, r, res, err)
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Terminate(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID)
	writeResult(w, r, res, err)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var t game.Turn
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	res, err := s.svc.Submit(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, t)
	writeResult(w, r, res, err)
}

type playReq struct {
	Version    int              `json:"version"`
	Placements []game.Placement `json:"placements"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	res, err := s.svc.Play(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, req.Version, req.Placements)
	writeResult(w, r, res, err)
}

type versionReq struct {
	Version int `json:"version"`
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	var req versionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	res, err := s.svc.Skip(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, req.Version)
	writeResult(w, r, res, err)
}

type exchangeReq struct {
	Version     int   `json:"version"`
	TileNumbers []int `json:"tileNumbers"`
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	res, err := s.svc.Exchange(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, req.Version, req.TileNumbers)
	writeResult(w, r, res, err)
}

func (s *Server) handleExchangeTile(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(r, "tileNumber")
	if !ok {
		badRequest(w, "invalid_tile_number")
		return
	}
	var req versionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	t, err := s.svc.ExchangeTile(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, req.Version, n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(t)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	v, ok := intParam(r, "version")
	if !ok {
		badRequest(w, "invalid_version")
		return
	}
	b, err := s.svc.Board(r.Context(), chi.URLParam(r, "id"), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(b)
}

func (s *Server) handleCurrentRack(w http.ResponseWriter, r *http.Request) {
	rack, err := s.svc.CurrentRack(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(rack)
}

func (s *Server) handleRack(w http.ResponseWriter, r *http.Request) {
	round, ok := intParam(r, "round")
	if !ok {
		badRequest(w, "invalid_round")
		return
	}
	rack, err := s.svc.Rack(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, round)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(rack)
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	as, err := s.svc.Actions(r.Context(), chi.URLParam(r, "id"), intQuery(r, "from", 1))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(as)
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	ws, err := s.svc.Words(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(ws)
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.Chats(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, intQuery(r, "since", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(cs)
}

func (s *Server) handlePostChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	c, err := s.svc.Chat(r.Context(), chi.URLParam(r, "id"), userFrom(r).ID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
