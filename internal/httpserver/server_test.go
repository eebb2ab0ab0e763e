package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/scrabble/apps/go-server/internal/bag"
	"github.com/robalobadob/scrabble/apps/go-server/internal/config"
	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
	"github.com/robalobadob/scrabble/apps/go-server/internal/service"
	"github.com/robalobadob/scrabble/apps/go-server/internal/stats"
	"github.com/robalobadob/scrabble/apps/go-server/internal/store"
	"github.com/robalobadob/scrabble/apps/go-server/internal/words"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "http.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatal(err)
	}
	dict, err := words.Load("")
	if err != nil {
		t.Fatal(err)
	}
	st := stats.NewStore(db)
	svc := service.New(store.NewSQLiteStore(db), dict, service.Options{Salt: "salt", Results: st})
	t.Cleanup(svc.Close)
	cfg := config.Config{
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "scrabble_token",
		ClientOrigin:   "http://localhost:5173",
		TurnDuration:   120,
		LongPoll:       50 * time.Millisecond,
	}
	return New(cfg, svc, db, st)
}

// do performs a request against the router and decodes the JSON body into
// out when out is non-nil.
func do(t *testing.T, s *Server, method, path, token string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func signup(t *testing.T, s *Server, username string) string {
	t.Helper()
	var res struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if code := do(t, s, http.MethodPost, "/auth/signup", "", credentials{username, "password123"}, &res); code != http.StatusOK {
		t.Fatalf("signup %s: %d", username, code)
	}
	return res.Token
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	tok := signup(t, s, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"health", http.MethodGet, "/health", "", nil, http.StatusOK},
		{"me", http.MethodGet, "/auth/me", tok, nil, http.StatusOK},
		{"me without token", http.MethodGet, "/auth/me", "", nil, http.StatusUnauthorized},
		{"me with bad token", http.MethodGet, "/auth/me", "nope", nil, http.StatusUnauthorized},
		{"games without token", http.MethodGet, "/games", "", nil, http.StatusUnauthorized},
		{"duplicate signup", http.MethodPost, "/auth/signup", "", credentials{"ALICE", "password123"}, http.StatusConflict},
		{"short password", http.MethodPost, "/auth/signup", "", credentials{"carol", "pw"}, http.StatusBadRequest},
		{"login", http.MethodPost, "/auth/login", "", credentials{"alice", "password123"}, http.StatusOK},
		{"wrong password", http.MethodPost, "/auth/login", "", credentials{"alice", "password124"}, http.StatusUnauthorized},
		{"stats", http.MethodGet, "/stats/me", tok, nil, http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := do(t, s, tt.method, tt.path, tt.token, tt.body, nil); code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestBags(t *testing.T) {
	s := newTestServer(t)

	var all []bagRes
	if code := do(t, s, http.MethodGet, "/bags", "", nil, &all); code != http.StatusOK || len(all) != len(bag.Languages) {
		t.Fatalf("bags: %d %d entries", code, len(all))
	}

	tests := []struct {
		lang string
		want int
		size int
	}{
		{"en", http.StatusOK, 98},
		{"tr", http.StatusOK, 98},
		{"xx", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			var b bagRes
			code := do(t, s, http.MethodGet, "/bags/"+tt.lang, "", nil, &b)
			if code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
			if code != http.StatusOK {
				return
			}
			if b.Language != tt.lang || len(b.Letters) == 0 || b.Size != tt.size {
				t.Fatalf("bag = %+v", b)
			}
		})
	}
}

// newGame signs up alice and bob and starts a two player game with CAT on
// top of the bag.
func newGame(t *testing.T, s *Server) (id, alice, bob string) {
	t.Helper()
	alice, bob = signup(t, s, "alice"), signup(t, s, "bob")
	var g game.Game
	code := do(t, s, http.MethodPost, "/games", alice, service.NewGame{
		Language: "en", Name: "friendly", ExpectedPlayerCount: 2, Stack: []string{"C", "A", "T"},
	}, &g)
	if code != http.StatusCreated || g.Status != game.StatusWaiting {
		t.Fatalf("create: %d %+v", code, g)
	}
	if code := do(t, s, http.MethodPost, "/games/"+g.ID+"/join", bob, nil, nil); code != http.StatusOK {
		t.Fatalf("join: %d", code)
	}
	return g.ID, alice, bob
}

func TestGameFlow(t *testing.T) {
	s := newTestServer(t)
	id, alice, bob := newGame(t, s)
	carol := signup(t, s, "carol")

	var gr gameRes
	if code := do(t, s, http.MethodGet, "/games/"+id, carol, nil, &gr); code != http.StatusOK {
		t.Fatalf("get: %d", code)
	}
	if gr.Game.Version != 3 || len(gr.Players) != 2 || gr.Game.CurrentPlayerNumber != 1 {
		t.Fatalf("game = %+v", gr)
	}

	var e errorBody
	code := do(t, s, http.MethodPost, "/games/"+id+"/play", alice, playReq{Version: 3, Placements: []game.Placement{
		{TileNumber: 3, Row: 8, Column: 7},
		{TileNumber: 2, Row: 8, Column: 8},
		{TileNumber: 1, Row: 8, Column: 9},
	}}, &e)
	if code != http.StatusUnprocessableEntity || e.Error != "invalid_word" || len(e.Words) != 1 || e.Words[0] != "TAC" {
		t.Fatalf("invalid word: %d %+v", code, e)
	}

	e = errorBody{}
	code = do(t, s, http.MethodPost, "/games/"+id+"/skip", bob, versionReq{Version: 3}, &e)
	if code != http.StatusConflict || e.Error != "not_player_turn" || e.Retry != "refresh" {
		t.Fatalf("out of turn: %d %+v", code, e)
	}

	var res game.Result
	code = do(t, s, http.MethodPost, "/games/"+id+"/turn", alice, game.Turn{Version: 3, Placements: []game.Placement{
		{TileNumber: 1, Row: 8, Column: 7},
		{TileNumber: 2, Row: 8, Column: 8},
		{TileNumber: 3, Row: 8, Column: 9},
	}}, &res)
	if code != http.StatusOK || len(res.Actions) != 1 || res.Actions[0].Score != 10 {
		t.Fatalf("play: %d %+v", code, res)
	}

	e = errorBody{}
	code = do(t, s, http.MethodPost, "/games/"+id+"/skip", alice, versionReq{Version: 3}, &e)
	if code != http.StatusConflict || e.Error != "stale_turn" {
		t.Fatalf("stale: %d %+v", code, e)
	}

	reads := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"board", "/games/" + id + "/boards/4", carol, http.StatusOK},
		{"unknown board", "/games/" + id + "/boards/9", carol, http.StatusNotFound},
		{"own rack", "/games/" + id + "/racks/1", bob, http.StatusOK},
		{"current rack", "/games/" + id + "/rack", alice, http.StatusOK},
		{"stranger rack", "/games/" + id + "/racks/1", carol, http.StatusForbidden},
		{"actions", "/games/" + id + "/actions?from=2", carol, http.StatusOK},
		{"words", "/games/" + id + "/words", carol, http.StatusOK},
		{"action", "/games/" + id + "/actions/4", carol, http.StatusOK},
		{"unknown game", "/games/missing", carol, http.StatusNotFound},
		{"players at version", "/games/" + id + "/players?version=3", carol, http.StatusOK},
		{"players at unknown version", "/games/" + id + "/players?version=9", carol, http.StatusNotFound},
		{"players at bad version", "/games/" + id + "/players?version=x", carol, http.StatusBadRequest},
		{"mine", "/games?mine=1&status=in_progress", bob, http.StatusOK},
	}
	for _, tt := range reads {
		t.Run(tt.name, func(t *testing.T) {
			if code := do(t, s, http.MethodGet, tt.path, tt.token, nil, nil); code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
		})
	}

	for v, want := range map[int]int{3: 0, 4: 10} {
		var ps []game.Player
		do(t, s, http.MethodGet, "/games/"+id+"/players?version="+strconv.Itoa(v), carol, nil, &ps)
		if len(ps) != 2 || ps[0].Score != want {
			t.Fatalf("players at %d = %+v", v, ps)
		}
	}

	var ws []game.Word
	do(t, s, http.MethodGet, "/games/"+id+"/words", alice, nil, &ws)
	if len(ws) != 1 || ws[0].Word != "CAT" || ws[0].Definition == nil {
		t.Fatalf("words = %+v", ws)
	}

	var tile struct {
		Number int    `json:"tileNumber"`
		Letter string `json:"letter"`
	}
	code = do(t, s, http.MethodPost, "/games/"+id+"/rack/4/exchange", bob, versionReq{Version: 4}, &tile)
	if code != http.StatusOK || tile.Number != 4 || tile.Letter == "" {
		t.Fatalf("exchange tile: %d %+v", code, tile)
	}

	e = errorBody{}
	code = do(t, s, http.MethodPost, "/games/"+id+"/terminate", bob, nil, &e)
	if code != http.StatusForbidden || e.Error != "not_owner" {
		t.Fatalf("terminate by guest: %d %+v", code, e)
	}
	if code := do(t, s, http.MethodPost, "/games/"+id+"/terminate", alice, nil, nil); code != http.StatusOK {
		t.Fatalf("terminate: %d", code)
	}
}

func TestChats(t *testing.T) {
	s := newTestServer(t)
	id, alice, bob := newGame(t, s)
	carol := signup(t, s, "carol")

	if code := do(t, s, http.MethodPost, "/games/"+id+"/chats", alice, map[string]string{"message": "hello"}, nil); code != http.StatusCreated {
		t.Fatalf("post chat: %d", code)
	}
	if code := do(t, s, http.MethodPost, "/games/"+id+"/chats", carol, map[string]string{"message": "hi"}, nil); code != http.StatusForbidden {
		t.Fatalf("stranger chat: %d", code)
	}
	if code := do(t, s, http.MethodPost, "/games/"+id+"/chats", bob, map[string]string{"message": " "}, nil); code != http.StatusBadRequest {
		t.Fatalf("empty chat: %d", code)
	}
	var cs []game.Chat
	if code := do(t, s, http.MethodGet, "/games/"+id+"/chats?since=0", bob, nil, &cs); code != http.StatusOK || len(cs) != 1 {
		t.Fatalf("chats: %d %+v", code, cs)
	}
}

func TestLongPoll(t *testing.T) {
	s := newTestServer(t)
	id, alice, _ := newGame(t, s)

	if code := do(t, s, http.MethodGet, "/games/"+id+"/actions/4?wait=1", alice, nil, nil); code != http.StatusNoContent {
		t.Fatalf("idle poll: %d", code)
	}

	done := make(chan game.Action, 1)
	go func() {
		var a game.Action
		// LongPoll is short in tests; poll until the skip lands
		for i := 0; i < 100; i++ {
			req := httptest.NewRequest(http.MethodGet, "/games/"+id+"/actions/4?wait=1", nil)
			req.Header.Set("Authorization", "Bearer "+alice)
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				_ = json.Unmarshal(rec.Body.Bytes(), &a)
				break
			}
		}
		done <- a
	}()
	if code := do(t, s, http.MethodPost, "/games/"+id+"/skip", alice, versionReq{Version: 3}, nil); code != http.StatusOK {
		t.Fatalf("skip: %d", code)
	}
	if a := <-done; a.Version != 4 || a.Type != game.ActionSkip {
		t.Fatalf("polled = %+v", a)
	}
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	id, alice, _ := newGame(t, s)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	h := http.Header{}
	h.Set("Authorization", "Bearer "+alice)
	h.Set("Origin", "http://localhost:5173")
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/games/" + id + "/actions/stream?from=2"
	conn, _, err := websocket.DefaultDialer.Dial(url, h)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() game.Action {
		t.Helper()
		var a game.Action
		if err := conn.ReadJSON(&a); err != nil {
			t.Fatal(err)
		}
		return a
	}
	if a := read(); a.Type != game.ActionJoin {
		t.Fatalf("first = %+v", a)
	}
	if a := read(); a.Type != game.ActionStart {
		t.Fatalf("second = %+v", a)
	}

	if code := do(t, s, http.MethodPost, "/games/"+id+"/terminate", alice, nil, nil); code != http.StatusOK {
		t.Fatalf("terminate: %d", code)
	}
	if a := read(); a.Type != game.ActionTerminate {
		t.Fatalf("third = %+v", a)
	}
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected close, got %v", err)
	}

	h.Set("Origin", "http://evil.example")
	if _, _, err := websocket.DefaultDialer.DialContext(context.Background(), url, h); err == nil {
		t.Fatal("foreign origin accepted")
	}
}
