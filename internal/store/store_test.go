package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/scrabble/apps/go-server/internal/bag"
	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newSQLite(t *testing.T) Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	// a second run is a no-op
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	return NewSQLiteStore(db)
}

func TestStores(t *testing.T) {
	stores := map[string]func(*testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLite,
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) { testStore(t, open(t)) })
	}
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	seed := bag.Seed("salt", "game-1")
	m, err := game.NewMatch(game.Settings{
		ID: "game-1", OwnerID: "u1", Language: "en", Name: "store",
		ExpectedPlayerCount: 2, Duration: 60, Seed: seed, Stack: []string{"C", "A", "T"},
	}, "alice", nil, t0)
	if err != nil {
		t.Fatal(err)
	}
	commit := func(res *game.Result) error {
		return s.Commit(ctx, Commit{Game: m.Game(), Players: m.Players(), Actions: res.Actions, Words: res.Words})
	}

	if err := commit(&game.Result{Actions: m.Actions()}); err != nil {
		t.Fatalf("commit create: %v", err)
	}
	res, err := m.Join("u2", "bob", t0.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if err := commit(res); err != nil {
		t.Fatalf("commit join: %v", err)
	}
	if err := commit(res); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("duplicate commit: %v", err)
	}

	res, err = m.Play("u1", m.Version(), []game.Placement{
		{TileNumber: 1, Row: 8, Column: 7},
		{TileNumber: 2, Row: 8, Column: 8},
		{TileNumber: 3, Row: 8, Column: 9},
	}, t0.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if err := commit(res); err != nil {
		t.Fatalf("commit play: %v", err)
	}

	t.Run("load", func(t *testing.T) {
		rec, err := s.Load(ctx, "game-1")
		if err != nil {
			t.Fatal(err)
		}
		if rec.Game.Version != 4 || rec.Game.Status != game.StatusInProgress || len(rec.Actions) != 4 {
			t.Fatalf("record = %+v", rec.Game)
		}
		if len(rec.Players) != 2 || rec.Players[0].Score != 10 || !rec.Players[1].Active {
			t.Fatalf("players = %+v", rec.Players)
		}
		if len(rec.Game.Stack) != 3 || !rec.Game.CreatedAt.Equal(t0) || !rec.Game.TurnStartedAt.Equal(t0.Add(time.Minute)) {
			t.Fatalf("game = %+v", rec.Game)
		}
		replayed, err := game.Replay(rec.Game.Settings(seed), rec.Actions, nil)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if replayed.Version() != m.Version() {
			t.Fatalf("replayed version %d", replayed.Version())
		}
		if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("missing game: %v", err)
		}
	})

	t.Run("actions and words", func(t *testing.T) {
		as, err := s.Actions(ctx, "game-1", 3)
		if err != nil {
			t.Fatal(err)
		}
		if len(as) != 2 || as[0].Type != game.ActionStart || as[1].Type != game.ActionPlay {
			t.Fatalf("actions = %+v", as)
		}
		if len(as[1].Placements) != 3 {
			t.Fatalf("placements = %+v", as[1].Placements)
		}
		ws, err := s.Words(ctx, "game-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(ws) != 1 || ws[0].Word != "CAT" || ws[0].Score != 10 || ws[0].Definition != nil {
			t.Fatalf("words = %+v", ws)
		}
	})

	t.Run("list", func(t *testing.T) {
		tests := []struct {
			name string
			f    Filter
			want int
		}{
			{"all", Filter{}, 1},
			{"in progress", Filter{Statuses: []game.Status{game.StatusInProgress}}, 1},
			{"waiting", Filter{Statuses: []game.Status{game.StatusWaiting}}, 0},
			{"member", Filter{UserID: "u2"}, 1},
			{"stranger", Filter{UserID: "u9"}, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				gs, err := s.List(ctx, tt.f)
				if err != nil {
					t.Fatal(err)
				}
				if len(gs) != tt.want {
					t.Fatalf("got %d games, want %d", len(gs), tt.want)
				}
			})
		}
	})

	t.Run("chats", func(t *testing.T) {
		for i, msg := range []string{"hi", "good luck"} {
			c, err := s.AddChat(ctx, game.Chat{ID: msg, GameID: "game-1", UserID: "u1", Username: "alice", Message: msg, CreatedAt: t0})
			if err != nil {
				t.Fatal(err)
			}
			if c.Sequence != i+1 {
				t.Fatalf("sequence = %d", c.Sequence)
			}
		}
		cs, err := s.Chats(ctx, "game-1", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(cs) != 1 || cs[0].Message != "good luck" {
			t.Fatalf("chats = %+v", cs)
		}
		if _, err := s.AddChat(ctx, game.Chat{ID: "x", GameID: "missing"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("chat on missing game: %v", err)
		}
	})
}
