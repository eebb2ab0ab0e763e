package stats

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
	"github.com/robalobadob/scrabble/apps/go-server/internal/store"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{"u1", "u2"} {
		if _, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
			u, "name_"+u, "x", time.Now().UTC().Format(time.RFC3339)); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func TestRecordResults(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openDB(t))
	players := []game.Player{
		{UserID: "u1", Username: "name_u1", PlayerNumber: 1, Score: 120, Active: true},
		{UserID: "u2", Username: "name_u2", PlayerNumber: 2, Score: 90, Active: true},
	}
	o := Outcome{GameID: "g1", Status: game.StatusEnded, Players: players, WinnerID: "u1", FinishedAt: time.Now()}
	if err := s.RecordResults(ctx, o); err != nil {
		t.Fatal(err)
	}
	// recording twice must not double count
	if err := s.RecordResults(ctx, o); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordResults(ctx, Outcome{GameID: "g2", Status: game.StatusTerminated, Players: players, FinishedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		user                string
		games, wins, streak int
		best                int
	}{
		{"u1", 1, 1, 1, 120},
		{"u2", 1, 0, 0, 90},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			st, err := s.ForUser(ctx, tt.user)
			if err != nil {
				t.Fatal(err)
			}
			if st.GamesPlayed != tt.games || st.Wins != tt.wins || st.Streak != tt.streak || st.BestScore != tt.best {
				t.Fatalf("stats = %+v", st)
			}
		})
	}

	lb, err := s.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(lb) != 2 || lb[0].UserID != "u1" || lb[0].Wins != 1 || lb[1].Games != 1 {
		t.Fatalf("leaderboard = %+v", lb)
	}
}
