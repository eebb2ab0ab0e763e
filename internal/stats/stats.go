// apps/go-server/internal/stats/stats.go
//
// Finished-game results and per-user statistics.
// Responsibilities:
//   - Record one result row per player when a game ends or is terminated.
//   - Maintain the users' games played / wins / streak counters.
//   - Serve the leaderboard and a user's own stats.
//
// Recording is idempotent per game: replaying the same outcome twice
// leaves the counters unchanged.

package stats

import (
	"context"
	"database/sql"
	"time"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
)

// Outcome is what a finished game contributes to the statistics.
type Outcome struct {
	GameID     string
	Status     game.Status
	Players    []game.Player
	WinnerID   string
	FinishedAt time.Time
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RecordResults stores the outcome of a game. Only ENDED games count
// towards games played, wins and streaks.
func (s *Store) RecordResults(ctx context.Context, o Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range o.Players {
		won := o.WinnerID != "" && p.UserID == o.WinnerID
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO results (game_id, user_id, username, player_number, score, won, status, finished_at)
			VALUES (?,?,?,?,?,?,?,?)`,
			o.GameID, p.UserID, p.Username, p.PlayerNumber, p.Score, won, string(o.Status),
			o.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 || o.Status != game.StatusEnded {
			continue
		}
		if err := bump(ctx, tx, p.UserID, won); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// bump increments games played; updates wins and streak based on result.
func bump(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

type UserStats struct {
	UserID      string `json:"id"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Streak      int    `json:"streak"`
	BestScore   int    `json:"bestScore"`
	TotalScore  int    `json:"totalScore"`
}

// ForUser returns the counters of one user.
func (s *Store) ForUser(ctx context.Context, userID string) (UserStats, error) {
	st := UserStats{UserID: userID}
	if err := s.db.QueryRowContext(ctx,
		`SELECT games_played, wins, streak FROM users WHERE id=?`, userID,
	).Scan(&st.GamesPlayed, &st.Wins, &st.Streak); err != nil {
		return UserStats{}, err
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(score), 0), COALESCE(SUM(score), 0)
		FROM results WHERE user_id=? AND status=?`, userID, string(game.StatusEnded),
	).Scan(&st.BestScore, &st.TotalScore)
	return st, err
}

type LBRow struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Wins       int    `json:"wins"`
	Games      int    `json:"games"`
	TotalScore int    `json:"totalScore"`
}

// Leaderboard ranks players by wins, then total score, over ended games.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, MAX(username), SUM(won), COUNT(1), SUM(score)
		FROM results
		WHERE status=?
		GROUP BY user_id
		ORDER BY SUM(won) DESC, SUM(score) DESC, user_id ASC
		LIMIT ?`, string(game.StatusEnded), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.Wins, &r.Games, &r.TotalScore); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
