// apps/go-server/internal/store/sqlite.go
//
// SQLite implementation of the Store interface plus database helpers.
// Responsibilities:
//   - Opening SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Persisting games, players, the action log, words and chats.
//
// Actions are stored as JSON payloads next to their (game_id, version)
// primary key; the key is what rejects a second writer for the same version.

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
)

//go:embed migrations/*.sql
var migrations embed.FS

const timeLayout = time.RFC3339Nano

/**
 * OpenSQLite opens (and creates if missing) a SQLite database file.
 *
 * - Ensures parent directory exists for relative DSNs (e.g. ./data/app.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 */
func OpenSQLite(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * Migrate applies the embedded SQL migrations.
 *
 * - Uses a _migrations table to track applied files.
 * - Executes each *.sql file in lexical order, each in its own transaction.
 * - Skips if already applied.
 */
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Commit(ctx context.Context, c Commit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var cur int
	err = tx.QueryRowContext(ctx, `SELECT version FROM games WHERE id=?`, c.Game.ID).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read version: %w", err)
	}
	if len(c.Actions) > 0 && c.Actions[0].Version != cur+1 {
		return ErrVersionConflict
	}

	g := c.Game
	stack, _ := json.Marshal(g.Stack)
	if g.Stack == nil {
		stack = []byte("[]")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO games (id, owner_id, language, name, expected_player_count, duration, status,
		                   round_number, current_player_number, remaining_tile_count,
		                   active_player_count, version, stack, created_at, updated_at, turn_started_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			round_number=excluded.round_number,
			current_player_number=excluded.current_player_number,
			remaining_tile_count=excluded.remaining_tile_count,
			active_player_count=excluded.active_player_count,
			version=excluded.version,
			updated_at=excluded.updated_at,
			turn_started_at=excluded.turn_started_at`,
		g.ID, g.OwnerID, g.Language, g.Name, g.ExpectedPlayerCount, g.Duration, string(g.Status),
		g.RoundNumber, g.CurrentPlayerNumber, g.RemainingTileCount,
		g.ActivePlayerCount, g.Version, string(stack),
		g.CreatedAt.UTC().Format(timeLayout), g.UpdatedAt.UTC().Format(timeLayout),
		g.TurnStartedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("save game: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE game_id=?`, g.ID); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	for _, p := range c.Players {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO players (game_id, user_id, username, player_number, score, active)
			VALUES (?,?,?,?,?,?)`,
			g.ID, p.UserID, p.Username, p.PlayerNumber, p.Score, p.Active,
		); err != nil {
			return fmt.Errorf("save player: %w", err)
		}
	}

	for _, a := range c.Actions {
		payload, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO actions (game_id, version, id, type, user_id, payload, created_at)
			VALUES (?,?,?,?,?,?,?)`,
			g.ID, a.Version, a.ID, string(a.Type), a.UserID, string(payload),
			a.CreatedAt.UTC().Format(timeLayout),
		); err != nil {
			if isConstraint(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("append action %d: %w", a.Version, err)
		}
	}

	var seq int
	if len(c.Words) > 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM words WHERE game_id=?`, g.ID).Scan(&seq); err != nil {
			return fmt.Errorf("count words: %w", err)
		}
	}
	for i, w := range c.Words {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO words (id, game_id, action_id, user_id, round_number, word, definition, score, seq)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			w.ID, g.ID, w.ActionID, w.UserID, w.RoundNumber, w.Word, w.Definition, w.Score, seq+i+1,
		); err != nil {
			return fmt.Errorf("save word: %w", err)
		}
	}

	return tx.Commit()
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func (s *sqliteStore) Load(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, language, name, expected_player_count, duration, status,
		       round_number, current_player_number, remaining_tile_count, active_player_count,
		       version, stack, created_at, updated_at, turn_started_at
		FROM games WHERE id=?`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, username, player_number, score, active
		FROM players WHERE game_id=? ORDER BY player_number`, id)
	if err != nil {
		return Record{}, err
	}
	defer rows.Close()
	var players []game.Player
	for rows.Next() {
		var p game.Player
		if err := rows.Scan(&p.UserID, &p.Username, &p.PlayerNumber, &p.Score, &p.Active); err != nil {
			return Record{}, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return Record{}, err
	}

	actions, err := s.Actions(ctx, id, 1)
	if err != nil {
		return Record{}, err
	}
	return Record{Game: g, Players: players, Actions: actions}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (game.Game, error) {
	var (
		g                      game.Game
		status, stack          string
		created, updated, turn string
	)
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Language, &g.Name, &g.ExpectedPlayerCount, &g.Duration,
		&status, &g.RoundNumber, &g.CurrentPlayerNumber, &g.RemainingTileCount, &g.ActivePlayerCount,
		&g.Version, &stack, &created, &updated, &turn); err != nil {
		return game.Game{}, err
	}
	g.Status = game.Status(status)
	if err := json.Unmarshal([]byte(stack), &g.Stack); err != nil {
		return game.Game{}, fmt.Errorf("decode stack: %w", err)
	}
	if len(g.Stack) == 0 {
		g.Stack = nil
	}
	g.CreatedAt = parseTime(created)
	g.UpdatedAt = parseTime(updated)
	g.TurnStartedAt = parseTime(turn)
	return g, nil
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func (s *sqliteStore) List(ctx context.Context, f Filter) ([]game.Game, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(marks, ",")+")")
	}
	if f.UserID != "" {
		where = append(where, "id IN (SELECT game_id FROM players WHERE user_id=?)")
		args = append(args, f.UserID)
	}
	q := `SELECT id, owner_id, language, name, expected_player_count, duration, status,
	             round_number, current_player_number, remaining_tile_count, active_player_count,
	             version, stack, created_at, updated_at, turn_started_at
	      FROM games`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Actions(ctx context.Context, id string, from int) ([]game.Action, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id=?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM actions WHERE game_id=? AND version>=? ORDER BY version`, id, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Action{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a game.Action
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode action: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Words(ctx context.Context, id string) ([]game.Word, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, action_id, user_id, round_number, word, definition, score
		FROM words WHERE game_id=? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Word{}
	for rows.Next() {
		var (
			w   game.Word
			def sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.GameID, &w.ActionID, &w.UserID, &w.RoundNumber, &w.Word, &def, &w.Score); err != nil {
			return nil, err
		}
		if def.Valid {
			d := def.String
			w.Definition = &d
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AddChat(ctx context.Context, c game.Chat) (game.Chat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Chat{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id=?`, c.GameID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Chat{}, ErrNotFound
		}
		return game.Chat{}, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM chats WHERE game_id=?`, c.GameID,
	).Scan(&c.Sequence); err != nil {
		return game.Chat{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, game_id, user_id, username, sequence, message, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		c.ID, c.GameID, c.UserID, c.Username, c.Sequence, c.Message, c.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		return game.Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	return c, tx.Commit()
}

func (s *sqliteStore) Chats(ctx context.Context, gameID string, since int) ([]game.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, user_id, username, sequence, message, created_at
		FROM chats WHERE game_id=? AND sequence>? ORDER BY sequence`, gameID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Chat{}
	for rows.Next() {
		var (
			c       game.Chat
			created string
		)
		if err := rows.Scan(&c.ID, &c.GameID, &c.UserID, &c.Username, &c.Sequence, &c.Message, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}
