// apps/go-server/internal/store/store.go
//
// Persistence contract for games and their action logs.
//
// The action log is append-only and keyed by (game id, version). A commit
// writes the game row, the players, the new actions and the words they
// formed in one step; it fails with ErrVersionConflict when the first new
// action does not directly follow the stored version, so two writers can
// never both append the same version.

package store

import (
	"context"
	"errors"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
)

var (
	// ErrNotFound is returned for unknown games.
	ErrNotFound = game.ErrNotFound
	// ErrVersionConflict is returned when a commit does not extend the
	// stored log by exactly the next version.
	ErrVersionConflict = errors.New("store: version conflict")
)

// Commit is the unit of persistence for one command.
type Commit struct {
	Game    game.Game
	Players []game.Player
	Actions []game.Action
	Words   []game.Word
}

// Record is a stored game with its full log.
type Record struct {
	Game    game.Game
	Players []game.Player
	Actions []game.Action
}

// Filter narrows ListGames. Zero values match everything.
type Filter struct {
	Statuses []game.Status
	UserID   string
	Limit    int
}

func (f Filter) match(g game.Game, players []game.Player) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if g.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.UserID != "" {
		for _, p := range players {
			if p.UserID == f.UserID {
				return true
			}
		}
		return false
	}
	return true
}

// Store defines the persistence interface for games.
// Implementations are backed by memory (tests, development) or SQLite.
type Store interface {
	// Commit appends actions and saves the resulting game state atomically.
	Commit(ctx context.Context, c Commit) error

	// Load returns a game with its players and full action log.
	Load(ctx context.Context, id string) (Record, error)

	// List returns games newest first.
	List(ctx context.Context, f Filter) ([]game.Game, error)

	// Actions returns the log from version `from` on (1 for everything).
	Actions(ctx context.Context, id string, from int) ([]game.Action, error)

	// Words returns every word played in a game, in play order.
	Words(ctx context.Context, id string) ([]game.Word, error)

	// AddChat appends a chat message and assigns its sequence number.
	AddChat(ctx context.Context, c game.Chat) (game.Chat, error)

	// Chats returns the messages with a sequence greater than since.
	Chats(ctx context.Context, gameID string, since int) ([]game.Chat, error)
}
