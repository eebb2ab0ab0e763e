// apps/go-server/internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used in development and tests,
// or when durability is not required.
//
// Characteristics:
//   - Stores one record per game keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Slices are copied on the way in and out, so callers never share
//     backing arrays with the store.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
)

type memRecord struct {
	game    game.Game
	players []game.Player
	actions []game.Action
	words   []game.Word
	chats   []game.Chat
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex          // guards games map
	games map[string]*memRecord // keyed by Game.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]*memRecord)}
}

// Commit appends the actions if they extend the stored log.
func (m *memory) Commit(ctx context.Context, c Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.games[c.Game.ID]
	cur := 0
	if ok {
		cur = rec.game.Version
	}
	if len(c.Actions) > 0 && c.Actions[0].Version != cur+1 {
		return ErrVersionConflict
	}
	if !ok {
		rec = &memRecord{}
		m.games[c.Game.ID] = rec
	}
	rec.game = c.Game
	rec.players = append([]game.Player(nil), c.Players...)
	rec.actions = append(rec.actions, c.Actions...)
	rec.words = append(rec.words, c.Words...)
	return nil
}

// Load looks up a game by ID.
func (m *memory) Load(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{
		Game:    rec.game,
		Players: append([]game.Player(nil), rec.players...),
		Actions: append([]game.Action(nil), rec.actions...),
	}, nil
}

// List returns the matching games, newest first.
func (m *memory) List(ctx context.Context, f Filter) ([]game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []game.Game{}
	for _, rec := range m.games {
		if f.match(rec.game, rec.players) {
			out = append(out, rec.game)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memory) Actions(ctx context.Context, id string, from int) ([]game.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	if from < 1 {
		from = 1
	}
	if from > len(rec.actions) {
		return []game.Action{}, nil
	}
	return append([]game.Action(nil), rec.actions[from-1:]...), nil
}

func (m *memory) Words(ctx context.Context, id string) ([]game.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]game.Word{}, rec.words...), nil
}

func (m *memory) AddChat(ctx context.Context, c game.Chat) (game.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[c.GameID]
	if !ok {
		return game.Chat{}, ErrNotFound
	}
	c.Sequence = len(rec.chats) + 1
	rec.chats = append(rec.chats, c)
	return c, nil
}

func (m *memory) Chats(ctx context.Context, gameID string, since int) ([]game.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	out := []game.Chat{}
	for _, c := range rec.chats {
		if c.Sequence > since {
			out = append(out, c)
		}
	}
	return out, nil
}
