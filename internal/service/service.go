// apps/go-server/internal/service/service.go
//
// Coordinator for live games.
// Responsibilities:
//   - Keep one Match per active game in memory, loaded lazily from the
//     store by replaying its action log.
//   - Serialize every mutation of a game behind that game's mutex and
//     persist the appended actions before anyone can observe them.
//   - Wake long-pollers when a game's log grows.
//   - Drive turn timeouts and idle termination (see timers.go).
//   - Report finished games to the results sink.
//
// Notes:
//   - A failed commit rebuilds the in-memory match from the store so it
//     never runs ahead of the persisted log.
//   - Reads take the per-game read lock only long enough to copy a
//     snapshot; boards and racks are immutable values.

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scrabble/apps/go-server/internal/bag"
	"github.com/robalobadob/scrabble/apps/go-server/internal/board"
	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
	"github.com/robalobadob/scrabble/apps/go-server/internal/stats"
	"github.com/robalobadob/scrabble/apps/go-server/internal/store"
)

// MaxChatLength bounds a chat message in characters.
const MaxChatLength = 500

var ErrInvalidMessage = errors.New("invalid chat message")

// ResultSink receives the outcome of every game that reaches a terminal
// status. *stats.Store implements it.
type ResultSink interface {
	RecordResults(ctx context.Context, o stats.Outcome) error
}

type Options struct {
	// Salt is mixed into every bag seed.
	Salt string
	// TurnDuration is the default number of seconds per turn.
	TurnDuration int
	// WaitingTimeout terminates games still WAITING this long after
	// creation. Zero disables it.
	WaitingTimeout time.Duration
	Results        ResultSink

	Now   func() time.Time
	NewID func() string
}

// NewGame holds the caller-chosen settings of a game.
type NewGame struct {
	Language            string   `json:"language"`
	Name                string   `json:"name"`
	ExpectedPlayerCount int      `json:"expectedPlayerCount"`
	Duration            int      `json:"duration"`
	Stack               []string `json:"stack,omitempty"`
}

type Service struct {
	store store.Store
	dict  game.Validator
	opts  Options

	mu      sync.Mutex // guards entries and closed
	entries map[string]*entry
	closed  bool
}

// entry is the live state of one game.
type entry struct {
	mu      sync.RWMutex // write lock serializes commands
	match   *game.Match
	changed chan struct{} // closed and replaced on every commit
	timer   *time.Timer
}

func New(st store.Store, dict game.Validator, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.TurnDuration <= 0 {
		opts.TurnDuration = 120
	}
	return &Service{store: st, dict: dict, opts: opts, entries: make(map[string]*entry)}
}

func (s *Service) now() time.Time { return s.opts.Now().UTC() }

// Restore loads every unfinished game so its timers run again after a
// restart. Overdue turns time out immediately.
func (s *Service) Restore(ctx context.Context) error {
	gs, err := s.store.List(ctx, store.Filter{Statuses: []game.Status{
		game.StatusWaiting, game.StatusInProgress, game.StatusLastRound,
	}})
	if err != nil {
		return err
	}
	n := 0
	for _, g := range gs {
		if _, err := s.entry(ctx, g.ID); err != nil {
			log.Error().Err(err).Str("game", g.ID).Msg("restore game")
			continue
		}
		n++
	}
	log.Info().Int("games", n).Msg("restored active games")
	return nil
}

// Close stops all timers. Commands still work but no timer fires again.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	es := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		es = append(es, e)
	}
	s.mu.Unlock()
	for _, e := range es {
		e.mu.Lock()
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.mu.Unlock()
	}
}

// entry returns the live game, replaying it from the store on first use.
// Finished games are replayed on every use and never cached.
func (s *Service) entry(ctx context.Context, id string) (*entry, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if ok {
		return e, nil
	}

	m, err := s.replay(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Game().Status.Terminal() {
		return &entry{match: m, changed: make(chan struct{})}, nil
	}
	s.mu.Lock()
	if e, ok := s.entries[id]; ok {
		s.mu.Unlock()
		return e, nil
	}
	e = &entry{match: m, changed: make(chan struct{})}
	e.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()
	s.schedule(e)
	e.mu.Unlock()
	return e, nil
}

func (s *Service) replay(ctx context.Context, id string) (*game.Match, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return game.Replay(rec.Game.Settings(bag.Seed(s.opts.Salt, id)), rec.Actions, s.dict)
}

// mutate runs fn under the game's lock and commits what it appended.
func (s *Service) mutate(ctx context.Context, id string, fn func(m *game.Match, at time.Time) (*game.Result, error)) (*game.Result, error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := fn(e.match, s.now())
	if err != nil {
		log.Debug().Err(err).Str("game", id).Int("version", e.match.Version()).Msg("command rejected")
		return nil, err
	}
	if err := s.commit(ctx, e.match, res); err != nil {
		log.Warn().Err(err).Str("game", id).Msg("commit failed, rebuilding from store")
		if m, rerr := s.replay(context.Background(), id); rerr == nil {
			e.match = m
		} else {
			log.Error().Err(rerr).Str("game", id).Msg("rebuild failed, evicting")
			s.evict(id, e)
		}
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, game.ErrStaleTurn
		}
		return nil, err
	}
	s.published(e, res)
	return res, nil
}

func (s *Service) commit(ctx context.Context, m *game.Match, res *game.Result) error {
	return s.store.Commit(ctx, store.Commit{
		Game:    m.Game(),
		Players: m.Players(),
		Actions: res.Actions,
		Words:   res.Words,
	})
}

// evict drops a game from memory, either finished or no longer trusted.
// Called with e.mu held.
func (s *Service) evict(id string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	s.mu.Lock()
	if s.entries[id] == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()
}

// published runs after a successful commit with e.mu held.
func (s *Service) published(e *entry, res *game.Result) {
	close(e.changed)
	e.changed = make(chan struct{})

	g := e.match.Game()
	for _, a := range res.Actions {
		log.Info().Str("game", g.ID).Int("version", a.Version).Str("action", string(a.Type)).
			Str("user", a.UserID).Str("status", string(a.GameStatus)).Msg("action")
	}
	s.schedule(e)

	if g.Status.Terminal() && s.opts.Results != nil {
		o := stats.Outcome{GameID: g.ID, Status: g.Status, Players: e.match.Players(), FinishedAt: g.UpdatedAt}
		if w, ok := e.match.Winner(); ok {
			o.WinnerID = w.UserID
		}
		if err := s.opts.Results.RecordResults(context.Background(), o); err != nil {
			log.Warn().Err(err).Str("game", g.ID).Msg("record results")
		}
	}
	if g.Status.Terminal() {
		s.evict(g.ID, e)
		log.Debug().Str("game", g.ID).Msg("finished game evicted")
	}
}

// Create starts a new game owned by the caller.
func (s *Service) Create(ctx context.Context, userID, username string, ng NewGame) (game.Game, error) {
	if ng.Duration <= 0 {
		ng.Duration = s.opts.TurnDuration
	}
	id := s.opts.NewID()
	m, err := game.NewMatch(game.Settings{
		ID:                  id,
		OwnerID:             userID,
		Language:            ng.Language,
		Name:                ng.Name,
		ExpectedPlayerCount: ng.ExpectedPlayerCount,
		Duration:            ng.Duration,
		Seed:                bag.Seed(s.opts.Salt, id),
		Stack:               ng.Stack,
	}, username, s.dict, s.now())
	if err != nil {
		return game.Game{}, err
	}
	res := &game.Result{Actions: m.Actions()}
	if err := s.commit(ctx, m, res); err != nil {
		return game.Game{}, err
	}

	e := &entry{match: m, changed: make(chan struct{})}
	e.mu.Lock()
	defer e.mu.Unlock()
	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()
	s.published(e, res)
	return m.Game(), nil
}

func (s *Service) Join(ctx context.Context, id, userID, username string) (*game.Result, error) {
	return s.mutate(ctx, id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Join(userID, username, at)
	})
}

func (s *Service) Leave(ctx context.Context, id, userID string) (*game.Result, error) {
	return s.mutate(ctx, id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Leave(userID, at)
	})
}

func (s *Service) Terminate(ctx context.Context, id, userID string) (*game.Result, error) {
	return s.mutate(ctx, id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Terminate(userID, at)
	})
}

// Submit resolves a pending turn: placements play, exchanges swap tiles,
// neither skips.
func (s *Service) Submit(ctx context.Context, id, userID string, t game.Turn) (*game.Result, error) {
	return s.mutate(ctx, id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Submit(userID, t, at)
	})
}

func (s *Service) Play(ctx context.Context, id, userID string, version int, ps []game.Placement) (*game.Result, error) {
	return s.mutate(ctx, id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Play(userID, version, ps, at)
	})
}

func (s *Service) Skip(ctx context.Context, id, userID string, version int) (*game.Result, error) {
	return s.mutate(ctx, id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Skip(userID, version, at)
	})
}

func (s *Service) Exchange(ctx context.Context, id, userID string, version int, tileNumbers []int) (*game.Result, error) {
	return s.mutate(ctx, id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Exchange(userID, version, tileNumbers, at)
	})
}

// ExchangeTile swaps a single rack slot and returns the new tile.
func (s *Service) ExchangeTile(ctx context.Context, id, userID string, version, tileNumber int) (bag.Tile, error) {
	res, err := s.Exchange(ctx, id, userID, version, []int{tileNumber})
	if err != nil {
		return bag.Tile{}, err
	}
	return res.Tiles[0], nil
}

// view runs fn under the game's read lock.
func (s *Service) view(ctx context.Context, id string, fn func(m *game.Match) error) error {
	e, err := s.entry(ctx, id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.match)
}

// Game returns the game and its players at the latest version.
func (s *Service) Game(ctx context.Context, id string) (g game.Game, players []game.Player, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		g, players = m.Game(), m.Players()
		return nil
	})
	return g, players, err
}

// PlayersAt returns the players and their scores as of version.
func (s *Service) PlayersAt(ctx context.Context, id string, version int) (ps []game.Player, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		ps, err = m.PlayersAt(version)
		return err
	})
	return ps, err
}

func (s *Service) List(ctx context.Context, f store.Filter) ([]game.Game, error) {
	return s.store.List(ctx, f)
}

func (s *Service) Board(ctx context.Context, id string, version int) (b board.Snapshot, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		b, err = m.Board(version)
		return err
	})
	return b, err
}

// Rack returns the caller's hand as of the start of round.
func (s *Service) Rack(ctx context.Context, id, userID string, round int) (r bag.Rack, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		p, ok := m.Player(userID)
		if !ok {
			return game.ErrNotInGame
		}
		r, err = m.Rack(p.PlayerNumber, round)
		return err
	})
	return r, err
}

// CurrentRack returns the caller's hand right now.
func (s *Service) CurrentRack(ctx context.Context, id, userID string) (r bag.Rack, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		p, ok := m.Player(userID)
		if !ok {
			return game.ErrNotInGame
		}
		r, err = m.CurrentRack(p.PlayerNumber)
		return err
	})
	return r, err
}

// Actions returns the log from version `from` on.
func (s *Service) Actions(ctx context.Context, id string, from int) (as []game.Action, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		all := m.Actions()
		if from < 1 {
			from = 1
		}
		if from > len(all) {
			as = []game.Action{}
			return nil
		}
		as = all[from-1:]
		return nil
	})
	return as, err
}

func (s *Service) Action(ctx context.Context, id string, version int) (a game.Action, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		a, err = m.Action(version)
		return err
	})
	return a, err
}

// WaitAction blocks until the action with the given version exists and
// returns it. If the game is already over the final action is returned
// instead. ctx bounds the wait.
func (s *Service) WaitAction(ctx context.Context, id string, version int) (game.Action, error) {
	if version < 1 {
		return game.Action{}, game.ErrNotFound
	}
	e, err := s.entry(ctx, id)
	if err != nil {
		return game.Action{}, err
	}
	for {
		e.mu.RLock()
		a, err := e.match.Action(version)
		g := e.match.Game()
		if err != nil && g.Status.Terminal() {
			a, err = e.match.Action(g.Version)
		}
		ch := e.changed
		e.mu.RUnlock()
		if err == nil {
			return a, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return game.Action{}, ctx.Err()
		}
	}
}

func (s *Service) Words(ctx context.Context, id string) (ws []game.Word, err error) {
	err = s.view(ctx, id, func(m *game.Match) error {
		ws = m.Words()
		return nil
	})
	return ws, err
}

// Chat posts a message to the game. Only seated players may chat.
func (s *Service) Chat(ctx context.Context, id, userID, message string) (game.Chat, error) {
	message = strings.TrimSpace(message)
	if message == "" || utf8.RuneCountInString(message) > MaxChatLength {
		return game.Chat{}, ErrInvalidMessage
	}
	var p game.Player
	err := s.view(ctx, id, func(m *game.Match) error {
		var ok bool
		if p, ok = m.Player(userID); !ok {
			return game.ErrNotInGame
		}
		return nil
	})
	if err != nil {
		return game.Chat{}, err
	}
	return s.store.AddChat(ctx, game.Chat{
		ID:        s.opts.NewID(),
		GameID:    id,
		UserID:    userID,
		Username:  p.Username,
		Message:   message,
		CreatedAt: s.now(),
	})
}

// Chats lists the messages after sequence `since`. Only seated players
// may read them.
func (s *Service) Chats(ctx context.Context, id, userID string, since int) ([]game.Chat, error) {
	err := s.view(ctx, id, func(m *game.Match) error {
		if _, ok := m.Player(userID); !ok {
			return game.ErrNotInGame
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.Chats(ctx, id, since)
}
