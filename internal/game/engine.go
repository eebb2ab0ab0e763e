// apps/go-server/internal/game/engine.go
//
// Core game engine for a single match.
// Responsibilities:
//   - Create games and seat players (lowest free seat first).
//   - Start the game when the table is full and deal the racks.
//   - Handle departures and owner/system termination.
//   - Append actions with contiguous versions and keep the derived
//     projections (board per version, rack history, scores) in step.
//
// Notes:
//   - A Match is deterministic: the same settings and the same sequence
//     of commands always yield the same action log. See Replay.
//   - A Match is not safe for concurrent use; callers serialize access.
//   - Commands either append actions or return an error and change nothing.
package game

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/scrabble/apps/go-server/internal/bag"
	"github.com/robalobadob/scrabble/apps/go-server/internal/board"
)

// Match is the game aggregate together with its action log.
type Match struct {
	settings  Settings
	game      Game
	players   []Player // ordered by PlayerNumber
	actions   []Action
	words     []Word
	boards    []*board.Board // boards[v-1] is the board at version v
	rosters   [][]Player     // rosters[v-1] is the table at version v
	bag       *bag.Bag
	racks     map[int][]rackEntry
	exchanged map[int]int // player number -> round of last exchange
	validator Validator

	skips   int
	owed    map[int]bool // players still owed a turn in the last round
	newTurn bool         // the next appended action starts a turn
}

type rackEntry struct {
	round int
	rack  bag.Rack
}

// NewMatch creates a game owned by settings.OwnerID and seats the owner as
// player 1. A single-player game starts immediately.
func NewMatch(s Settings, ownerName string, v Validator, at time.Time) (*Match, error) {
	dist, ok := bag.ForLanguage(s.Language)
	if !ok {
		return nil, fmt.Errorf("%w: language %q", ErrInvalidSettings, s.Language)
	}
	if s.ExpectedPlayerCount < 1 || s.ExpectedPlayerCount > MaxPlayers {
		return nil, fmt.Errorf("%w: expected player count %d", ErrInvalidSettings, s.ExpectedPlayerCount)
	}
	if s.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration %d", ErrInvalidSettings, s.Duration)
	}
	if s.ID == "" || s.OwnerID == "" {
		return nil, fmt.Errorf("%w: missing id or owner", ErrInvalidSettings)
	}
	for _, l := range s.Stack {
		if _, ok := dist.Lookup(l); !ok {
			return nil, fmt.Errorf("%w: letter %q not in the %s bag", ErrInvalidSettings, l, s.Language)
		}
	}

	b := bag.New(dist, s.Seed, s.Stack...)
	m := &Match{
		settings: s,
		game: Game{
			ID:                  s.ID,
			OwnerID:             s.OwnerID,
			Language:            s.Language,
			Name:                s.Name,
			ExpectedPlayerCount: s.ExpectedPlayerCount,
			Duration:            s.Duration,
			Status:              StatusWaiting,
			RemainingTileCount:  b.Count(),
			CreatedAt:           at,
			UpdatedAt:           at,
			Stack:               s.Stack,
		},
		bag:       b,
		racks:     make(map[int][]rackEntry),
		exchanged: make(map[int]int),
		validator: v,
	}
	m.seat(s.OwnerID, ownerName)

	res := &Result{}
	m.append(res, Action{Type: ActionCreate, UserID: s.OwnerID, Username: ownerName}, at)
	if m.full() {
		m.start(res, at)
	}
	return m, nil
}

// Join seats a user at the lowest free player number.
func (m *Match) Join(userID, username string, at time.Time) (*Result, error) {
	if _, ok := m.seatOf(userID); ok {
		return nil, ErrAlreadyJoined
	}
	if m.game.Status != StatusWaiting || m.full() {
		return nil, ErrGameNotJoinable
	}
	m.seat(userID, username)

	res := &Result{}
	m.append(res, Action{Type: ActionJoin, UserID: userID, Username: username}, at)
	if m.full() {
		m.start(res, at)
	}
	return res, nil
}

// Leave removes a user from the game. Before the start the seat is freed
// and an owner leaving terminates the game; afterwards the player turns
// inactive, their rack goes back to the bag, and the game is terminated
// once a single active player remains.
func (m *Match) Leave(userID string, at time.Time) (*Result, error) {
	if m.game.Status.Terminal() {
		return nil, ErrGameNotInProgress
	}
	i, ok := m.seatOf(userID)
	if !ok || !m.players[i].Active {
		return nil, ErrNotInGame
	}

	res := &Result{}
	if m.game.Status == StatusWaiting {
		if userID == m.game.OwnerID {
			m.game.Status = StatusTerminated
		} else {
			m.players = append(m.players[:i], m.players[i+1:]...)
		}
		m.game.ActivePlayerCount = m.activeCount()
		m.append(res, Action{Type: ActionLeave, UserID: userID}, at)
		return res, nil
	}

	p := &m.players[i]
	p.Active = false
	hand := m.hand(p.PlayerNumber)
	for _, t := range hand.Tiles {
		m.bag.Return(t)
	}
	m.setHand(p.PlayerNumber, m.game.RoundNumber+1, bag.Rack{})
	delete(m.owed, p.PlayerNumber)
	m.game.ActivePlayerCount = m.activeCount()
	m.game.RemainingTileCount = m.bag.Count()

	ending := false
	switch {
	case m.game.ActivePlayerCount <= 1:
		m.game.Status = StatusTerminated
	case m.game.Status == StatusLastRound && len(m.owed) == 0:
		ending = true
	case m.game.CurrentPlayerNumber == p.PlayerNumber:
		m.advance()
	}
	m.append(res, Action{Type: ActionLeave, UserID: userID}, at)
	if ending {
		m.end(res, at)
	}
	return res, nil
}

// Terminate cancels a game that has not finished. An empty userID is the
// system terminating an idle game; otherwise only the owner may do it.
func (m *Match) Terminate(userID string, at time.Time) (*Result, error) {
	if m.game.Status.Terminal() {
		return nil, ErrGameNotInProgress
	}
	if userID != "" && userID != m.game.OwnerID {
		return nil, ErrNotOwner
	}
	m.game.Status = StatusTerminated
	res := &Result{}
	m.append(res, Action{Type: ActionTerminate, UserID: userID}, at)
	return res, nil
}

// start deals the racks in player order and hands the turn to player 1.
func (m *Match) start(res *Result, at time.Time) {
	for _, p := range m.players {
		r, _ := m.bag.Fill(bag.Rack{})
		m.setHand(p.PlayerNumber, 1, r)
	}
	m.game.Status = StatusInProgress
	m.game.RoundNumber = 1
	m.game.CurrentPlayerNumber = 1
	m.game.RemainingTileCount = m.bag.Count()
	m.newTurn = true
	m.append(res, Action{Type: ActionStart}, at)
}

// end freezes the scores and reports the winner on the END action.
func (m *Match) end(res *Result, at time.Time) {
	m.game.Status = StatusEnded
	a := Action{Type: ActionEnd}
	if w, ok := m.Winner(); ok {
		a.UserID = w.UserID
		a.CurrentPlayerNumber = w.PlayerNumber
		m.game.CurrentPlayerNumber = w.PlayerNumber
	} else {
		m.game.CurrentPlayerNumber = 0
	}
	m.append(res, a, at)
}

// append stamps a with the next version and the resulting game state.
// The board at the new version is the previous one with the last-played
// highlight cleared.
func (m *Match) append(res *Result, a Action, at time.Time) {
	var prev *board.Board
	if n := len(m.boards); n > 0 {
		prev = m.boards[n-1].Settled()
	} else {
		prev = board.New()
	}
	m.appendWithBoard(res, a, prev, at)
}

func (m *Match) appendWithBoard(res *Result, a Action, b *board.Board, at time.Time) {
	m.game.Version++
	m.game.UpdatedAt = at
	m.game.RemainingTileCount = m.bag.Count()
	if m.newTurn {
		m.game.TurnStartedAt = at
		m.newTurn = false
	}

	a.ID = ActionID(m.game.ID, m.game.Version)
	a.GameID = m.game.ID
	a.Version = m.game.Version
	a.GameStatus = m.game.Status
	a.RoundNumber = m.game.RoundNumber
	if a.Type != ActionEnd {
		a.CurrentPlayerNumber = m.game.CurrentPlayerNumber
	}
	a.RemainingTileCount = m.game.RemainingTileCount
	a.CreatedAt = at

	m.actions = append(m.actions, a)
	m.boards = append(m.boards, b)
	m.rosters = append(m.rosters, m.Players())
	res.Actions = append(res.Actions, a)
}

// ActionID is the deterministic identifier of the action at version v.
func ActionID(gameID string, version int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("game:"+gameID+"/action:"+strconv.Itoa(version))).String()
}

func wordID(actionID string, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("action:"+actionID+"/word:"+strconv.Itoa(i))).String()
}

// seat places a new player at the lowest free player number.
func (m *Match) seat(userID, username string) {
	n := lowestFreeSeat(m.players, m.game.ExpectedPlayerCount)
	p := Player{UserID: userID, Username: username, PlayerNumber: n, Active: true}
	i := 0
	for i < len(m.players) && m.players[i].PlayerNumber < n {
		i++
	}
	m.players = append(m.players, Player{})
	copy(m.players[i+1:], m.players[i:])
	m.players[i] = p
	m.game.ActivePlayerCount = m.activeCount()
}

func lowestFreeSeat(players []Player, max int) int {
	taken := make(map[int]bool, len(players))
	for _, p := range players {
		taken[p.PlayerNumber] = true
	}
	for n := 1; n <= max; n++ {
		if !taken[n] {
			return n
		}
	}
	return 0
}

func (m *Match) full() bool { return len(m.players) >= m.game.ExpectedPlayerCount }

func (m *Match) seatOf(userID string) (int, bool) {
	for i, p := range m.players {
		if p.UserID == userID {
			return i, true
		}
	}
	return 0, false
}

func (m *Match) playerByNumber(n int) *Player {
	for i := range m.players {
		if m.players[i].PlayerNumber == n {
			return &m.players[i]
		}
	}
	return nil
}

func (m *Match) activeCount() int {
	n := 0
	for _, p := range m.players {
		if p.Active {
			n++
		}
	}
	return n
}

// advance passes the turn to the next active player, wrapping to a new
// round after the highest player number.
func (m *Match) advance() {
	m.newTurn = true
	n := m.game.ExpectedPlayerCount
	cur := m.game.CurrentPlayerNumber
	for i := 0; i < n; i++ {
		cur++
		if cur > n {
			cur = 1
			m.game.RoundNumber++
		}
		if p := m.playerByNumber(cur); p != nil && p.Active {
			m.game.CurrentPlayerNumber = cur
			return
		}
	}
}

// hand is the rack a player currently holds.
func (m *Match) hand(player int) bag.Rack {
	h := m.racks[player]
	if len(h) == 0 {
		return bag.Rack{}
	}
	return h[len(h)-1].rack
}

// setHand records the rack a player holds from round on.
func (m *Match) setHand(player, round int, r bag.Rack) {
	h := m.racks[player]
	if n := len(h); n > 0 && h[n-1].round == round {
		h[n-1].rack = r
		return
	}
	m.racks[player] = append(h, rackEntry{round: round, rack: r})
}

// ------------------------------- reads --------------------------------------

// Game returns the aggregate as of the latest version.
func (m *Match) Game() Game { return m.game }

// Version is the latest committed version.
func (m *Match) Version() int { return m.game.Version }

// Players returns the seated players ordered by player number.
func (m *Match) Players() []Player { return append([]Player(nil), m.players...) }

// PlayersAt returns the table, scores included, as of version v.
func (m *Match) PlayersAt(v int) ([]Player, error) {
	if v < 1 || v > len(m.rosters) {
		return nil, ErrNotFound
	}
	return append([]Player(nil), m.rosters[v-1]...), nil
}

// Player returns the seat held by userID.
func (m *Match) Player(userID string) (Player, bool) {
	if i, ok := m.seatOf(userID); ok {
		return m.players[i], true
	}
	return Player{}, false
}

// Action returns the action at version v.
func (m *Match) Action(v int) (Action, error) {
	if v < 1 || v > len(m.actions) {
		return Action{}, ErrNotFound
	}
	return m.actions[v-1], nil
}

// Actions returns the whole log.
func (m *Match) Actions() []Action { return append([]Action(nil), m.actions...) }

// Words returns every word formed so far.
func (m *Match) Words() []Word { return append([]Word(nil), m.words...) }

// Board returns the board as of version v.
func (m *Match) Board(v int) (board.Snapshot, error) {
	if v < 1 || v > len(m.boards) {
		return board.Snapshot{}, ErrNotFound
	}
	return m.boards[v-1].Snapshot(v), nil
}

// Rack returns the hand a player held in a round: the rack recorded for
// that round, or the latest earlier one when the hand did not change.
// Rounds that have not started yet are not found.
func (m *Match) Rack(player, round int) (bag.Rack, error) {
	h := m.racks[player]
	if len(h) == 0 || round < 1 || round > m.game.RoundNumber {
		return bag.Rack{}, ErrNotFound
	}
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].round <= round {
			return h[i].rack.Clone(), nil
		}
	}
	return bag.Rack{}, ErrNotFound
}

// CurrentRack returns the hand a player holds right now.
func (m *Match) CurrentRack(player int) (bag.Rack, error) {
	if len(m.racks[player]) == 0 {
		return bag.Rack{}, ErrNotFound
	}
	return m.hand(player).Clone(), nil
}

// BagCount is the number of tiles left in the bag.
func (m *Match) BagCount() int { return m.bag.Count() }

// BagSize is the number of tiles the game started with.
func (m *Match) BagSize() int { return m.bag.Size() }

// Winner returns the player with the strictly highest score once the game
// has ended. A shared top score has no winner.
func (m *Match) Winner() (Player, bool) {
	if m.game.Status != StatusEnded {
		return Player{}, false
	}
	var best Player
	found, tie := false, false
	for _, p := range m.players {
		if !p.Active {
			continue
		}
		switch {
		case !found || p.Score > best.Score:
			best, found, tie = p, true, false
		case p.Score == best.Score:
			tie = true
		}
	}
	if tie || !found {
		return Player{}, false
	}
	return best, true
}
