// apps/go-server/internal/game/turn.go
//
// Turn commands: PLAY, EXCHANGE, SKIP and the system TIMEOUT.
//
// Every command runs the same checks in the same order before looking at
// the move itself: game status, membership, exchange quota, version,
// whose turn it is. Validation then completes before anything is
// mutated, so a rejected move leaves the match untouched.

package game

import (
	"fmt"
	"time"

	"github.com/robalobadob/scrabble/apps/go-server/internal/bag"
	"github.com/robalobadob/scrabble/apps/go-server/internal/board"
)

// Submit resolves a pending turn: exchanges make it an EXCHANGE,
// placements a PLAY, and an empty turn a SKIP.
func (m *Match) Submit(userID string, t Turn, at time.Time) (*Result, error) {
	kind := ActionSkip
	switch {
	case len(t.Exchanges) > 0:
		kind = ActionExchange
	case len(t.Placements) > 0:
		kind = ActionPlay
	}
	p, err := m.check(userID, kind, t.Version)
	if err != nil {
		return nil, err
	}
	switch kind {
	case ActionExchange:
		if len(t.Placements) > 0 {
			return nil, fmt.Errorf("%w: cannot place and exchange in the same turn", ErrInvalidTileState)
		}
		return m.exchange(p, t.Exchanges, at)
	case ActionPlay:
		return m.play(p, t.Placements, at)
	default:
		return m.pass(p, ActionSkip, at), nil
	}
}

// Play places tiles from the player's rack.
func (m *Match) Play(userID string, version int, placements []Placement, at time.Time) (*Result, error) {
	p, err := m.check(userID, ActionPlay, version)
	if err != nil {
		return nil, err
	}
	return m.play(p, placements, at)
}

// Exchange swaps the tiles in the given rack slots for fresh ones.
func (m *Match) Exchange(userID string, version int, tileNumbers []int, at time.Time) (*Result, error) {
	p, err := m.check(userID, ActionExchange, version)
	if err != nil {
		return nil, err
	}
	return m.exchange(p, tileNumbers, at)
}

// Skip passes the turn.
func (m *Match) Skip(userID string, version int, at time.Time) (*Result, error) {
	p, err := m.check(userID, ActionSkip, version)
	if err != nil {
		return nil, err
	}
	return m.pass(p, ActionSkip, at), nil
}

// Timeout passes the current player's turn on their behalf. It loses to
// any action committed since version.
func (m *Match) Timeout(version int, at time.Time) (*Result, error) {
	if !m.game.Status.Playing() {
		return nil, ErrGameNotInProgress
	}
	if version != m.game.Version {
		return nil, ErrStaleTurn
	}
	p := m.playerByNumber(m.game.CurrentPlayerNumber)
	if p == nil {
		return nil, ErrNotFound
	}
	return m.pass(p, ActionTimeout, at), nil
}

func (m *Match) check(userID string, kind ActionType, version int) (*Player, error) {
	if !m.game.Status.Playing() {
		return nil, ErrGameNotInProgress
	}
	i, ok := m.seatOf(userID)
	if !ok || !m.players[i].Active {
		return nil, ErrNotInGame
	}
	p := &m.players[i]
	if kind == ActionExchange && m.exchanged[p.PlayerNumber] == m.game.RoundNumber {
		return nil, ErrExchangeAlreadyUsed
	}
	if version != m.game.Version {
		return nil, ErrStaleTurn
	}
	if m.game.CurrentPlayerNumber != p.PlayerNumber {
		return nil, ErrNotPlayerTurn
	}
	return p, nil
}

func (m *Match) play(p *Player, placements []Placement, at time.Time) (*Result, error) {
	hand := m.hand(p.PlayerNumber)
	used := make(map[int]bool, len(placements))
	numbers := make([]int, 0, len(placements))
	moves := make([]board.Placement, 0, len(placements))
	for _, pl := range placements {
		t, ok := hand.Tile(pl.TileNumber)
		if !ok || used[pl.TileNumber] {
			return nil, fmt.Errorf("%w: tile %d", ErrInvalidTileState, pl.TileNumber)
		}
		used[pl.TileNumber] = true
		numbers = append(numbers, pl.TileNumber)
		moves = append(moves, board.Placement{
			Row:          pl.Row,
			Column:       pl.Column,
			Letter:       t.Letter,
			Value:        t.Value,
			TileNumber:   t.Number,
			PlayerNumber: p.PlayerNumber,
		})
	}

	move, err := m.boards[len(m.boards)-1].Evaluate(moves)
	if err != nil {
		return nil, err
	}
	defs, err := m.lookup(move.Words)
	if err != nil {
		return nil, err
	}

	round := m.game.RoundNumber
	m.setHand(p.PlayerNumber, round, sealed(hand, placements, move.Next))
	next, _ := m.bag.Fill(hand.Without(numbers...))
	next.Exchanged = false
	m.setHand(p.PlayerNumber, round+1, next)
	p.Score += move.Score
	m.skips = 0
	ending := m.afterTurn(p.PlayerNumber, len(next.Tiles) < bag.RackSize)

	res := &Result{}
	m.appendWithBoard(res, Action{
		Type:       ActionPlay,
		UserID:     p.UserID,
		Score:      move.Score,
		Placements: append([]Placement(nil), placements...),
	}, move.Next, at)

	play := res.Actions[0]
	for i, w := range move.Words {
		word := Word{
			ID:          wordID(play.ID, i),
			GameID:      m.game.ID,
			ActionID:    play.ID,
			UserID:      p.UserID,
			RoundNumber: round,
			Word:        w.Text,
			Definition:  defs[i],
			Score:       w.Score,
		}
		m.words = append(m.words, word)
		res.Words = append(res.Words, word)
	}

	if len(placements) == bag.RackSize {
		p.Score += BingoBonus
		m.appendWithBoard(res, Action{Type: ActionBonusBingo, UserID: p.UserID, Score: BingoBonus}, move.Next, at)
	}
	if ending {
		m.end(res, at)
	}
	return res, nil
}

// sealed is the hand as it was spent: placed tiles are bound to their
// cells on b.
func sealed(hand bag.Rack, placements []Placement, b *board.Board) bag.Rack {
	out := hand.Clone()
	for _, pl := range placements {
		c, ok := b.Cell(pl.Row, pl.Column)
		if !ok {
			continue
		}
		for i := range out.Tiles {
			if out.Tiles[i].Number != pl.TileNumber {
				continue
			}
			n := c.Number
			out.Tiles[i].Row = pl.Row
			out.Tiles[i].Column = pl.Column
			out.Tiles[i].CellNumber = &n
			out.Tiles[i].Sealed = true
		}
	}
	return out
}

// lookup checks every candidate word and collects the definitions.
// A nil validator accepts everything.
func (m *Match) lookup(words []board.Word) ([]*string, error) {
	defs := make([]*string, len(words))
	if m.validator == nil {
		return defs, nil
	}
	var bad []string
	seen := make(map[string]bool)
	for i, w := range words {
		def, ok := m.validator.Lookup(m.game.Language, w.Text)
		if !ok {
			if !seen[w.Text] {
				seen[w.Text] = true
				bad = append(bad, w.Text)
			}
			continue
		}
		if def != "" {
			d := def
			defs[i] = &d
		}
	}
	if len(bad) > 0 {
		return nil, &InvalidWordError{Words: bad}
	}
	return defs, nil
}

func (m *Match) exchange(p *Player, tileNumbers []int, at time.Time) (*Result, error) {
	hand := m.hand(p.PlayerNumber)
	seen := make(map[int]bool, len(tileNumbers))
	for _, n := range tileNumbers {
		if _, ok := hand.Tile(n); !ok || seen[n] {
			return nil, fmt.Errorf("%w: tile %d", ErrInvalidTileState, n)
		}
		seen[n] = true
	}
	if m.bag.Count() < len(tileNumbers) {
		return nil, ErrInsufficientTiles
	}

	round := m.game.RoundNumber
	next := hand.Clone()
	drawn := make([]bag.Tile, 0, len(tileNumbers))
	for _, n := range tileNumbers {
		t, err := m.bag.Draw()
		if err != nil {
			return nil, err
		}
		t.Number = n
		for i := range next.Tiles {
			if next.Tiles[i].Number == n {
				m.bag.Return(next.Tiles[i])
				next.Tiles[i] = t
				break
			}
		}
		drawn = append(drawn, t)
	}

	spent := hand.Clone()
	spent.Exchanged = true
	for i := range spent.Tiles {
		spent.Tiles[i].Exchanged = seen[spent.Tiles[i].Number]
	}
	m.setHand(p.PlayerNumber, round, spent)
	next.Exchanged = false
	m.setHand(p.PlayerNumber, round+1, next)
	m.exchanged[p.PlayerNumber] = round
	m.skips = 0
	ending := m.afterTurn(p.PlayerNumber, len(next.Tiles) < bag.RackSize)

	res := &Result{Tiles: drawn}
	m.append(res, Action{
		Type:        ActionExchange,
		UserID:      p.UserID,
		TileNumbers: append([]int(nil), tileNumbers...),
	}, at)
	if ending {
		m.end(res, at)
	}
	return res, nil
}

// pass resolves a SKIP or TIMEOUT.
func (m *Match) pass(p *Player, kind ActionType, at time.Time) *Result {
	m.skips++
	ending := m.afterTurn(p.PlayerNumber, len(m.hand(p.PlayerNumber).Tiles) < bag.RackSize)
	res := &Result{}
	m.append(res, Action{Type: kind, UserID: p.UserID}, at)
	if ending {
		m.end(res, at)
	}
	return res
}

// afterTurn updates the final-lap and skip bookkeeping for the player who
// just moved and passes the turn on. It reports whether the game ends.
func (m *Match) afterTurn(actor int, rackShort bool) bool {
	switch m.game.Status {
	case StatusLastRound:
		delete(m.owed, actor)
		if len(m.owed) == 0 {
			return true
		}
	case StatusInProgress:
		if m.bag.Count() == 0 && rackShort {
			m.game.Status = StatusLastRound
			m.owed = make(map[int]bool)
			for _, p := range m.players {
				if p.Active && p.PlayerNumber != actor {
					m.owed[p.PlayerNumber] = true
				}
			}
			if len(m.owed) == 0 {
				return true
			}
		}
	}
	if m.skips >= MaxSkippedRounds*m.game.ActivePlayerCount {
		return true
	}
	m.advance()
	return false
}
