package game

import (
	"fmt"
)

// Replay rebuilds a match from its action log. Submitted actions are
// re-applied in order; derived ones (START, BONUS_BINGO, END) must be
// regenerated by the engine. Every regenerated action has to equal the
// recorded one, otherwise ErrReplayDiverged is returned.
//
// actions may be any prefix 1..N of a log. When N ends on an action that
// triggers derived ones, those are regenerated past N; Board(N) and
// PlayersAt(N) still describe the game as of N.
//
// Words are not re-validated: a word accepted when it was played stays
// accepted even if the dictionary changed since.
func Replay(s Settings, actions []Action, v Validator) (*Match, error) {
	if len(actions) == 0 || actions[0].Type != ActionCreate {
		return nil, fmt.Errorf("%w: log does not start with %s", ErrReplayDiverged, ActionCreate)
	}
	first := actions[0]
	m, err := NewMatch(s, first.Username, lenient{v}, first.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, a := range actions[1:] {
		if a.Version <= m.game.Version {
			continue
		}
		if a.Type.Derived() {
			return nil, fmt.Errorf("%w: version %d: unexpected %s", ErrReplayDiverged, a.Version, a.Type)
		}
		if err := m.apply(a); err != nil {
			return nil, fmt.Errorf("%w: version %d: %v", ErrReplayDiverged, a.Version, err)
		}
	}

	if len(m.actions) < len(actions) {
		return nil, fmt.Errorf("%w: %d actions regenerated, %d recorded", ErrReplayDiverged, len(m.actions), len(actions))
	}
	for i := range actions {
		if !sameAction(m.actions[i], actions[i]) {
			return nil, fmt.Errorf("%w: version %d", ErrReplayDiverged, actions[i].Version)
		}
	}
	for _, a := range m.actions[len(actions):] {
		if !a.Type.Derived() {
			return nil, fmt.Errorf("%w: version %d: unexpected %s", ErrReplayDiverged, a.Version, a.Type)
		}
	}
	m.validator = v
	return m, nil
}

func (m *Match) apply(a Action) error {
	var err error
	at := a.CreatedAt
	switch a.Type {
	case ActionJoin:
		_, err = m.Join(a.UserID, a.Username, at)
	case ActionLeave:
		_, err = m.Leave(a.UserID, at)
	case ActionTerminate:
		_, err = m.Terminate(a.UserID, at)
	case ActionPlay:
		_, err = m.Play(a.UserID, a.Version-1, a.Placements, at)
	case ActionExchange:
		_, err = m.Exchange(a.UserID, a.Version-1, a.TileNumbers, at)
	case ActionSkip:
		_, err = m.Skip(a.UserID, a.Version-1, at)
	case ActionTimeout:
		_, err = m.Timeout(a.Version-1, at)
	default:
		err = fmt.Errorf("unknown action type %q", a.Type)
	}
	return err
}

// lenient accepts every word but still reports known definitions.
type lenient struct{ v Validator }

func (l lenient) Lookup(language, word string) (string, bool) {
	if l.v == nil {
		return "", true
	}
	def, _ := l.v.Lookup(language, word)
	return def, true
}

func sameAction(a, b Action) bool {
	if a.ID != b.ID || a.GameID != b.GameID || a.UserID != b.UserID || a.Username != b.Username ||
		a.Version != b.Version || a.Type != b.Type || a.GameStatus != b.GameStatus ||
		a.RoundNumber != b.RoundNumber || a.CurrentPlayerNumber != b.CurrentPlayerNumber ||
		a.RemainingTileCount != b.RemainingTileCount || a.Score != b.Score ||
		!a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	if len(a.Placements) != len(b.Placements) || len(a.TileNumbers) != len(b.TileNumbers) {
		return false
	}
	for i := range a.Placements {
		if a.Placements[i] != b.Placements[i] {
			return false
		}
	}
	for i := range a.TileNumbers {
		if a.TileNumbers[i] != b.TileNumbers[i] {
			return false
		}
	}
	return true
}
