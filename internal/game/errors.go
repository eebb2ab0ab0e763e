package game

import (
	"errors"
	"strings"

	"github.com/robalobadob/scrabble/apps/go-server/internal/board"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidSettings     = errors.New("invalid game settings")
	ErrGameNotJoinable     = errors.New("game is not joinable")
	ErrAlreadyJoined       = errors.New("already joined")
	ErrNotInGame           = errors.New("not in the game")
	ErrNotOwner            = errors.New("only the owner can do this")
	ErrGameNotInProgress   = errors.New("game is not in progress")
	ErrNotPlayerTurn       = errors.New("not your turn")
	ErrStaleTurn           = errors.New("turn is stale")
	ErrExchangeAlreadyUsed = errors.New("exchange already used this round")
	ErrInvalidTileState    = errors.New("invalid tile state")
	ErrInsufficientTiles   = errors.New("not enough tiles in the bag")
	ErrReplayDiverged      = errors.New("replay diverged from the action log")

	// Placement errors surface from the board package unchanged.
	ErrNoTilesPlaced         = board.ErrNoTilesPlaced
	ErrInvalidPlacement      = board.ErrInvalidPlacement
	ErrCellOccupied          = board.ErrCellOccupied
	ErrCenterNotCovered      = board.ErrCenterNotCovered
	ErrDisconnectedPlacement = board.ErrDisconnectedPlacement
	ErrSingleLetterWord      = board.ErrSingleLetterWord
)

// InvalidWordError rejects a PLAY that formed unknown words.
type InvalidWordError struct {
	Words []string
}

func (e *InvalidWordError) Error() string {
	return "invalid words: " + strings.Join(e.Words, ", ")
}
