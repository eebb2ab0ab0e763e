// apps/go-server/internal/game/types.go
//
// Core type definitions for the game engine.
// Defines:
//   - Status / ActionType: lifecycle states and action log entry kinds.
//   - Settings: immutable parameters a game is created with.
//   - Game: the aggregate root as of the latest version.
//   - Player, Action, Word, Chat: rows owned by a game.
//   - Turn / Placement: a player's pending move as submitted by the client.

package game

import (
	"time"

	"github.com/robalobadob/scrabble/apps/go-server/internal/bag"
)

// Status is the lifecycle state of a game. Transitions only move forward:
// WAITING -> IN_PROGRESS -> LAST_ROUND -> ENDED, with TERMINATED reachable
// from any non-terminal state.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusLastRound  Status = "LAST_ROUND"
	StatusEnded      Status = "ENDED"
	StatusTerminated Status = "TERMINATED"
)

// Playing reports whether turns are accepted.
func (s Status) Playing() bool { return s == StatusInProgress || s == StatusLastRound }

// Terminal reports whether no further actions can be appended.
func (s Status) Terminal() bool { return s == StatusEnded || s == StatusTerminated }

// ActionType tags an action log entry.
type ActionType string

const (
	ActionCreate     ActionType = "CREATE"
	ActionJoin       ActionType = "JOIN"
	ActionLeave      ActionType = "LEAVE"
	ActionStart      ActionType = "START"
	ActionPlay       ActionType = "PLAY"
	ActionBonusBingo ActionType = "BONUS_BINGO"
	ActionExchange   ActionType = "EXCHANGE"
	ActionSkip       ActionType = "SKIP"
	ActionTimeout    ActionType = "TIMEOUT"
	ActionEnd        ActionType = "END"
	ActionTerminate  ActionType = "TERMINATE"
)

// Derived reports whether the action is produced by the engine as a
// consequence of another action rather than submitted on its own.
func (t ActionType) Derived() bool {
	return t == ActionStart || t == ActionBonusBingo || t == ActionEnd
}

const (
	// MaxPlayers is the largest supported table.
	MaxPlayers = 4
	// BingoBonus is awarded for placing a full rack in one turn.
	BingoBonus = 50
	// MaxSkippedRounds of consecutive skips/timeouts end the game.
	MaxSkippedRounds = 2
)

// Settings are fixed when a game is created.
type Settings struct {
	ID                  string
	OwnerID             string
	Language            string
	Name                string
	ExpectedPlayerCount int
	Duration            int
	Seed                [2]uint64
	// Stack is an optional fixed draw order (testing).
	Stack []string
}

// Game is the aggregate root as of Version.
type Game struct {
	ID                  string    `json:"id"`
	OwnerID             string    `json:"ownerId"`
	Language            string    `json:"language"`
	Name                string    `json:"name"`
	ExpectedPlayerCount int       `json:"expectedPlayerCount"`
	Duration            int       `json:"duration"`
	Status              Status    `json:"status"`
	RoundNumber         int       `json:"roundNumber"`
	CurrentPlayerNumber int       `json:"currentPlayerNumber"`
	RemainingTileCount  int       `json:"remainingTileCount"`
	ActivePlayerCount   int       `json:"activePlayerCount"`
	Version             int       `json:"version"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	TurnStartedAt       time.Time `json:"turnStartedAt"`
	Stack               []string  `json:"-"`
}

// Settings rebuilds the creation parameters of g with the given seed.
func (g Game) Settings(seed [2]uint64) Settings {
	return Settings{
		ID:                  g.ID,
		OwnerID:             g.OwnerID,
		Language:            g.Language,
		Name:                g.Name,
		ExpectedPlayerCount: g.ExpectedPlayerCount,
		Duration:            g.Duration,
		Seed:                seed,
		Stack:               g.Stack,
	}
}

// Deadline is when the current turn times out.
func (g Game) Deadline() time.Time {
	return g.TurnStartedAt.Add(time.Duration(g.Duration) * time.Second)
}

// Player is a seat at the table. PlayerNumber never changes once seated.
type Player struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	PlayerNumber int    `json:"playerNumber"`
	Score        int    `json:"score"`
	Active       bool   `json:"active"`
}

// Placement binds a rack slot to a cell. Letters come from the rack.
type Placement struct {
	TileNumber int `json:"tileNumber"`
	Row        int `json:"rowNumber"`
	Column     int `json:"columnNumber"`
}

// Turn is a player's pending move: placements (PLAY), exchanges
// (EXCHANGE), or neither (SKIP). Version is the game version the client
// composed the move against.
type Turn struct {
	Version    int         `json:"version"`
	Placements []Placement `json:"placements,omitempty"`
	Exchanges  []int       `json:"exchanges,omitempty"`
}

// Action is one entry of the append-only action log.
type Action struct {
	ID                  string     `json:"id"`
	GameID              string     `json:"gameId"`
	UserID              string     `json:"userId,omitempty"`
	Username            string     `json:"username,omitempty"`
	Version             int        `json:"version"`
	Type                ActionType `json:"type"`
	GameStatus          Status     `json:"gameStatus"`
	RoundNumber         int        `json:"roundNumber"`
	CurrentPlayerNumber int        `json:"currentPlayerNumber"`
	RemainingTileCount  int        `json:"remainingTileCount"`
	Score               int        `json:"score"`
	CreatedAt           time.Time  `json:"createdAt"`

	Placements  []Placement `json:"placements,omitempty"`
	TileNumbers []int       `json:"tileNumbers,omitempty"`
}

// Word is a word formed by a committed PLAY.
type Word struct {
	ID          string  `json:"id"`
	GameID      string  `json:"gameId"`
	ActionID    string  `json:"actionId"`
	UserID      string  `json:"userId"`
	RoundNumber int     `json:"roundNumber"`
	Word        string  `json:"word"`
	Definition  *string `json:"definition"`
	Score       int     `json:"score"`
}

// Chat is a message posted to a game. Sequence is contiguous from 1.
type Chat struct {
	ID        string    `json:"id"`
	GameID    string    `json:"gameId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Sequence  int       `json:"sequence"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Result is returned by every successful command: the actions and words
// appended, plus the tiles drawn by an exchange.
type Result struct {
	Actions []Action   `json:"actions"`
	Words   []Word     `json:"words,omitempty"`
	Tiles   []bag.Tile `json:"tiles,omitempty"`
}

// Validator looks words up in a language's dictionary.
type Validator interface {
	Lookup(language, word string) (definition string, ok bool)
}
