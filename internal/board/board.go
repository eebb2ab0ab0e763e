// apps/go-server/internal/board/board.go
//
// Immutable board snapshots.
// Responsibilities:
//   - Build the empty board with its static multiplier metadata.
//   - Expose read-only access to cells by coordinates.
//   - Derive new snapshots instead of mutating existing ones.
//
// A *Board is never modified after it is returned from this package, so
// snapshots can be shared between versions and read concurrently.

package board

// Cell is one square of the board. Multipliers and Center are static;
// the remaining fields describe the letter occupying the cell, if any.
type Cell struct {
	Number           int    `json:"cellNumber"`
	Row              int    `json:"rowNumber"`
	Column           int    `json:"columnNumber"`
	LetterMultiplier int    `json:"letterValueMultiplier"`
	WordMultiplier   int    `json:"wordScoreMultiplier"`
	Center           bool   `json:"center"`
	Letter           string `json:"letter,omitempty"`
	Value            int    `json:"value"`
	TileNumber       int    `json:"tileNumber,omitempty"`
	PlayerNumber     int    `json:"playerNumber,omitempty"`
	Sealed           bool   `json:"sealed"`
	LastPlayed       bool   `json:"lastPlayed"`
}

// Empty reports whether no letter is on the cell.
func (c Cell) Empty() bool { return c.Letter == "" }

// Board is a point-in-time arrangement of the 225 cells.
type Board struct {
	cells [Cells]Cell
}

// Snapshot is the versioned, serialisable view of a board.
type Snapshot struct {
	Version int    `json:"version"`
	Cells   []Cell `json:"cells"`
}

var empty = build()

func build() *Board {
	b := &Board{}
	const zero = '0'
	for r := 1; r <= Size; r++ {
		for c := 1; c <= Size; c++ {
			n := CellNumber(r, c)
			b.cells[n] = Cell{
				Number:           n,
				Row:              r,
				Column:           c,
				LetterMultiplier: int(letterMultipliers[r-1][c-1] - zero),
				WordMultiplier:   int(wordMultipliers[r-1][c-1] - zero),
				Center:           r == CenterRow && c == CenterColumn,
			}
		}
	}
	return b
}

// New returns the empty board.
func New() *Board { return empty }

// Cell returns the cell at row/column (1-based).
func (b *Board) Cell(row, column int) (Cell, bool) {
	if !InBounds(row, column) {
		return Cell{}, false
	}
	return b.cells[CellNumber(row, column)], true
}

// Cells returns a copy of all cells ordered by cell number.
func (b *Board) Cells() []Cell {
	out := make([]Cell, Cells)
	copy(out, b.cells[:])
	return out
}

// Snapshot returns the board tagged with a version.
func (b *Board) Snapshot(version int) Snapshot {
	return Snapshot{Version: version, Cells: b.Cells()}
}

// Occupied returns the number of cells holding a letter.
func (b *Board) Occupied() int {
	n := 0
	for i := range b.cells {
		if !b.cells[i].Empty() {
			n++
		}
	}
	return n
}

// Settled returns the board with every LastPlayed flag cleared.
// The receiver is returned as-is when nothing is flagged.
func (b *Board) Settled() *Board {
	flagged := false
	for i := range b.cells {
		if b.cells[i].LastPlayed {
			flagged = true
			break
		}
	}
	if !flagged {
		return b
	}
	next := &Board{cells: b.cells}
	for i := range next.cells {
		next.cells[i].LastPlayed = false
	}
	return next
}

func (b *Board) occupied(row, column int) bool {
	c, ok := b.Cell(row, column)
	return ok && !c.Empty()
}
