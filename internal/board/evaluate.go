// apps/go-server/internal/board/evaluate.go
//
// Placement validation, word scanning and scoring for a single move.
// Evaluate never mutates the receiver: on success it returns the next
// snapshot with the new cells sealed and flagged as last played.

package board

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNoTilesPlaced         = errors.New("no tiles placed")
	ErrInvalidPlacement      = errors.New("invalid placement")
	ErrCellOccupied          = errors.New("cell occupied")
	ErrCenterNotCovered      = errors.New("first move must cover the center cell")
	ErrDisconnectedPlacement = errors.New("placement is not connected to existing words")
	ErrSingleLetterWord      = errors.New("single letter words are not allowed")
)

// Direction of a scanned word.
type Direction string

const (
	Horizontal Direction = "HORIZONTAL"
	Vertical   Direction = "VERTICAL"
)

// Placement puts one rack tile on a cell.
type Placement struct {
	Row          int
	Column       int
	Letter       string
	Value        int
	TileNumber   int
	PlayerNumber int
}

// Word is a candidate word formed by a move.
type Word struct {
	Text      string    `json:"word"`
	Direction Direction `json:"direction"`
	Cells     []int     `json:"cells"`
	Score     int       `json:"score"`
}

// Move is the outcome of a successful evaluation.
type Move struct {
	Words []Word
	Score int
	Next  *Board
}

// Evaluate validates placements against b and scores the words they form.
func (b *Board) Evaluate(placements []Placement) (*Move, error) {
	if len(placements) == 0 {
		return nil, ErrNoTilesPlaced
	}

	first := b.Occupied() == 0
	next := &Board{cells: b.Settled().cells}
	placed := make(map[int]bool, len(placements))

	for _, p := range placements {
		if !InBounds(p.Row, p.Column) || p.Letter == "" {
			return nil, fmt.Errorf("%w: [%d,%d]", ErrInvalidPlacement, p.Row, p.Column)
		}
		n := CellNumber(p.Row, p.Column)
		if placed[n] {
			return nil, fmt.Errorf("%w: duplicate cell [%d,%d]", ErrInvalidPlacement, p.Row, p.Column)
		}
		if !b.cells[n].Empty() {
			return nil, fmt.Errorf("%w: [%d,%d]", ErrCellOccupied, p.Row, p.Column)
		}
		placed[n] = true
		c := &next.cells[n]
		c.Letter = p.Letter
		c.Value = p.Value
		c.TileNumber = p.TileNumber
		c.PlayerNumber = p.PlayerNumber
		c.Sealed = true
		c.LastPlayed = true
	}

	if first && !placed[CenterCell] {
		return nil, ErrCenterNotCovered
	}

	for n := range placed {
		c := next.cells[n]
		if !next.occupied(c.Row-1, c.Column) && !next.occupied(c.Row+1, c.Column) &&
			!next.occupied(c.Row, c.Column-1) && !next.occupied(c.Row, c.Column+1) {
			return nil, ErrSingleLetterWord
		}
	}

	if !next.connected(b, placed, first) {
		return nil, ErrDisconnectedPlacement
	}

	words := next.scan(placed)
	if len(words) == 0 {
		return nil, ErrSingleLetterWord
	}
	total := 0
	for _, w := range words {
		total += w.Score
	}
	return &Move{Words: words, Score: total, Next: next}, nil
}

// connected flood-fills occupied cells of next starting from the anchors:
// the center on the first move, every previously occupied cell otherwise.
// All placed cells must be reached.
func (b *Board) connected(prev *Board, placed map[int]bool, first bool) bool {
	var queue []int
	seen := make(map[int]bool)
	if first {
		queue = append(queue, CenterCell)
		seen[CenterCell] = true
	} else {
		for i := range prev.cells {
			if !prev.cells[i].Empty() {
				queue = append(queue, i)
				seen[i] = true
			}
		}
	}
	for len(queue) > 0 {
		c := b.cells[queue[0]]
		queue = queue[1:]
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			r, col := c.Row+d[0], c.Column+d[1]
			if !b.occupied(r, col) {
				continue
			}
			n := CellNumber(r, col)
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	for n := range placed {
		if !seen[n] {
			return false
		}
	}
	return true
}

// scan collects every maximal run of length >= 2 through a placed cell,
// ordered horizontal first, then by starting cell.
func (b *Board) scan(placed map[int]bool) []Word {
	cells := make([]int, 0, len(placed))
	for n := range placed {
		cells = append(cells, n)
	}
	sort.Ints(cells)

	type key struct {
		dir   Direction
		start int
	}
	seen := make(map[key]bool)
	var out []Word
	for _, dir := range []Direction{Horizontal, Vertical} {
		dr, dc := 0, 1
		if dir == Vertical {
			dr, dc = 1, 0
		}
		for _, n := range cells {
			c := b.cells[n]
			r, col := c.Row, c.Column
			for b.occupied(r-dr, col-dc) {
				r, col = r-dr, col-dc
			}
			k := key{dir, CellNumber(r, col)}
			if seen[k] {
				continue
			}
			seen[k] = true

			var run []int
			for b.occupied(r, col) {
				run = append(run, CellNumber(r, col))
				r, col = r+dr, col+dc
			}
			if len(run) < 2 {
				continue
			}
			out = append(out, b.word(dir, run, placed))
		}
	}
	return out
}

func (b *Board) word(dir Direction, run []int, placed map[int]bool) Word {
	var sb strings.Builder
	sum, mult := 0, 1
	for _, n := range run {
		c := b.cells[n]
		sb.WriteString(c.Letter)
		if placed[n] {
			sum += c.Value * c.LetterMultiplier
			mult *= c.WordMultiplier
		} else {
			sum += c.Value
		}
	}
	return Word{Text: sb.String(), Direction: dir, Cells: run, Score: sum * mult}
}
