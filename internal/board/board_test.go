package board

import (
	"errors"
	"testing"
)

var values = map[string]int{"A": 1, "C": 3, "S": 1, "T": 1}

func place(row, col int, letter string) Placement {
	return Placement{Row: row, Column: col, Letter: letter, Value: values[letter], PlayerNumber: 1}
}

func lastPlayed(b *Board) []int {
	var out []int
	for _, c := range b.Cells() {
		if c.LastPlayed {
			out = append(out, c.Number)
		}
	}
	return out
}

func mustEvaluate(t *testing.T, b *Board, ps ...Placement) *Move {
	t.Helper()
	m, err := b.Evaluate(ps)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return m
}

func TestLayout(t *testing.T) {
	b := New()
	counts := map[string]int{}
	for _, c := range b.Cells() {
		switch {
		case c.WordMultiplier == 3:
			counts["tw"]++
		case c.WordMultiplier == 2:
			counts["dw"]++
		case c.LetterMultiplier == 3:
			counts["tl"]++
		case c.LetterMultiplier == 2:
			counts["dl"]++
		}
		if c.Center && c.Number != CenterCell {
			t.Fatalf("unexpected center at %d", c.Number)
		}
	}
	want := map[string]int{"tw": 8, "dw": 17, "tl": 12, "dl": 24}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("%s squares = %d, want %d", k, counts[k], v)
		}
	}
	if CenterCell != 112 {
		t.Errorf("center cell = %d, want 112", CenterCell)
	}
	c, ok := b.Cell(8, 8)
	if !ok || !c.Center || c.WordMultiplier != 2 {
		t.Errorf("center cell = %+v", c)
	}
	if _, ok := b.Cell(0, 8); ok {
		t.Error("row 0 should be out of bounds")
	}
}

func TestEvaluateFirstMove(t *testing.T) {
	b := New()
	m := mustEvaluate(t, b, place(8, 7, "C"), place(8, 8, "A"), place(8, 9, "T"))

	if m.Score != 10 {
		t.Errorf("score = %d, want 10", m.Score)
	}
	if len(m.Words) != 1 || m.Words[0].Text != "CAT" || m.Words[0].Direction != Horizontal {
		t.Fatalf("words = %+v", m.Words)
	}
	if b.Occupied() != 0 {
		t.Error("receiver was mutated")
	}
	if got := lastPlayed(m.Next); len(got) != 3 {
		t.Errorf("last played = %v", got)
	}
	settled := m.Next.Settled()
	if len(lastPlayed(settled)) != 0 {
		t.Error("settled board still flags cells")
	}
	if c, _ := settled.Cell(CenterRow, CenterColumn); settled.Occupied() != 3 || !c.Sealed {
		t.Error("settled board lost letters")
	}
	if settled.Settled() != settled {
		t.Error("settling a settled board should return it unchanged")
	}
}

func TestEvaluateFollowUp(t *testing.T) {
	first := mustEvaluate(t, New(), place(8, 7, "C"), place(8, 8, "A"), place(8, 9, "T")).Next

	t.Run("extend", func(t *testing.T) {
		m := mustEvaluate(t, first, place(8, 10, "S"))
		if m.Score != 6 || m.Words[0].Text != "CATS" {
			t.Fatalf("got %+v", m)
		}
		if n := lastPlayed(m.Next); len(n) != 1 || n[0] != CellNumber(8, 10) {
			t.Errorf("last played = %v", n)
		}
	})

	t.Run("cross words", func(t *testing.T) {
		m := mustEvaluate(t, first, place(9, 8, "A"), place(9, 9, "T"))
		var texts []string
		for _, w := range m.Words {
			texts = append(texts, w.Text)
		}
		want := []string{"AT", "AA", "TT"}
		if len(texts) != len(want) {
			t.Fatalf("words = %v, want %v", texts, want)
		}
		for i := range want {
			if texts[i] != want[i] {
				t.Fatalf("words = %v, want %v", texts, want)
			}
		}
		if m.Score != 8 {
			t.Errorf("score = %d, want 8", m.Score)
		}
	})
}

func TestEvaluateErrors(t *testing.T) {
	first := mustEvaluate(t, New(), place(8, 7, "C"), place(8, 8, "A"), place(8, 9, "T")).Next

	tests := []struct {
		name  string
		board *Board
		ps    []Placement
		want  error
	}{
		{"no tiles", New(), nil, ErrNoTilesPlaced},
		{"out of bounds", New(), []Placement{place(16, 1, "A")}, ErrInvalidPlacement},
		{"duplicate cell", New(), []Placement{place(8, 8, "A"), place(8, 8, "T")}, ErrInvalidPlacement},
		{"center not covered", New(), []Placement{place(1, 1, "A"), place(1, 2, "T")}, ErrCenterNotCovered},
		{"single letter", New(), []Placement{place(8, 8, "A")}, ErrSingleLetterWord},
		{"occupied", first, []Placement{place(8, 8, "A"), place(9, 8, "T")}, ErrCellOccupied},
		{"disconnected", first, []Placement{place(1, 1, "A"), place(1, 2, "T")}, ErrDisconnectedPlacement},
		{"isolated tile", first, []Placement{place(8, 10, "S"), place(1, 1, "A")}, ErrSingleLetterWord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.board.Evaluate(tt.ps)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
