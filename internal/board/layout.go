// apps/go-server/internal/board/layout.go
//
// Static premium-square layout of the 15x15 board.
// Rows are written top to bottom, one digit per column: 1 = plain,
// 2 = double, 3 = triple. The center star is a double word square.

package board

const (
	// Size is the number of rows and columns.
	Size = 15
	// Cells is the number of cells on the board.
	Cells = Size * Size
	// CenterRow and CenterColumn locate the star (1-based).
	CenterRow    = 8
	CenterColumn = 8
)

var (
	wordMultipliers = [Size]string{
		"311111131111113",
		"121111111111121",
		"112111111111211",
		"111211111112111",
		"111121111121111",
		"111111111111111",
		"111111111111111",
		"311111121111113",
		"111111111111111",
		"111111111111111",
		"111121111121111",
		"111211111112111",
		"112111111111211",
		"121111111111121",
		"311111131111113",
	}

	letterMultipliers = [Size]string{
		"111211111112111",
		"111113111311111",
		"111111212111111",
		"211111121111112",
		"111111111111111",
		"131113111311131",
		"112111212111211",
		"111211111112111",
		"112111212111211",
		"131113111311131",
		"111111111111111",
		"211111121111112",
		"111111212111111",
		"111113111311111",
		"111211111112111",
	}
)

// CellNumber maps 1-based row/column to the 0-based cell number.
func CellNumber(row, column int) int {
	return (row-1)*Size + (column - 1)
}

// InBounds reports whether row/column (1-based) are on the board.
func InBounds(row, column int) bool {
	return row >= 1 && row <= Size && column >= 1 && column <= Size
}

// CenterCell is the cell number of the star.
var CenterCell = CellNumber(CenterRow, CenterColumn)
