package tetris

import "github.com/vovakirdan/tetris-battle/internal/core"

// Board is a fixed-size grid of cells. Dimensions never change after creation.
type Board struct {
	width  int
	height int
	rows   [][]core.Color // [row][col]
}

// NewBoard creates an empty width x height board.
func NewBoard(width, height int) *Board {
	b := &Board{width: width, height: height, rows: make([][]core.Color, height)}
	for y := range b.rows {
		b.rows[y] = make([]core.Color, width)
	}
	return b
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// At returns the cell at (x, y). Out-of-range cells read as empty.
func (b *Board) At(x, y int) core.Color {
	if !core.Pt(x, y).InBounds(b.width, b.height) {
		return core.ColorNone
	}
	return b.rows[y][x]
}

// Set writes a cell. Out-of-range writes are ignored.
func (b *Board) Set(x, y int, c core.Color) {
	if !core.Pt(x, y).InBounds(b.width, b.height) {
		return
	}
	b.rows[y][x] = c
}

// Collides reports whether shape placed with its top-left corner at (x, y)
// leaves the board sideways, drops below the floor or overlaps a filled cell.
// Cells above the top edge only get the column check.
func (b *Board) Collides(x, y int, shape Shape) bool {
	for _, p := range shape.Points() {
		col, row := x+p.X, y+p.Y
		if col < 0 || col >= b.width || row >= b.height {
			return true
		}
		if row >= 0 && !b.rows[row][col].IsEmpty() {
			return true
		}
	}
	return false
}

// place writes the shape's occupied cells that fall inside the board.
func (b *Board) place(x, y int, shape Shape, c core.Color) {
	for _, p := range shape.Points() {
		b.Set(x+p.X, y+p.Y, c)
	}
}

// RowFull reports whether every cell in the row is filled.
func (b *Board) RowFull(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	for _, c := range b.rows[y] {
		if c.IsEmpty() {
			return false
		}
	}
	return true
}

// ClearLines removes full rows, scanning bottom-up. Rows above a cleared row
// shift down by one and the same row index is examined again.
// Returns the number of rows removed.
func (b *Board) ClearLines() int {
	cleared := 0
	for y := b.height - 1; y >= 0; y-- {
		if !b.RowFull(y) {
			continue
		}
		for r := y; r > 0; r-- {
			copy(b.rows[r], b.rows[r-1])
		}
		for x := range b.rows[0] {
			b.rows[0][x] = core.ColorNone
		}
		cleared++
		y++
	}
	return cleared
}

// StackHeight returns the height of the tallest column, in rows from the floor.
func (b *Board) StackHeight() int {
	for y := 0; y < b.height; y++ {
		for _, c := range b.rows[y] {
			if !c.IsEmpty() {
				return b.height - y
			}
		}
	}
	return 0
}

// Rows returns a copy of the grid.
func (b *Board) Rows() [][]core.Color {
	out := make([][]core.Color, b.height)
	for y := range b.rows {
		out[y] = append([]core.Color(nil), b.rows[y]...)
	}
	return out
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	return &Board{width: b.width, height: b.height, rows: b.Rows()}
}
