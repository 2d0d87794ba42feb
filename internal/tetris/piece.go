package tetris

import (
	"fmt"

	"github.com/vovakirdan/tetris-battle/internal/core"
)

// MaxShapeSize is the side of the largest piece matrix (the I piece).
const MaxShapeSize = 4

// Kind identifies one of the seven tetrimino variants.
type Kind uint8

const (
	KindI Kind = iota
	KindJ
	KindL
	KindO
	KindS
	KindT
	KindZ
)

// KindCount is the number of piece variants in the catalog.
const KindCount = 7

var kindNames = [KindCount]string{"I", "J", "L", "O", "S", "T", "Z"}

// String returns the single-letter name of the variant.
func (k Kind) String() string {
	if int(k) < KindCount {
		return kindNames[k]
	}
	return "?"
}

// ParseKind converts a single-letter name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("tetris: unknown piece %q", s)
}

// Color returns the catalog color of the variant.
func (k Kind) Color() core.Color {
	return catalog[k].color
}

// Shape is a square occupancy matrix of Size x Size cells stored in a fixed
// 4x4 array. Cells outside Size are always empty.
type Shape struct {
	Size  int
	Cells [MaxShapeSize][MaxShapeSize]bool // [row][col]
}

// NewShape builds a shape from rows of 0/1 values. The matrix must be square
// and no larger than MaxShapeSize.
func NewShape(rows [][]int) (Shape, error) {
	n := len(rows)
	if n == 0 || n > MaxShapeSize {
		return Shape{}, fmt.Errorf("tetris: shape size %d out of range", n)
	}
	s := Shape{Size: n}
	for y, row := range rows {
		if len(row) != n {
			return Shape{}, fmt.Errorf("tetris: shape row %d has %d cells, expected %d", y, len(row), n)
		}
		for x, v := range row {
			s.Cells[y][x] = v != 0
		}
	}
	return s, nil
}

func mustShape(rows [][]int) Shape {
	s, err := NewShape(rows)
	if err != nil {
		panic(err)
	}
	return s
}

// Filled reports whether the cell at (col, row) is occupied.
func (s Shape) Filled(col, row int) bool {
	if col < 0 || row < 0 || col >= s.Size || row >= s.Size {
		return false
	}
	return s.Cells[row][col]
}

// Points returns the occupied cells as (col, row) offsets.
func (s Shape) Points() []core.Point {
	pts := make([]core.Point, 0, 4)
	for y := 0; y < s.Size; y++ {
		for x := 0; x < s.Size; x++ {
			if s.Cells[y][x] {
				pts = append(pts, core.Pt(x, y))
			}
		}
	}
	return pts
}

// Rotate returns the shape turned a quarter turn.
// Clockwise: new[y][x] = old[N-1-x][y]. Counter-clockwise: new[y][x] = old[x][N-1-y].
func (s Shape) Rotate(clockwise bool) Shape {
	n := s.Size
	out := Shape{Size: n}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if clockwise {
				out.Cells[y][x] = s.Cells[n-1-x][y]
			} else {
				out.Cells[y][x] = s.Cells[x][n-1-y]
			}
		}
	}
	return out
}

// Rows returns the matrix as rows of 0/1 values.
func (s Shape) Rows() [][]int {
	rows := make([][]int, s.Size)
	for y := range rows {
		rows[y] = make([]int, s.Size)
		for x := range rows[y] {
			if s.Cells[y][x] {
				rows[y][x] = 1
			}
		}
	}
	return rows
}

// Piece is a tetrimino in a particular orientation.
type Piece struct {
	Kind     Kind
	Shape    Shape
	Rotation int // Quarter turns clockwise from the spawn orientation, 0-3
}

// NewPiece returns the variant in its spawn orientation.
func NewPiece(k Kind) Piece {
	return Piece{Kind: k, Shape: catalog[k].shape}
}

// Color returns the piece color.
func (p Piece) Color() core.Color {
	return p.Kind.Color()
}

// Rotated returns the piece turned a quarter turn.
func (p Piece) Rotated(clockwise bool) Piece {
	out := p
	out.Shape = p.Shape.Rotate(clockwise)
	if clockwise {
		out.Rotation = (p.Rotation + 1) % 4
	} else {
		out.Rotation = (p.Rotation + 3) % 4
	}
	return out
}

type pieceDef struct {
	shape Shape
	color core.Color
}

var catalog = [KindCount]pieceDef{
	KindI: {mustShape([][]int{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}), core.ColorCyan},
	KindJ: {mustShape([][]int{
		{1, 0, 0},
		{1, 1, 1},
		{0, 0, 0},
	}), core.ColorBlue},
	KindL: {mustShape([][]int{
		{0, 0, 1},
		{1, 1, 1},
		{0, 0, 0},
	}), core.ColorOrange},
	KindO: {mustShape([][]int{
		{1, 1},
		{1, 1},
	}), core.ColorYellow},
	KindS: {mustShape([][]int{
		{0, 1, 1},
		{1, 1, 0},
		{0, 0, 0},
	}), core.ColorGreen},
	KindT: {mustShape([][]int{
		{0, 1, 0},
		{1, 1, 1},
		{0, 0, 0},
	}), core.ColorPurple},
	KindZ: {mustShape([][]int{
		{1, 1, 0},
		{0, 1, 1},
		{0, 0, 0},
	}), core.ColorRed},
}

// wallKicks are tried in order when a rotation collides in place.
var wallKicks = [...]core.Point{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 2, Y: 0},
	{X: -2, Y: 0},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
	{X: -1, Y: -1},
	{X: 0, Y: -2},
}
