// Package core provides the value types shared by the engine, the room
// coordinator and the transports. It has no external dependencies so engine
// logic stays pure and testable.
package core

// Point is a board coordinate or an offset between coordinates.
// X grows to the right, Y grows downward; Y may be negative above the board.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns p shifted by the offset d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// InBounds reports whether p lies inside a w x h grid.
func (p Point) InBounds(w, h int) bool {
	return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h
}
