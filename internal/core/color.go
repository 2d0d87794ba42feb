package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Color identifies the color of a board cell or piece.
// ColorNone marks an empty cell; every other value belongs to one tetrimino.
type Color uint8

// Piece colors, one per tetrimino variant.
const (
	ColorNone Color = iota
	ColorCyan
	ColorBlue
	ColorOrange
	ColorYellow
	ColorGreen
	ColorPurple
	ColorRed
)

var colorHex = [...]string{
	ColorNone:   "",
	ColorCyan:   "#00FFFF",
	ColorBlue:   "#0000FF",
	ColorOrange: "#FF7F00",
	ColorYellow: "#FFFF00",
	ColorGreen:  "#00FF00",
	ColorPurple: "#800080",
	ColorRed:    "#FF0000",
}

// IsEmpty reports whether the color marks an empty cell.
func (c Color) IsEmpty() bool {
	return c == ColorNone
}

// Hex returns the "#RRGGBB" form of the color, or "" for ColorNone.
func (c Color) Hex() string {
	if int(c) >= len(colorHex) {
		return ""
	}
	return colorHex[c]
}

// String implements fmt.Stringer.
func (c Color) String() string {
	if c == ColorNone {
		return "none"
	}
	return c.Hex()
}

// ParseColor converts a "#RRGGBB" string back to a Color.
// The empty string parses as ColorNone.
func ParseColor(s string) (Color, error) {
	if s == "" {
		return ColorNone, nil
	}
	for i, hex := range colorHex {
		if i > 0 && hex == s {
			return Color(i), nil
		}
	}
	return ColorNone, fmt.Errorf("core: unknown color %q", s)
}

// MarshalJSON encodes an empty cell as 0 and a colored cell as its hex string.
func (c Color) MarshalJSON() ([]byte, error) {
	if c == ColorNone {
		return []byte("0"), nil
	}
	return json.Marshal(c.Hex())
}

// UnmarshalJSON accepts 0, null, "" or a hex string.
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("0")) || bytes.Equal(data, []byte("null")) {
		*c = ColorNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("core: invalid color %s: %w", data, err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
