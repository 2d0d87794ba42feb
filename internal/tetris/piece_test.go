package tetris

import "testing"

func TestShapeRotateRoundTrip(t *testing.T) {
	for k := Kind(0); k < KindCount; k++ {
		t.Run(k.String(), func(t *testing.T) {
			s := NewPiece(k).Shape
			if got := s.Rotate(true).Rotate(false); got != s {
				t.Errorf("cw then ccw = %v, expected %v", got.Rows(), s.Rows())
			}
			if got := s.Rotate(false).Rotate(true); got != s {
				t.Errorf("ccw then cw = %v, expected %v", got.Rows(), s.Rows())
			}
			full := s
			for i := 0; i < 4; i++ {
				full = full.Rotate(true)
			}
			if full != s {
				t.Errorf("four cw turns = %v, expected %v", full.Rows(), s.Rows())
			}
		})
	}
}

func TestShapeRotateT(t *testing.T) {
	s := NewPiece(KindT).Shape

	cw := mustShape([][]int{
		{0, 1, 0},
		{0, 1, 1},
		{0, 1, 0},
	})
	if got := s.Rotate(true); got != cw {
		t.Errorf("Rotate(cw) = %v, expected %v", got.Rows(), cw.Rows())
	}

	ccw := mustShape([][]int{
		{0, 1, 0},
		{1, 1, 0},
		{0, 1, 0},
	})
	if got := s.Rotate(false); got != ccw {
		t.Errorf("Rotate(ccw) = %v, expected %v", got.Rows(), ccw.Rows())
	}
}

func TestCatalog(t *testing.T) {
	tests := []struct {
		kind Kind
		size int
	}{
		{KindI, 4},
		{KindJ, 3},
		{KindL, 3},
		{KindO, 2},
		{KindS, 3},
		{KindT, 3},
		{KindZ, 3},
	}

	seen := make(map[string]bool)
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			p := NewPiece(tc.kind)
			if p.Shape.Size != tc.size {
				t.Errorf("Size = %d, expected %d", p.Shape.Size, tc.size)
			}
			if n := len(p.Shape.Points()); n != 4 {
				t.Errorf("occupied cells = %d, expected 4", n)
			}
			if p.Color().IsEmpty() {
				t.Error("piece has no color")
			}
			if seen[p.Color().Hex()] {
				t.Errorf("color %s reused", p.Color())
			}
			seen[p.Color().Hex()] = true

			parsed, err := ParseKind(tc.kind.String())
			if err != nil || parsed != tc.kind {
				t.Errorf("ParseKind(%q) = %v, %v", tc.kind.String(), parsed, err)
			}
		})
	}
}

func TestNewShapeRejectsBadMatrix(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int
	}{
		{"empty", nil},
		{"too large", [][]int{{1, 1, 1, 1, 1}, {0}, {0}, {0}, {0}}},
		{"not square", [][]int{{1, 1}, {1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewShape(tc.rows); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPieceRotationIndex(t *testing.T) {
	p := NewPiece(KindL)
	if got := p.Rotated(true).Rotation; got != 1 {
		t.Errorf("cw rotation = %d, expected 1", got)
	}
	if got := p.Rotated(false).Rotation; got != 3 {
		t.Errorf("ccw rotation = %d, expected 3", got)
	}
}
