package tetris

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/tetris-battle/internal/core"
)

// PieceView is the wire form of a piece: its variant, current matrix and color.
type PieceView struct {
	Type  string     `json:"type"`
	Shape [][]int    `json:"shape"`
	Color core.Color `json:"color"`
}

func viewOf(p Piece) PieceView {
	return PieceView{Type: p.Kind.String(), Shape: p.Shape.Rows(), Color: p.Color()}
}

// Snapshot captures the engine output for relaying to other participants.
type Snapshot struct {
	Board        [][]core.Color `json:"board"`
	CurrentPiece *PieceView     `json:"currentPiece,omitempty"`
	CurrentX     int            `json:"currentX"`
	CurrentY     int            `json:"currentY"`
	GhostY       int            `json:"ghostY"`
	NextPieces   []PieceView    `json:"nextPieces"`
	HeldPiece    *PieceView     `json:"heldPiece,omitempty"`
	CanHold      bool           `json:"canHold"`
	Score        int            `json:"score"`
	Level        int            `json:"level"`
	LinesCleared int            `json:"linesCleared"`
	IsGameOver   bool           `json:"isGameOver"`
	IsPaused     bool           `json:"isPaused"`
	PieceCount   int            `json:"pieceCount"`
}

// Snapshot returns the current engine output.
func (e *Engine) Snapshot() Snapshot {
	cur := viewOf(e.current)
	next := make([]PieceView, len(e.queue))
	for i, p := range e.queue {
		next[i] = viewOf(p)
	}
	snap := Snapshot{
		Board:        e.board.Rows(),
		CurrentPiece: &cur,
		CurrentX:     e.pos.X,
		CurrentY:     e.pos.Y,
		GhostY:       e.GhostY(),
		NextPieces:   next,
		CanHold:      e.canHold,
		Score:        e.score,
		Level:        e.level,
		LinesCleared: e.lines,
		IsGameOver:   e.gameOver,
		IsPaused:     e.paused,
		PieceCount:   e.spawned,
	}
	if e.held != nil {
		held := viewOf(*e.held)
		snap.HeldPiece = &held
	}
	return snap
}

// Encode serializes the snapshot as JSON, the opaque payload relayed between
// participants.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("tetris: cannot encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a payload produced by Snapshot.Encode.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("tetris: cannot decode snapshot: %w", err)
	}
	return s, nil
}
