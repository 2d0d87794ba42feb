package tetris

import (
	"testing"

	"github.com/vovakirdan/tetris-battle/internal/core"
)

func newTestEngine(kinds ...Kind) *Engine {
	return NewWithSource(core.DefaultConfig(), NewSequenceSource(kinds...))
}

func TestEngineSpawn(t *testing.T) {
	tests := []struct {
		kind  Kind
		wantX int
	}{
		{KindI, 3},
		{KindO, 4},
		{KindT, 4},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			e := newTestEngine(tc.kind)
			p, pos := e.Current()
			if p.Kind != tc.kind {
				t.Errorf("current = %v, expected %v", p.Kind, tc.kind)
			}
			if pos != core.Pt(tc.wantX, 0) {
				t.Errorf("spawn position = %v, expected (%d, 0)", pos, tc.wantX)
			}
			if len(e.Queue()) != 3 {
				t.Errorf("queue length = %d, expected 3", len(e.Queue()))
			}
			if !e.CanHold() {
				t.Error("canHold should be true after spawn")
			}
		})
	}
}

func TestEngineMoveDownLocks(t *testing.T) {
	e := newTestEngine(KindO)

	moves := 0
	for e.MoveDown() {
		moves++
	}
	if moves != 18 {
		t.Errorf("moves before lock = %d, expected 18", moves)
	}

	for _, p := range []core.Point{{X: 4, Y: 18}, {X: 5, Y: 18}, {X: 4, Y: 19}, {X: 5, Y: 19}} {
		if e.Board().At(p.X, p.Y) != core.ColorYellow {
			t.Errorf("cell %v = %v, expected yellow", p, e.Board().At(p.X, p.Y))
		}
	}
	if e.Spawned() != 2 {
		t.Errorf("Spawned() = %d, expected 2", e.Spawned())
	}
	if _, pos := e.Current(); pos.Y != 0 {
		t.Errorf("new piece at row %d, expected 0", pos.Y)
	}
}

func TestEngineHardDrop(t *testing.T) {
	e := newTestEngine(KindO)

	if got := e.GhostY(); got != 18 {
		t.Errorf("GhostY() = %d, expected 18", got)
	}
	if snap := e.Snapshot(); snap.GhostY != 18 || snap.CurrentY != 0 {
		t.Errorf("snapshot ghost at %d from row %d, expected 18 from 0", snap.GhostY, snap.CurrentY)
	}
	if dist := e.HardDrop(); dist != 18 {
		t.Errorf("HardDrop() = %d, expected 18", dist)
	}
	if e.Board().At(4, 19) != core.ColorYellow {
		t.Error("hard drop did not lock the piece")
	}
	if e.HardDrop() != 16 {
		t.Error("second piece should stack on the first")
	}
}

func TestEngineMoveWalls(t *testing.T) {
	e := newTestEngine(KindO)

	left := 0
	for e.MoveLeft() {
		left++
	}
	if left != 4 {
		t.Errorf("left moves = %d, expected 4", left)
	}
	right := 0
	for e.MoveRight() {
		right++
	}
	if right != 8 {
		t.Errorf("right moves = %d, expected 8", right)
	}
}

func TestEngineScoring(t *testing.T) {
	tests := []struct {
		name        string
		linesBefore int
		wantScore   int
		wantLevel   int
	}{
		{"two lines at level 1", 0, 300, 1},
		{"two lines at level 2", 10, 600, 2},
		{"level recomputed before scoring", 8, 600, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(KindO)
			e.lines = tc.linesBefore
			e.level = LevelFor(tc.linesBefore)
			for y := 18; y < 20; y++ {
				for x := 0; x < 10; x++ {
					if x != 4 && x != 5 {
						e.board.Set(x, y, core.ColorRed)
					}
				}
			}

			e.HardDrop()

			st := e.State()
			if e.LastCleared() != 2 {
				t.Errorf("LastCleared() = %d, expected 2", e.LastCleared())
			}
			if st.Score != tc.wantScore {
				t.Errorf("Score = %d, expected %d", st.Score, tc.wantScore)
			}
			if st.Level != tc.wantLevel {
				t.Errorf("Level = %d, expected %d", st.Level, tc.wantLevel)
			}
			if st.Lines != tc.linesBefore+2 {
				t.Errorf("Lines = %d, expected %d", st.Lines, tc.linesBefore+2)
			}
			if e.Board().StackHeight() != 0 {
				t.Errorf("board not empty after clear, height %d", e.Board().StackHeight())
			}
		})
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		lines, level, want int
	}{
		{0, 1, 0},
		{1, 1, 100},
		{2, 1, 300},
		{3, 1, 500},
		{4, 1, 800},
		{2, 2, 600},
		{4, 3, 2400},
	}

	for _, tc := range tests {
		if got := Points(tc.lines, tc.level); got != tc.want {
			t.Errorf("Points(%d, %d) = %d, expected %d", tc.lines, tc.level, got, tc.want)
		}
	}
}

func TestEngineRotateWallKick(t *testing.T) {
	e := newTestEngine(KindI)

	if !e.Rotate(true) {
		t.Fatal("first rotation should succeed in open space")
	}
	for e.MoveLeft() {
	}
	if _, pos := e.Current(); pos.X != -2 {
		t.Fatalf("vertical I against the wall at x = %d, expected -2", pos.X)
	}

	if !e.Rotate(true) {
		t.Fatal("rotation against the wall should kick")
	}
	p, pos := e.Current()
	if pos != core.Pt(0, 0) {
		t.Errorf("kicked position = %v, expected (0, 0)", pos)
	}
	if p.Rotation != 2 {
		t.Errorf("Rotation = %d, expected 2", p.Rotation)
	}
}

func TestEngineRotateFailsWhenBoxedIn(t *testing.T) {
	e := newTestEngine(KindT)
	e.pos = core.Pt(4, 10)
	own := map[core.Point]bool{}
	for _, p := range e.current.Shape.Points() {
		own[e.pos.Add(p)] = true
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			if !own[core.Pt(x, y)] {
				e.board.Set(x, y, core.ColorRed)
			}
		}
	}

	before, beforePos := e.Current()
	if e.Rotate(true) {
		t.Fatal("rotation should fail with every kick blocked")
	}
	after, afterPos := e.Current()
	if after != before || afterPos != beforePos {
		t.Error("failed rotation changed the piece")
	}
}

func TestEngineHoldOncePerSpawn(t *testing.T) {
	e := newTestEngine(KindI, KindT, KindO, KindS, KindZ)

	if !e.Hold() {
		t.Fatal("first hold should succeed")
	}
	held, ok := e.Held()
	if !ok || held.Kind != KindI {
		t.Fatalf("held = %v, expected I", held.Kind)
	}
	if cur, _ := e.Current(); cur.Kind != KindT {
		t.Fatalf("current = %v, expected T", cur.Kind)
	}

	if e.Hold() {
		t.Error("second hold without a spawn should be a no-op")
	}
	if e.CanHold() {
		t.Error("canHold should stay false")
	}
	if held, _ := e.Held(); held.Kind != KindI {
		t.Errorf("held changed to %v", held.Kind)
	}

	e.HardDrop()
	if !e.CanHold() {
		t.Fatal("canHold should reset on spawn")
	}
	if cur, _ := e.Current(); cur.Kind != KindO {
		t.Fatalf("current = %v, expected O", cur.Kind)
	}
	e.MoveLeft()
	if !e.Hold() {
		t.Fatal("swap hold should succeed")
	}
	cur, pos := e.Current()
	if cur.Kind != KindI || pos != core.Pt(3, 0) {
		t.Errorf("swapped in %v at %v, expected I at (3, 0)", cur.Kind, pos)
	}
	if held, _ := e.Held(); held.Kind != KindO {
		t.Errorf("held = %v, expected O", held.Kind)
	}
}

func TestEnginePauseGatesMoves(t *testing.T) {
	e := newTestEngine(KindT)

	if !e.TogglePause() {
		t.Fatal("TogglePause() should return true")
	}
	_, before := e.Current()
	if e.MoveLeft() || e.MoveDown() || e.Rotate(true) || e.Hold() || e.HardDrop() >= 0 {
		t.Error("mutations should be rejected while paused")
	}
	if _, after := e.Current(); after != before {
		t.Error("paused engine moved")
	}

	if e.TogglePause() {
		t.Fatal("TogglePause() should return false")
	}
	if !e.MoveLeft() {
		t.Error("move should succeed after unpause")
	}
}

func TestEngineGameOverIsTerminal(t *testing.T) {
	e := newTestEngine(KindO)
	e.board.Set(4, 0, core.ColorRed)
	e.spawnNewPiece()

	if !e.IsGameOver() {
		t.Fatal("spawn collision should end the game")
	}
	snap := e.Snapshot()
	if e.MoveLeft() || e.MoveDown() || e.Hold() || e.Rotate(false) || e.HardDrop() >= 0 {
		t.Error("mutations should be rejected after game over")
	}
	if e.TogglePause() {
		t.Error("pause should not toggle after game over")
	}
	if e.Apply(core.ActionPauseToggle) {
		t.Error("Apply(pauseToggle) should report no change")
	}
	if after := e.Snapshot(); after.CurrentX != snap.CurrentX || after.CurrentY != snap.CurrentY {
		t.Error("terminal engine changed")
	}

	e.Reset()
	if e.IsGameOver() || e.Board().StackHeight() != 0 || e.State().Score != 0 {
		t.Error("Reset() did not recreate the state")
	}
}

func TestEngineStep(t *testing.T) {
	e := newTestEngine(KindO)

	frame := core.NewInputFrame(core.ActionMoveLeft, core.ActionMoveLeft, core.ActionHardDrop)
	res := e.Step(frame)
	if res.Applied != 3 {
		t.Errorf("Applied = %d, expected 3", res.Applied)
	}
	if e.Board().At(2, 19) != core.ColorYellow {
		t.Error("piece did not land two columns left of spawn")
	}
	if res.State.GameOver {
		t.Error("unexpected game over")
	}
}

func TestEngineDeterministicSeed(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Seed = 42

	a := New(cfg)
	b := New(cfg)
	for i := 0; i < 30 && !a.IsGameOver(); i++ {
		a.HardDrop()
		b.HardDrop()
	}

	sa, sb := a.Snapshot(), b.Snapshot()
	if sa.Score != sb.Score || sa.PieceCount != sb.PieceCount || sa.IsGameOver != sb.IsGameOver {
		t.Fatalf("engines diverged: %+v vs %+v", sa, sb)
	}
	for i := range sa.NextPieces {
		if sa.NextPieces[i].Type != sb.NextPieces[i].Type {
			t.Errorf("queue[%d] = %s vs %s", i, sa.NextPieces[i].Type, sb.NextPieces[i].Type)
		}
	}
}

func TestEngineCloneIsIndependent(t *testing.T) {
	e := newTestEngine(KindO, KindT)
	c := e.Clone()

	c.HardDrop()
	if e.Board().StackHeight() != 0 {
		t.Error("clone shares the board")
	}
	if e.Spawned() != 1 {
		t.Errorf("original Spawned() = %d, expected 1", e.Spawned())
	}
	if cur, _ := c.Current(); cur.Kind != KindT {
		t.Errorf("clone spawned %v, expected T from its queue", cur.Kind)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := newTestEngine(KindT, KindI)
	e.Hold()
	e.HardDrop()

	data, err := e.Snapshot().Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() failed: %v", err)
	}

	if len(snap.Board) != 20 || len(snap.Board[0]) != 10 {
		t.Fatalf("board is %dx%d", len(snap.Board[0]), len(snap.Board))
	}
	if snap.HeldPiece == nil || snap.HeldPiece.Type != "T" {
		t.Errorf("held piece = %+v, expected T", snap.HeldPiece)
	}
	if snap.Board[19][3] != core.ColorCyan {
		t.Errorf("floor cell = %v, expected cyan", snap.Board[19][3])
	}
	if len(snap.NextPieces) != 3 {
		t.Errorf("next pieces = %d, expected 3", len(snap.NextPieces))
	}
	if snap.GhostY != e.GhostY() {
		t.Errorf("ghost row = %d, expected %d", snap.GhostY, e.GhostY())
	}
}
