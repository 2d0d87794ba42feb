// Package tetris implements the deterministic falling-block engine: one
// board per participant, driven by discrete input commands and a gravity
// tick. The engine knows nothing about networking and is not safe for
// concurrent use; Driver serializes access for a single owner.
package tetris

import "github.com/vovakirdan/tetris-battle/internal/core"

// MinQueueLength is the smallest lookahead queue the engine keeps.
const MinQueueLength = 3

// basePoints is indexed by the number of lines cleared in one lock.
var basePoints = [...]int{0, 100, 300, 500, 800}

// Points returns the score awarded for clearing lines in one lock at level.
func Points(lines, level int) int {
	if lines <= 0 {
		return 0
	}
	if lines >= len(basePoints) {
		lines = len(basePoints) - 1
	}
	return basePoints[lines] * level
}

// LevelFor returns the level reached after clearing the given total of lines.
func LevelFor(totalLines int) int {
	return totalLines/10 + 1
}

// Engine is the per-player game state machine.
type Engine struct {
	cfg    core.RuntimeConfig
	source PieceSource

	board   *Board
	current Piece
	pos     core.Point
	queue   []Piece
	held    *Piece
	canHold bool

	score int
	level int
	lines int

	gameOver bool
	paused   bool

	spawned     int // Pieces spawned since reset
	lastCleared int // Lines cleared by the most recent lock
}

// New creates an engine whose piece order is derived from cfg.Seed.
func New(cfg core.RuntimeConfig) *Engine {
	return NewWithSource(cfg, NewRandomSource(cfg.Seed))
}

// NewWithSource creates an engine that draws pieces from src.
func NewWithSource(cfg core.RuntimeConfig, src PieceSource) *Engine {
	def := core.DefaultConfig()
	if cfg.BoardW <= 0 {
		cfg.BoardW = def.BoardW
	}
	if cfg.BoardH <= 0 {
		cfg.BoardH = def.BoardH
	}
	if cfg.QueueLength < MinQueueLength {
		cfg.QueueLength = MinQueueLength
	}
	e := &Engine{cfg: cfg, source: src}
	e.Reset()
	return e
}

// Reset recreates the board and all counters and spawns the first piece.
// This is the only way out of game over.
func (e *Engine) Reset() {
	e.board = NewBoard(e.cfg.BoardW, e.cfg.BoardH)
	e.held = nil
	e.canHold = true
	e.score = 0
	e.level = 1
	e.lines = 0
	e.gameOver = false
	e.paused = false
	e.spawned = 0
	e.lastCleared = 0
	e.queue = e.queue[:0]
	e.fillQueue()
	e.spawnNewPiece()
}

// Config returns the runtime configuration the engine was built with.
func (e *Engine) Config() core.RuntimeConfig { return e.cfg }

// Board returns the live board. Callers must not mutate it.
func (e *Engine) Board() *Board { return e.board }

// Current returns the active piece and its top-left board offset.
func (e *Engine) Current() (Piece, core.Point) { return e.current, e.pos }

// Queue returns a copy of the lookahead queue, next piece first.
func (e *Engine) Queue() []Piece { return append([]Piece(nil), e.queue...) }

// Held returns the held piece, if any.
func (e *Engine) Held() (Piece, bool) {
	if e.held == nil {
		return Piece{}, false
	}
	return *e.held, true
}

// CanHold reports whether hold is still available for the active piece.
func (e *Engine) CanHold() bool { return e.canHold }

// Spawned returns the number of pieces spawned since the last reset.
func (e *Engine) Spawned() int { return e.spawned }

// LastCleared returns the lines cleared by the most recent lock.
func (e *Engine) LastCleared() int { return e.lastCleared }

// IsGameOver reports whether a spawn collided.
func (e *Engine) IsGameOver() bool { return e.gameOver }

// IsPaused reports whether the engine is paused.
func (e *Engine) IsPaused() bool { return e.paused }

// State returns the summary state.
func (e *Engine) State() core.GameState {
	return core.GameState{
		Score:    e.score,
		Level:    e.level,
		Lines:    e.lines,
		GameOver: e.gameOver,
		Paused:   e.paused,
	}
}

func (e *Engine) frozen() bool {
	return e.paused || e.gameOver
}

// CheckCollision reports whether shape at (x, y) collides with the walls,
// the floor or locked cells.
func (e *Engine) CheckCollision(x, y int, shape Shape) bool {
	return e.board.Collides(x, y, shape)
}

func (e *Engine) shift(dx, dy int) bool {
	if e.CheckCollision(e.pos.X+dx, e.pos.Y+dy, e.current.Shape) {
		return false
	}
	e.pos = e.pos.Add(core.Pt(dx, dy))
	return true
}

// MoveLeft shifts the active piece one column left if the cell is free.
func (e *Engine) MoveLeft() bool {
	if e.frozen() {
		return false
	}
	return e.shift(-1, 0)
}

// MoveRight shifts the active piece one column right if the cell is free.
func (e *Engine) MoveRight() bool {
	if e.frozen() {
		return false
	}
	return e.shift(1, 0)
}

// MoveDown shifts the active piece one row down. When the piece cannot move
// it is locked and MoveDown returns false.
func (e *Engine) MoveDown() bool {
	if e.frozen() {
		return false
	}
	if e.shift(0, 1) {
		return true
	}
	e.lockPiece()
	return false
}

// HardDrop moves the active piece to its lowest legal row and locks it.
// Returns the number of rows dropped, or -1 if the engine is frozen.
func (e *Engine) HardDrop() int {
	if e.frozen() {
		return -1
	}
	dist := 0
	for !e.CheckCollision(e.pos.X, e.pos.Y+dist+1, e.current.Shape) {
		dist++
	}
	e.pos.Y += dist
	e.lockPiece()
	return dist
}

// GhostY returns the row the active piece would land on after a hard drop.
func (e *Engine) GhostY() int {
	y := e.pos.Y
	for !e.CheckCollision(e.pos.X, y+1, e.current.Shape) {
		y++
	}
	return y
}

// Rotate turns the active piece a quarter turn, trying the wall kicks in
// order when the rotated shape collides in place.
func (e *Engine) Rotate(clockwise bool) bool {
	if e.frozen() {
		return false
	}
	rotated := e.current.Rotated(clockwise)
	if !e.CheckCollision(e.pos.X, e.pos.Y, rotated.Shape) {
		e.current = rotated
		return true
	}
	for _, kick := range wallKicks {
		next := e.pos.Add(kick)
		if !e.CheckCollision(next.X, next.Y, rotated.Shape) {
			e.pos = next
			e.current = rotated
			return true
		}
	}
	return false
}

// Hold stashes the active piece, or swaps it with the held one. Usable once
// per spawn.
func (e *Engine) Hold() bool {
	if e.frozen() || !e.canHold {
		return false
	}
	if e.held == nil {
		stashed := e.current
		e.held = &stashed
		e.spawnNewPiece()
	} else {
		e.current, *e.held = *e.held, e.current
		e.pos = e.spawnPosition(e.current)
		if e.CheckCollision(e.pos.X, e.pos.Y, e.current.Shape) {
			e.gameOver = true
		}
	}
	e.canHold = false
	return true
}

// TogglePause flips the pause flag unless the game is over.
// Returns the resulting pause state.
func (e *Engine) TogglePause() bool {
	if !e.gameOver {
		e.paused = !e.paused
	}
	return e.paused
}

// Tick applies one gravity step.
func (e *Engine) Tick() bool {
	return e.MoveDown()
}

// Apply executes a single input command and reports whether it changed the engine.
func (e *Engine) Apply(a core.Action) bool {
	switch a {
	case core.ActionMoveLeft:
		return e.MoveLeft()
	case core.ActionMoveRight:
		return e.MoveRight()
	case core.ActionSoftDrop:
		if e.frozen() {
			return false
		}
		e.MoveDown()
		return true
	case core.ActionHardDrop:
		return e.HardDrop() >= 0
	case core.ActionRotateCW:
		return e.Rotate(true)
	case core.ActionRotateCCW:
		return e.Rotate(false)
	case core.ActionHold:
		return e.Hold()
	case core.ActionPauseToggle:
		if e.gameOver {
			return false
		}
		e.TogglePause()
		return true
	default:
		return false
	}
}

// Step applies every action of the frame in order.
func (e *Engine) Step(in core.InputFrame) core.StepResult {
	res := core.StepResult{}
	before := e.lines
	for _, a := range in.Actions {
		if e.Apply(a) {
			res.Applied++
		}
	}
	res.Cleared = e.lines - before
	res.State = e.State()
	return res
}

func (e *Engine) lockPiece() {
	e.board.place(e.pos.X, e.pos.Y, e.current.Shape, e.current.Color())
	e.clearLines()
	e.spawnNewPiece()
}

func (e *Engine) clearLines() {
	cleared := e.board.ClearLines()
	e.lastCleared = cleared
	if cleared == 0 {
		return
	}
	e.lines += cleared
	e.level = LevelFor(e.lines)
	e.score += Points(cleared, e.level)
}

func (e *Engine) fillQueue() {
	for len(e.queue) < e.cfg.QueueLength {
		e.queue = append(e.queue, NewPiece(e.source.Next()))
	}
}

func (e *Engine) spawnPosition(p Piece) core.Point {
	return core.Pt(e.cfg.BoardW/2-p.Shape.Size/2, 0)
}

func (e *Engine) spawnNewPiece() {
	e.current = e.queue[0]
	e.queue = append(e.queue[:0], e.queue[1:]...)
	e.fillQueue()
	e.pos = e.spawnPosition(e.current)
	e.canHold = true
	e.spawned++
	if e.CheckCollision(e.pos.X, e.pos.Y, e.current.Shape) {
		e.gameOver = true
	}
}

// Clone returns an independent copy of the engine. The copy draws future
// pieces by cycling its current queue, so simulating on it never consumes
// the original's piece source.
func (e *Engine) Clone() *Engine {
	kinds := make([]Kind, len(e.queue))
	for i, p := range e.queue {
		kinds[i] = p.Kind
	}
	c := *e
	c.source = NewSequenceSource(kinds...)
	c.board = e.board.Clone()
	c.queue = e.Queue()
	if e.held != nil {
		held := *e.held
		c.held = &held
	}
	return &c
}
