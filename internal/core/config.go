package core

// RuntimeConfig contains configuration passed to an engine at construction.
type RuntimeConfig struct {
	BoardW      int   // Board width in cells
	BoardH      int   // Board height in cells
	QueueLength int   // Number of upcoming pieces kept in the lookahead queue
	Seed        int64 // RNG seed for deterministic piece order
}

// DefaultConfig returns a RuntimeConfig with the standard 10x20 board.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		BoardW:      10,
		BoardH:      20,
		QueueLength: 3,
		Seed:        0, // 0 means use current time in the caller
	}
}

// GameState represents the summary state of an engine.
type GameState struct {
	Score    int  // Current score
	Level    int  // Current level, starting at 1
	Lines    int  // Total lines cleared
	GameOver bool // Whether the game has ended
	Paused   bool // Whether the game is paused
}

// StepResult is returned by Engine.Step after an input frame was applied.
type StepResult struct {
	State   GameState
	Applied int // Number of actions that changed the engine
	Cleared int // Lines cleared during this step
}
