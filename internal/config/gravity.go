package config

import (
	"time"

	"github.com/vovakirdan/tetris-battle/internal/tetris"
)

// Interval returns the automatic drop interval for a level, starting at
// Base on level 1 and shrinking by Step per level down to Minimum.
func (g GravityConfig) Interval(level int) time.Duration {
	return g.schedule()(level)
}

func (g GravityConfig) schedule() tetris.GravityFunc {
	return tetris.LinearGravity(g.Base, g.Step, g.Minimum)
}
