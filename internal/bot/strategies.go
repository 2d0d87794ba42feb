package bot

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/tetris-battle/internal/core"
	"github.com/vovakirdan/tetris-battle/internal/registry"
	"github.com/vovakirdan/tetris-battle/internal/tetris"
)

func init() {
	registry.Register("drop", func(int64) registry.Strategy { return dropStrategy{} })
	registry.Register("random", func(seed int64) registry.Strategy {
		return &randomStrategy{rng: newRand(seed)}
	})
	registry.Register("greedy", func(int64) registry.Strategy { return greedyStrategy{} })
}

// dropStrategy hard-drops every piece where it spawns.
type dropStrategy struct{}

func (dropStrategy) ID() string    { return "drop" }
func (dropStrategy) Title() string { return "Drop" }

func (dropStrategy) Plan(*tetris.Engine) []core.Action {
	return []core.Action{core.ActionHardDrop}
}

// randomStrategy picks a random rotation and column.
type randomStrategy struct {
	rng *rand.Rand
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func (*randomStrategy) ID() string    { return "random" }
func (*randomStrategy) Title() string { return "Random" }

func (s *randomStrategy) Plan(e *tetris.Engine) []core.Action {
	w := e.Config().BoardW
	var plan []core.Action
	for i := s.rng.Intn(4); i > 0; i-- {
		plan = append(plan, core.ActionRotateCW)
	}
	plan = append(plan, shifts(s.rng.Intn(w)-w/2)...)
	return append(plan, core.ActionHardDrop)
}

// greedyStrategy tries every rotation and column on a clone and keeps the
// placement with the best board afterwards.
type greedyStrategy struct{}

func (greedyStrategy) ID() string    { return "greedy" }
func (greedyStrategy) Title() string { return "Greedy" }

func (greedyStrategy) Plan(e *tetris.Engine) []core.Action {
	best := []core.Action{core.ActionHardDrop}
	bestScore := math.Inf(-1)
	w := e.Config().BoardW

	for rot := 0; rot < 4; rot++ {
		for dx := -w; dx <= w; dx++ {
			sim := e.Clone()
			plan, ok := simulate(sim, rot, dx)
			if !ok {
				continue
			}
			if score := evaluate(sim); score > bestScore {
				bestScore = score
				best = plan
			}
		}
	}
	return best
}

// simulate applies rot clockwise turns and dx shifts, then hard-drops.
func simulate(sim *tetris.Engine, rot, dx int) ([]core.Action, bool) {
	plan := make([]core.Action, 0, rot+abs(dx)+1)
	for i := 0; i < rot; i++ {
		if !sim.Rotate(true) {
			return nil, false
		}
		plan = append(plan, core.ActionRotateCW)
	}
	for _, a := range shifts(dx) {
		if !sim.Apply(a) {
			return nil, false
		}
		plan = append(plan, a)
	}
	if sim.HardDrop() < 0 {
		return nil, false
	}
	return append(plan, core.ActionHardDrop), true
}

// Weights of the placement heuristic.
const (
	weightLines     = 0.76
	weightHeight    = -0.51
	weightHoles     = -0.36
	weightBumpiness = -0.18
)

func evaluate(sim *tetris.Engine) float64 {
	if sim.IsGameOver() {
		return math.Inf(-1)
	}
	b := sim.Board()
	heights := make([]int, b.Width())
	holes := 0
	for x := 0; x < b.Width(); x++ {
		seen := false
		for y := 0; y < b.Height(); y++ {
			filled := !b.At(x, y).IsEmpty()
			if filled && !seen {
				seen = true
				heights[x] = b.Height() - y
			} else if !filled && seen {
				holes++
			}
		}
	}

	aggregate, bumpiness := 0, 0
	for x, h := range heights {
		aggregate += h
		if x > 0 {
			bumpiness += abs(h - heights[x-1])
		}
	}

	return weightLines*float64(sim.LastCleared()) +
		weightHeight*float64(aggregate) +
		weightHoles*float64(holes) +
		weightBumpiness*float64(bumpiness)
}

func shifts(dx int) []core.Action {
	a := core.ActionMoveRight
	if dx < 0 {
		a = core.ActionMoveLeft
	}
	out := make([]core.Action, abs(dx))
	for i := range out {
		out[i] = a
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
