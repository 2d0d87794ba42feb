// Package registry provides a global registry for bot strategy factories.
// Strategies register themselves in init() functions, allowing the CLI
// to discover and instantiate them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tetris-battle/internal/core"
	"github.com/vovakirdan/tetris-battle/internal/tetris"
)

// Strategy decides how a scripted participant places its pieces.
type Strategy interface {
	// ID returns a unique identifier for this strategy (e.g., "greedy").
	// Used for CLI flags.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Plan returns the actions that place the engine's current piece.
	// The engine must not be mutated; simulate on a Clone.
	Plan(e *tetris.Engine) []core.Action
}

// StrategyInfo contains metadata about a registered strategy.
type StrategyInfo struct {
	ID    string
	Title string
}

// Factory creates a strategy. seed drives any randomness it uses.
type Factory func(seed int64) Strategy

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a strategy factory to the registry.
// Typically called from an init() function.
// Panics if a strategy with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: strategy %q already registered", id))
	}

	factories[id] = f
	titles[id] = f(0).Title()
}

// List returns information about all registered strategies, sorted by ID.
func List() []StrategyInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]StrategyInfo, 0, len(factories))
	for id := range factories {
		result = append(result, StrategyInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a strategy by its ID.
// Returns an error if the ID is not registered.
func Create(id string, seed int64) (Strategy, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown strategy %q", id)
	}

	return f(seed), nil
}

// Exists checks if a strategy with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
