package multiplayer

import (
	"sync"
	"time"
)

// scheduledTask calls fn every interval on its own goroutine until fn
// returns false or Cancel is called. The callback must re-check, under the
// owner's lock, that the task is still the owner's current task; Cancel only
// stops future ticks.
type scheduledTask struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func schedule(interval time.Duration, fn func(t *scheduledTask) bool) *scheduledTask {
	t := &scheduledTask{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				if !fn(t) {
					t.Cancel()
					return
				}
			}
		}
	}()
	return t
}

// Cancel stops the task. Safe to call multiple times.
func (t *scheduledTask) Cancel() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Cancelled reports whether Cancel was called.
func (t *scheduledTask) Cancelled() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}
