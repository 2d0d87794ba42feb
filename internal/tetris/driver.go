package tetris

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vovakirdan/tetris-battle/internal/core"
)

// ErrDriverStopped is returned by Driver.Do once Run has returned.
var ErrDriverStopped = errors.New("tetris: driver stopped")

// GravityFunc returns the automatic drop interval for a level.
type GravityFunc func(level int) time.Duration

// LinearGravity starts at base on level 1 and shrinks by step per level,
// never below minimum. Levels below 1 count as level 1.
func LinearGravity(base, step, minimum time.Duration) GravityFunc {
	return func(level int) time.Duration {
		if level < 1 {
			level = 1
		}
		return max(base-time.Duration(level-1)*step, minimum)
	}
}

// DefaultGravity drops once per second at level 1, 100ms faster per level,
// never faster than 100ms.
var DefaultGravity = LinearGravity(time.Second, 100*time.Millisecond, 100*time.Millisecond)

// Driver owns an Engine and is its only caller: gravity ticks, input
// commands and inspection requests are all applied on the Run goroutine.
type Driver struct {
	engine   *Engine
	gravity  GravityFunc
	onChange func(Snapshot)

	inputs chan core.Action
	calls  chan driverCall

	done     chan struct{}
	doneOnce sync.Once
}

type driverCall struct {
	fn    func(*Engine)
	reply chan struct{}
}

// NewDriver wraps an engine. onChange, if non-nil, receives a snapshot after
// every tick or command that changed the engine.
func NewDriver(e *Engine, gravity GravityFunc, onChange func(Snapshot)) *Driver {
	if gravity == nil {
		gravity = DefaultGravity
	}
	return &Driver{
		engine:   e,
		gravity:  gravity,
		onChange: onChange,
		inputs:   make(chan core.Action, 64),
		calls:    make(chan driverCall),
		done:     make(chan struct{}),
	}
}

// Send queues an input command. Non-blocking; returns false if the command
// was dropped because the queue is full or the driver stopped.
func (d *Driver) Send(a core.Action) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.inputs <- a:
		return true
	default:
		return false
	}
}

// Do runs fn on the driver goroutine and waits for it to finish.
// fn must not retain the engine.
func (d *Driver) Do(ctx context.Context, fn func(*Engine)) error {
	call := driverCall{fn: fn, reply: make(chan struct{})}
	select {
	case d.calls <- call:
	case <-d.done:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-call.reply:
		return nil
	case <-d.done:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel that closes when Run returns.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Run drives the engine until it tops out or ctx is cancelled, and returns
// the final state.
func (d *Driver) Run(ctx context.Context) core.GameState {
	defer d.doneOnce.Do(func() { close(d.done) })

	level := d.engine.State().Level
	timer := time.NewTimer(d.gravity(level))
	defer timer.Stop()

	d.emit()
	for !d.engine.IsGameOver() {
		select {
		case <-ctx.Done():
			return d.engine.State()

		case a := <-d.inputs:
			if d.engine.Apply(a) {
				d.emit()
			}

		case call := <-d.calls:
			call.fn(d.engine)
			close(call.reply)

		case <-timer.C:
			if !d.engine.IsPaused() {
				d.engine.Tick()
				d.emit()
			}
			timer.Reset(d.gravity(d.engine.State().Level))
			continue
		}

		if next := d.engine.State().Level; next != level {
			level = next
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d.gravity(level))
		}
	}
	return d.engine.State()
}

func (d *Driver) emit() {
	if d.onChange != nil {
		d.onChange(d.engine.Snapshot())
	}
}
