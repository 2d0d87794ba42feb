package tetris

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/tetris-battle/internal/core"
)

func TestDefaultGravity(t *testing.T) {
	tests := []struct {
		level int
		want  time.Duration
	}{
		{1, time.Second},
		{2, 900 * time.Millisecond},
		{9, 200 * time.Millisecond},
		{10, 100 * time.Millisecond},
		{15, 100 * time.Millisecond},
		{0, time.Second},
	}

	for _, tc := range tests {
		if got := DefaultGravity(tc.level); got != tc.want {
			t.Errorf("DefaultGravity(%d) = %v, expected %v", tc.level, got, tc.want)
		}
	}
}

func TestLinearGravity(t *testing.T) {
	g := LinearGravity(500*time.Millisecond, 50*time.Millisecond, 200*time.Millisecond)
	tests := []struct {
		level int
		want  time.Duration
	}{
		{-3, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{4, 350 * time.Millisecond},
		{7, 200 * time.Millisecond},
		{30, 200 * time.Millisecond},
	}

	for _, tc := range tests {
		if got := g(tc.level); got != tc.want {
			t.Errorf("LinearGravity(%d) = %v, expected %v", tc.level, got, tc.want)
		}
	}
}

func TestDriverRunsUntilTopOut(t *testing.T) {
	var changes atomic.Int32
	e := newTestEngine(KindO)
	d := NewDriver(e, func(int) time.Duration { return time.Millisecond }, func(Snapshot) {
		changes.Add(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	final := d.Run(ctx)
	if !final.GameOver {
		t.Fatal("Run() returned before the stack topped out")
	}
	if changes.Load() == 0 {
		t.Error("onChange was never called")
	}

	select {
	case <-d.Done():
	default:
		t.Error("Done() not closed after Run returned")
	}
	if err := d.Do(ctx, func(*Engine) {}); !errors.Is(err, ErrDriverStopped) {
		t.Errorf("Do() after stop = %v, expected ErrDriverStopped", err)
	}
	if d.Send(core.ActionHardDrop) {
		t.Error("Send() after stop should report a drop")
	}
}

func TestDriverAppliesInputsAndCalls(t *testing.T) {
	e := newTestEngine(KindO)
	d := NewDriver(e, func(int) time.Duration { return time.Hour }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	if !d.Send(core.ActionHardDrop) {
		t.Fatal("Send() dropped the command")
	}

	deadline := time.Now().Add(5 * time.Second)
	var spawned int
	for time.Now().Before(deadline) {
		if err := d.Do(ctx, func(e *Engine) { spawned = e.Spawned() }); err != nil {
			t.Fatalf("Do() failed: %v", err)
		}
		if spawned == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if spawned != 2 {
		t.Fatalf("hard drop was not applied, spawned = %d", spawned)
	}

	cancel()
	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop on cancel")
	}
}
