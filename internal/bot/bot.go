// Package bot implements scripted participants. A bot drives its own engine
// through a Driver, relays snapshots to its opponents and reports its score,
// talking to any multiplayer.Orchestrator.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tetris-battle/internal/core"
	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/registry"
	"github.com/vovakirdan/tetris-battle/internal/tetris"
)

// Options configures one bot.
type Options struct {
	Participant multiplayer.ParticipantID

	// RoomID joins an existing room. If empty, a room is created.
	RoomID     multiplayer.RoomID
	RoomName   string
	MaxPlayers int

	// Strategy plans piece placements. Defaults to the greedy strategy.
	Strategy registry.Strategy

	Engine  core.RuntimeConfig
	Gravity tetris.GravityFunc

	// ActionDelay spaces out the actions of a plan.
	ActionDelay time.Duration

	// RelayInterval is the minimum time between relayed snapshots.
	RelayInterval time.Duration

	// TimeLimit overrides the room's time limit when positive.
	TimeLimit time.Duration

	Logger *log.Logger
}

// Result summarizes a finished match from the bot's side.
type Result struct {
	RoomID   multiplayer.RoomID
	MatchID  multiplayer.MatchID
	State    core.GameState
	WinnerID multiplayer.ParticipantID
	Players  []multiplayer.Player
	TimedOut bool // The time limit ended the game before the bot topped out
}

// Won reports whether the bot won the match.
func (r Result) Won(pid multiplayer.ParticipantID) bool {
	return r.WinnerID != "" && r.WinnerID == pid
}

// Play takes part in one match: it creates or joins the room, readies up
// once an opponent is present, plays until topping out or the time limit,
// reports its score and waits for the match to resolve. events must carry
// the server pushes for opts.Participant.
func Play(ctx context.Context, orch multiplayer.Orchestrator, events <-chan multiplayer.SessionEvent, opts Options) (Result, error) {
	if opts.Participant == "" {
		return Result{}, errors.New("bot: participant is required")
	}
	p := newPlayer(orch, events, opts)

	room, err := p.enter(ctx)
	if err != nil {
		return Result{}, err
	}
	p.logger = p.logger.With("room", room.ID)

	start, err := p.readyUp(ctx, room)
	if err != nil {
		return Result{}, err
	}
	p.logger.Info("match started", "match", start.MatchID)

	limit := p.opts.TimeLimit
	if limit <= 0 && start.TimeLimit > 0 {
		limit = time.Duration(start.TimeLimit) * time.Second
	}
	state, timedOut := p.play(ctx, room.ID, limit)
	p.logger.Info("game finished", "score", state.Score, "lines", state.Lines, "timed_out", timedOut)

	if err := orch.ReportGameOver(ctx, room.ID, p.opts.Participant, state.Score); err != nil {
		return Result{}, fmt.Errorf("bot: cannot report game over: %w", err)
	}

	ended, err := p.awaitEnd(ctx, room.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{
		RoomID:   room.ID,
		MatchID:  ended.MatchID,
		State:    state,
		WinnerID: ended.WinnerID,
		Players:  ended.Players,
		TimedOut: timedOut,
	}, nil
}

type player struct {
	orch   multiplayer.Orchestrator
	events <-chan multiplayer.SessionEvent
	opts   Options
	logger *log.Logger
}

func newPlayer(orch multiplayer.Orchestrator, events <-chan multiplayer.SessionEvent, opts Options) *player {
	if opts.Strategy == nil {
		opts.Strategy = greedyStrategy{}
	}
	if opts.Engine.BoardW == 0 || opts.Engine.BoardH == 0 {
		seed := opts.Engine.Seed
		opts.Engine = core.DefaultConfig()
		opts.Engine.Seed = seed
	}
	if opts.Engine.Seed == 0 {
		opts.Engine.Seed = time.Now().UnixNano()
	}
	if opts.RelayInterval <= 0 {
		opts.RelayInterval = 100 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &player{
		orch:   orch,
		events: events,
		opts:   opts,
		logger: logger.With("participant", opts.Participant, "strategy", opts.Strategy.ID()),
	}
}

func (p *player) enter(ctx context.Context) (multiplayer.Room, error) {
	if p.opts.RoomID != "" {
		room, err := p.orch.JoinRoom(ctx, p.opts.RoomID, p.opts.Participant)
		if err != nil {
			return multiplayer.Room{}, fmt.Errorf("bot: cannot join room %s: %w", p.opts.RoomID, err)
		}
		return room, nil
	}
	room, err := p.orch.CreateRoom(ctx, multiplayer.CreateRoomRequest{
		Name:       p.opts.RoomName,
		HostID:     p.opts.Participant,
		MaxPlayers: p.opts.MaxPlayers,
	})
	if err != nil {
		return multiplayer.Room{}, fmt.Errorf("bot: cannot create room: %w", err)
	}
	p.logger.Info("room created", "room", room.ID)
	return room, nil
}

// readyUp waits for an opponent, readies and waits for the match to start.
// A room update showing the room playing counts as the start when the
// game:start event itself was dropped.
func (p *player) readyUp(ctx context.Context, room multiplayer.Room) (multiplayer.GameStartEvent, error) {
	ready := false
	for {
		if !ready && len(room.Players) >= 2 && room.Status == multiplayer.RoomWaiting {
			_, err := p.orch.SetReady(ctx, room.ID, p.opts.Participant, true)
			switch {
			case err == nil:
				ready = true
			case errors.Is(err, multiplayer.ErrState):
				// Opponent left in between; keep waiting.
			default:
				return multiplayer.GameStartEvent{}, fmt.Errorf("bot: cannot ready up: %w", err)
			}
		}

		evt, err := p.next(ctx)
		if err != nil {
			return multiplayer.GameStartEvent{}, err
		}
		switch e := evt.(type) {
		case multiplayer.GameStartEvent:
			if e.RoomID == room.ID {
				return e, nil
			}
		case multiplayer.RoomUpdateEvent:
			if e.ID != room.ID {
				continue
			}
			room = multiplayer.Room(e)
			if room.Status == multiplayer.RoomPlaying {
				return multiplayer.GameStartEvent{RoomID: room.ID, TimeLimit: room.TimeLimit, Players: room.Players}, nil
			}
			if self := room.PlayerIndex(p.opts.Participant); self >= 0 && !room.Players[self].Ready {
				ready = false
			}
		}
	}
}

// play runs a local engine until it tops out or the limit passes.
func (p *player) play(ctx context.Context, roomID multiplayer.RoomID, limit time.Duration) (core.GameState, bool) {
	var (
		playCtx context.Context
		cancel  context.CancelFunc
	)
	if limit > 0 {
		playCtx, cancel = context.WithTimeout(ctx, limit)
	} else {
		playCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	relay := newSnapshotRelay()
	engine := tetris.New(p.opts.Engine)
	driver := tetris.NewDriver(engine, p.opts.Gravity, relay.offer)

	var final core.GameState
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		final = driver.Run(playCtx)
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.relayLoop(ctx, roomID, relay, runDone)
	}()

	p.control(playCtx, driver)
	<-runDone
	wg.Wait()

	timedOut := !final.GameOver && errors.Is(playCtx.Err(), context.DeadlineExceeded)
	return final, timedOut
}

// control feeds strategy plans to the driver, one plan per spawned piece.
func (p *player) control(ctx context.Context, driver *tetris.Driver) {
	lastPlanned := -1
	for {
		var plan []core.Action
		spawned := lastPlanned
		err := driver.Do(ctx, func(e *tetris.Engine) {
			if e.IsGameOver() || e.Spawned() == lastPlanned {
				return
			}
			spawned = e.Spawned()
			plan = p.opts.Strategy.Plan(e)
		})
		if err != nil {
			return
		}
		if spawned == lastPlanned {
			if !sleep(ctx, max(p.opts.ActionDelay, time.Millisecond)) {
				return
			}
			continue
		}
		lastPlanned = spawned

		for _, a := range plan {
			if !driver.Send(a) {
				break
			}
			if p.opts.ActionDelay > 0 && !sleep(ctx, p.opts.ActionDelay) {
				return
			}
		}
	}
}

// relayLoop forwards the latest snapshot at most once per interval and a
// final one when the game ends.
func (p *player) relayLoop(ctx context.Context, roomID multiplayer.RoomID, relay *snapshotRelay, done <-chan struct{}) {
	ticker := time.NewTicker(p.opts.RelayInterval)
	defer ticker.Stop()

	send := func() {
		snap, ok := relay.take()
		if !ok {
			return
		}
		if err := p.orch.RelayGameState(ctx, roomID, p.opts.Participant, snap); err != nil {
			p.logger.Debug("relay failed", "error", err)
		}
	}

	for {
		select {
		case <-ticker.C:
			send()
		case <-done:
			send()
			return
		case <-ctx.Done():
			return
		}
	}
}

// awaitEnd waits for the match resolution. A room update back in Waiting
// after the bot reported also resolves it.
func (p *player) awaitEnd(ctx context.Context, roomID multiplayer.RoomID) (multiplayer.GameEndedEvent, error) {
	for {
		evt, err := p.next(ctx)
		if err != nil {
			return multiplayer.GameEndedEvent{}, err
		}
		switch e := evt.(type) {
		case multiplayer.GameEndedEvent:
			if e.RoomID == roomID {
				return e, nil
			}
		case multiplayer.RoomUpdateEvent:
			if e.ID == roomID && e.Status == multiplayer.RoomWaiting {
				return multiplayer.GameEndedEvent{RoomID: roomID, WinnerID: e.WinnerID, Players: e.Players}, nil
			}
		case multiplayer.RoomLeftEvent:
			if e.RoomID == roomID {
				return multiplayer.GameEndedEvent{}, fmt.Errorf("bot: removed from room %s", roomID)
			}
		}
	}
}

func (p *player) next(ctx context.Context) (multiplayer.SessionEvent, error) {
	select {
	case evt, ok := <-p.events:
		if !ok {
			return nil, errors.New("bot: event stream closed")
		}
		return evt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// snapshotRelay keeps only the newest encoded snapshot.
type snapshotRelay struct {
	mu     sync.Mutex
	latest multiplayer.Snapshot
	fresh  bool
}

func newSnapshotRelay() *snapshotRelay {
	return &snapshotRelay{}
}

func (r *snapshotRelay) offer(s tetris.Snapshot) {
	data, err := s.Encode()
	if err != nil {
		return
	}
	r.mu.Lock()
	r.latest = data
	r.fresh = true
	r.mu.Unlock()
}

func (r *snapshotRelay) take() (multiplayer.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.fresh {
		return nil, false
	}
	r.fresh = false
	return r.latest, true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
