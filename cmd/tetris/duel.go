package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-battle/internal/bot"
	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/registry"
	"github.com/vovakirdan/tetris-battle/internal/storage"
)

var (
	flagLeft      string
	flagRight     string
	flagDuelSeed  int64
	flagTimeLimit time.Duration
	flagRecord    bool
)

var duelCmd = &cobra.Command{
	Use:   "duel",
	Short: "Run a local match between two bots",
	Long: `Run a complete match between two scripted players inside one process,
through the same coordinator the server uses. Both players get the same
seed, so they see the same piece sequence.

Examples:
  tetris duel
  tetris duel --left greedy --right random --seed 7
  tetris duel --time-limit 30s --record`,
	RunE: runDuel,
}

func init() {
	fs := duelCmd.Flags()
	fs.StringVar(&flagLeft, "left", "greedy", "Strategy of the first player")
	fs.StringVar(&flagRight, "right", "random", "Strategy of the second player")
	fs.Int64Var(&flagDuelSeed, "seed", 0, "Piece seed shared by both players (0 = random)")
	fs.DurationVar(&flagTimeLimit, "time-limit", 0, "Match time limit (default: rooms.time_limit)")
	fs.BoolVar(&flagRecord, "record", false, "Save the result to the match history database")
}

func runDuel(cmd *cobra.Command, _ []string) error {
	for _, id := range []string{flagLeft, flagRight} {
		if !registry.Exists(id) {
			return fmt.Errorf("unknown strategy %q, run 'tetris list' to see available strategies", id)
		}
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if flagTimeLimit > 0 {
		cfg.Rooms.TimeLimit = flagTimeLimit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger("tetris-duel")
	if err != nil {
		return err
	}

	seed := flagDuelSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	coord := multiplayer.NewCoordinator(cfg.Coordinator(), multiplayer.NewSessionRegistry())
	coord.SetLogger(logger.With("component", "coordinator"))
	defer coord.Stop()

	saved := make(chan error, 1)
	if flagRecord {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		coord.SetResultSaver(saverFunc(func(res multiplayer.MatchResultData) error {
			err := store.SaveMatchResult(res)
			select {
			case saved <- err:
			default:
			}
			return err
		}))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	type side struct {
		id       multiplayer.ParticipantID
		strategy string
		events   <-chan multiplayer.SessionEvent
	}
	sides := []*side{
		{id: "left", strategy: flagLeft},
		{id: "right", strategy: flagRight},
	}
	for _, s := range sides {
		session := multiplayer.NewChannelSession(multiplayer.SessionID("duel-"+string(s.id)), cfg.Sessions.EventBuffer)
		defer session.Close()
		if _, err := coord.Login(ctx, s.id, fmt.Sprintf("%s (%s)", s.strategy, s.id), session); err != nil {
			return err
		}
		s.events = session.Events()
	}

	room, err := coord.CreateRoom(ctx, multiplayer.CreateRoomRequest{
		Name:      fmt.Sprintf("%s vs %s", flagLeft, flagRight),
		HostID:    sides[0].id,
		TimeLimit: int(cfg.Rooms.TimeLimit / time.Second),
	})
	if err != nil {
		return err
	}

	type outcome struct {
		res bot.Result
		err error
	}
	results := make([]chan outcome, len(sides))
	for i, s := range sides {
		strategy, err := registry.Create(s.strategy, seed+int64(i))
		if err != nil {
			return err
		}
		results[i] = make(chan outcome, 1)
		go func(s *side, out chan<- outcome) {
			res, err := bot.Play(ctx, coord, s.events, bot.Options{
				Participant: s.id,
				RoomID:      room.ID,
				Strategy:    strategy,
				Engine:      cfg.Runtime(seed),
				Gravity:     cfg.GravityFunc(),
				ActionDelay: 10 * time.Millisecond,
				TimeLimit:   cfg.Rooms.TimeLimit,
				Logger:      logger,
			})
			out <- outcome{res, err}
		}(s, results[i])
	}

	var final bot.Result
	for i, ch := range results {
		o := <-ch
		if o.err != nil {
			return fmt.Errorf("%s: %w", sides[i].id, o.err)
		}
		final = o.res
	}
	printResult(1, sides[0].id, final)

	if flagRecord {
		select {
		case err := <-saved:
			if err != nil {
				return fmt.Errorf("cannot record match: %w", err)
			}
			fmt.Printf("Recorded match %s\n", final.MatchID)
		case <-time.After(5 * time.Second):
			logger.Warn("match result not saved in time", "match", final.MatchID)
		}
	}
	return nil
}

// saverFunc adapts a function to multiplayer.MatchResultSaver.
type saverFunc func(multiplayer.MatchResultData) error

func (f saverFunc) SaveMatchResult(res multiplayer.MatchResultData) error { return f(res) }
