package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-battle/internal/bot"
	"github.com/vovakirdan/tetris-battle/internal/client"
	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/registry"
)

var (
	flagURL         string
	flagCodec       string
	flagBotID       string
	flagBotName     string
	flagStrategy    string
	flagSeed        int64
	flagRoom        string
	flagRoomName    string
	flagMaxPlayers  int
	flagRounds      int
	flagActionDelay time.Duration
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Connect a scripted player to a server",
	Long: `Connect a scripted player to a running server. The bot creates a room, or
joins the one given with --room, readies up once an opponent is present and
plays until it tops out or the room's time limit passes.

Examples:
  tetris bot                                   # Greedy bot in a new room
  tetris bot --strategy random --seed 42       # Reproducible random bot
  tetris bot --room room_1234 --codec msgpack  # Join an existing room
  tetris bot --rounds 5                        # Play five matches in a row`,
	RunE: runBot,
}

func init() {
	fs := botCmd.Flags()
	fs.StringVar(&flagURL, "url", "ws://localhost:8080/ws", "Server websocket URL (env: TETRIS_URL)")
	fs.StringVar(&flagCodec, "codec", "json", "Wire codec: json or msgpack")
	fs.StringVar(&flagBotID, "id", "", "Participant id (default: random)")
	fs.StringVar(&flagBotName, "name", "", "Display name (default: strategy title)")
	fs.StringVar(&flagStrategy, "strategy", "greedy", "Strategy id, see 'tetris list'")
	fs.Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	fs.StringVar(&flagRoom, "room", "", "Room id to join instead of creating one")
	fs.StringVar(&flagRoomName, "room-name", "", "Name of the created room")
	fs.IntVar(&flagMaxPlayers, "max-players", 0, "Capacity of the created room (0 = server default)")
	fs.IntVar(&flagRounds, "rounds", 1, "Number of matches to play")
	fs.DurationVar(&flagActionDelay, "action-delay", 50*time.Millisecond, "Pause between inputs")
}

func runBot(cmd *cobra.Command, _ []string) error {
	if !registry.Exists(flagStrategy) {
		return fmt.Errorf("unknown strategy %q, run 'tetris list' to see available strategies", flagStrategy)
	}
	if flagRounds < 1 {
		return fmt.Errorf("--rounds must be at least 1")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger("tetris-bot")
	if err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	strategy, err := registry.Create(flagStrategy, seed)
	if err != nil {
		return err
	}

	id := multiplayer.ParticipantID(flagBotID)
	if id == "" {
		id = multiplayer.ParticipantID("bot-" + uuid.NewString()[:8])
	}
	name := flagBotName
	if name == "" {
		name = strategy.Title() + " bot"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	remote, err := client.Dial(dialCtx, client.Options{
		URL:           flagURL,
		Codec:         flagCodec,
		ParticipantID: id,
		Username:      name,
		EventBuffer:   cfg.Sessions.EventBuffer,
		Logger:        logger.With("component", "client"),
	})
	cancel()
	if err != nil {
		return err
	}
	defer remote.Close()

	roomID := multiplayer.RoomID(flagRoom)
	for round := 1; round <= flagRounds; round++ {
		res, err := bot.Play(ctx, remote, remote.Events(), bot.Options{
			Participant: id,
			RoomID:      roomID,
			RoomName:    flagRoomName,
			MaxPlayers:  flagMaxPlayers,
			Strategy:    strategy,
			Engine:      cfg.Runtime(seed + int64(round)),
			Gravity:     cfg.GravityFunc(),
			ActionDelay: flagActionDelay,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		roomID = res.RoomID
		printResult(round, id, res)
	}
	return nil
}

func printResult(round int, id multiplayer.ParticipantID, res bot.Result) {
	outcome := "lost"
	switch {
	case res.Won(id):
		outcome = "won"
	case res.WinnerID == "":
		outcome = "no winner"
	}
	fmt.Printf("Round %d (%s): %s with %d points, %d lines, level %d\n",
		round, res.RoomID, outcome, res.State.Score, res.State.Lines, res.State.Level)
	if res.TimedOut {
		fmt.Println("  time limit reached")
	}
	for _, p := range res.Players {
		marker := " "
		if p.ID == res.WinnerID {
			marker = "*"
		}
		fmt.Printf("  %s %-20s %8d\n", marker, p.Username, p.Score)
	}
}
