package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-battle/internal/storage"
)

var (
	flagPlayer string
	flagLimit  int
	flagMatch  string
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Show match history",
	Long: `Display recent matches from the match history database. Scores are the
values reported by the players.

Examples:
  tetris matches
  tetris matches --limit 50
  tetris matches --player alice
  tetris matches --match 0b6f3c1e-...`,
	RunE: runMatches,
}

func init() {
	fs := matchesCmd.Flags()
	fs.StringVar(&flagPlayer, "player", "", "Only matches of this participant id, with totals")
	fs.IntVar(&flagLimit, "limit", 20, "Maximum number of matches")
	fs.StringVar(&flagMatch, "match", "", "Show a single match by id")
}

func runMatches(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("cannot open match database: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if flagMatch != "" {
		m, err := store.MatchByID(ctx, flagMatch)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("match %s not found", flagMatch)
		}
		printMatch(*m)
		return nil
	}

	var matches []storage.MatchRecord
	if flagPlayer != "" {
		matches, err = store.PlayerMatchHistory(ctx, flagPlayer, flagLimit)
	} else {
		matches, err = store.RecentMatches(ctx, flagLimit)
	}
	if err != nil {
		return err
	}

	if flagPlayer != "" {
		stats, err := store.PlayerStats(ctx, flagPlayer)
		if err != nil {
			return err
		}
		fmt.Printf("Player %s\n", flagPlayer)
		fmt.Printf("  Matches: %d  Wins: %d  Best: %d  Average: %.0f\n",
			stats.Matches, stats.Wins, stats.BestScore, stats.AvgScore)
		fmt.Println()
	}

	if len(matches) == 0 {
		fmt.Println("No matches recorded yet.")
		fmt.Println()
		fmt.Println("Run 'tetris duel --record' or 'tetris serve' to record some.")
		return nil
	}

	fmt.Printf("  %-16s  %-9s  %-8s  %-16s  %s\n", "Date", "Result", "Length", "Winner", "Players")
	fmt.Printf("  %-16s  %-9s  %-8s  %-16s  %s\n", "----", "------", "------", "------", "-------")
	for _, m := range matches {
		winner := m.WinnerID
		if winner == "" {
			winner = "-"
		}
		fmt.Printf("  %-16s  %-9s  %-8s  %-16s  %s\n",
			m.CreatedAt.Format("2006-01-02 15:04"), m.EndReason, m.Duration.Round(time.Second), winner, playerLine(m))
	}
	return nil
}

func printMatch(m storage.MatchRecord) {
	fmt.Printf("Match %s\n", m.MatchID)
	fmt.Printf("  Room:     %s (%s)\n", m.RoomName, m.RoomID)
	fmt.Printf("  Result:   %s\n", m.EndReason)
	if !m.StartedAt.IsZero() {
		fmt.Printf("  Started:  %s\n", m.StartedAt.Format(time.RFC3339))
	}
	fmt.Printf("  Duration: %s\n", m.Duration.Round(time.Second))
	fmt.Println()
	for _, p := range m.Players {
		marker := " "
		if p.ParticipantID == m.WinnerID {
			marker = "*"
		}
		fmt.Printf("  %s %-20s %-16s %8d\n", marker, p.Username, p.ParticipantID, p.Score)
	}
}

func playerLine(m storage.MatchRecord) string {
	parts := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		parts = append(parts, fmt.Sprintf("%s %d", p.ParticipantID, p.Score))
	}
	return strings.Join(parts, ", ")
}
