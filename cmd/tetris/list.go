package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-battle/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all bot strategies",
	Long:  `Shows a list of all strategies registered for scripted players.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	strategies := registry.List()

	if len(strategies) == 0 {
		fmt.Println("No strategies available.")
		return
	}

	fmt.Println("Available strategies:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, s := range strategies {
		if len(s.ID) > maxIDLen {
			maxIDLen = len(s.ID)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")

	for _, s := range strategies {
		fmt.Printf("  %-*s  %s\n", maxIDLen, s.ID, s.Title)
	}

	fmt.Println()
	fmt.Println("Run 'tetris bot --strategy <id>' to play with one.")
}
