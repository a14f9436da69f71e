package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mudlink",
	Short: "Terminal client for persistent multiplayer text games",
	Long:  "mudlink connects to a text game server, runs the event-intake pipeline, and renders the game in your terminal.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
