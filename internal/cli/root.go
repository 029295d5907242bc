// Package cli provides the command-line interface for aisha.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/aisha-chat/aisha-go/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string

	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aisha",
	Short: "Chat with Aisha from the terminal",
	Long: `Aisha is a persona-driven AI chat companion. This CLI talks to a
running aisha-server instance.

Pick a persona, send messages, share images, and inspect or edit what
each persona remembers about you.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default AISHA_SERVER_URL or http://localhost:8087)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(statsCmd)
}
