// Command pledge runs the commitment tracking service and its operational
// commands.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the base TOML configuration file
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pledge",
	Short: "Track and enforce commitments made on sales calls",
	Long: `pledge extracts the commitments agents make to clients during calls,
resolves their deadlines, and reminds agents and escalates to managers when
deadlines approach or pass.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "base configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(resolveCmd)
}
