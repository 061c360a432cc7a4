package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (injected at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "virtuallab",
	Short: "Virtual Lab real-time session broker",
	Long: `virtuallab - real-time pairing broker for mentor and student lab sessions

Serves the lab lifecycle HTTP API and the WebSocket protocol that mirrors
code between the two participants of a session.`,
	Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), configPath)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(configPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (yaml, json or toml)")
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
