// Package cli implements the interview terminal client commands.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/talentpulse/interview-engine/internal/config"
	"github.com/talentpulse/interview-engine/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run live AI interview sessions from the terminal",
	Long: `interview drives a live AI-interview session against the interview
backend: it starts a session, receives questions, runs the per-question
countdown, submits answers, and prints the running transcript. Completed
sessions are archived locally.`,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig loads .env (best-effort) and the environment configuration,
// then initializes logging.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}
