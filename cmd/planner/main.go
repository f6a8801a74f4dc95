// Package main is the trip-planning chat client CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/planner-client/internal/config"
	"github.com/wayfarer-ai/planner-client/internal/transport"
	"github.com/wayfarer-ai/planner-client/pkg/logger"
)

var (
	flagBaseURL  string
	flagUserID   string
	flagToken    string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "planner",
	Short:         "Chat with the AI trip-planning agent",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "planning service base URL (defaults to PLANNER_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagUserID, "user", "", "user id (defaults to PLANNER_USER_ID)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "bearer token (defaults to PLANNER_AUTH_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")
}

// setup resolves configuration and builds the shared client dependencies.
func setup() (*config.Config, *logger.Logger, *transport.Client, error) {
	cfg := config.Load()
	if flagBaseURL != "" {
		cfg.PlannerBaseURL = flagBaseURL
	}
	if flagUserID != "" {
		cfg.UserID = flagUserID
	}
	if flagToken != "" {
		cfg.AuthToken = flagToken
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}

	client := transport.New(cfg.PlannerBaseURL, cfg.RequestTimeout, log,
		transport.WithToken(cfg.AuthToken))
	return cfg, log, client, nil
}

func requireUserID(cfg *config.Config) (string, error) {
	if cfg.UserID == "" {
		return "", fmt.Errorf("user id required: set --user or PLANNER_USER_ID")
	}
	return cfg.UserID, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
