package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/planner-client/internal/middleware"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&flagSecret, "secret", "", "signing secret (defaults to JWT_SECRET)")
}

var flagSecret string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token for the mock agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, _, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		userID, err := requireUserID(cfg)
		if err != nil {
			return err
		}

		secret := cfg.JWTSecret
		if flagSecret != "" {
			secret = flagSecret
		}
		if secret == "" {
			return fmt.Errorf("signing secret required: set --secret or JWT_SECRET")
		}

		token, err := middleware.MintToken(secret, userID, cfg.JWTExpiration)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}
