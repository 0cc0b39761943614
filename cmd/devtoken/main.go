// Command devtoken signs bearer tokens for local development, standing in for
// the external identity service.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"agentlyou/internal/auth"
	"agentlyou/shared/go/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:           "devtoken <user-id>",
		Short:         "Sign a bearer token for a seeded user",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("user id: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to sign tokens in production")
			}

			token, err := auth.NewVerifier(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, nil).Sign(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
