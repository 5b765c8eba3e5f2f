package commands

import (
	"fmt"
	"time"

	"github.com/benvon/appointment-scheduler/internal/config"
	"github.com/benvon/appointment-scheduler/internal/services/auth"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the token command, which signs bearer tokens for local testing
func NewTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a user",
		Long:  "Sign an HS256 token with JWT_SECRET whose subject is the given user id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.RequireJWTSecret(); err != nil {
				return err
			}
			token, err := auth.NewIssuer([]byte(cfg.JWTSecret)).Issue(id, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			cmd.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
