package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/appointment-scheduler/internal/config"
	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update the API rate limit (e.g. 5-S, 100-M). Running servers pick changes up within a minute.",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(_ *config.Config, db *database.DB) error {
				c, err := database.NewRatelimitConfigRepository(db).Get(context.Background())
				if err != nil {
					return fmt.Errorf("get ratelimit config: %w", err)
				}
				if c == nil {
					cmd.Println("No rate limit configuration in database. Use 'ratelimit set' to add one.")
					return nil
				}
				cmd.Println("Rate limit configuration:")
				cmd.Printf("  Rate: %s\n", c.Rate)
				cmd.Printf("  Updated: %s\n", c.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
				return nil
			})
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		Long:  "Update rate limit (e.g. 5-S, 100-M, 1000-H). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if err := validateRate(rate); err != nil {
				return err
			}
			return withDB(func(_ *config.Config, db *database.DB) error {
				if err := database.NewRatelimitConfigRepository(db).Set(context.Background(), rate); err != nil {
					return fmt.Errorf("set ratelimit config: %w", err)
				}
				cmd.Println("Rate limit configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	return cmd
}

// validateRate rejects rates the server's limiter could not parse
func validateRate(rate string) error {
	if rate == "" {
		return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return nil
}
