package commands

import (
	"fmt"

	"github.com/benvon/appointment-scheduler/internal/config"
	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command with up, down and version subcommands.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(_ *config.Config, db *database.DB) error {
				if err := database.Migrate(db); err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				return printVersion(cmd, db)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return withDB(func(_ *config.Config, db *database.DB) error {
				if err := database.MigrateDown(db, steps); err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				return printVersion(cmd, db)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(_ *config.Config, db *database.DB) error {
				return printVersion(cmd, db)
			})
		},
	})
	return cmd
}

func printVersion(cmd *cobra.Command, db *database.DB) error {
	version, dirty, err := database.MigrationVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version == 0 {
		cmd.Println("Schema version: none")
		return nil
	}
	if dirty {
		cmd.Printf("Schema version: %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("Schema version: %d\n", version)
	return nil
}
