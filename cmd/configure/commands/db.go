package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/benvon/appointment-scheduler/internal/config"
	"github.com/benvon/appointment-scheduler/internal/database"
)

// withDB loads configuration, connects, runs fn and closes the connection
func withDB(fn func(cfg *config.Config, db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()
	return fn(cfg, db)
}

// parseUserID parses a positive user id argument
func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}
