package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/benvon/appointment-scheduler/internal/models"
)

// DefaultRatelimitConfigKey is the row holding the API-wide request rate
const DefaultRatelimitConfigKey = "default"

// RatelimitConfigRepository stores the request rate applied by the API limiter
type RatelimitConfigRepository struct {
	db *DB
}

// NewRatelimitConfigRepository creates a new ratelimit config repository.
func NewRatelimitConfigRepository(db *DB) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{db: db}
}

// Get returns the default rate, or nil when none has been stored yet.
func (r *RatelimitConfigRepository) Get(ctx context.Context) (*models.RatelimitConfig, error) {
	query, args, err := psql.Select("config_key", "rate", "created_at", "updated_at").
		From("ratelimit_config").
		Where(squirrel.Eq{"config_key": DefaultRatelimitConfigKey}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ratelimit config query: %w", err)
	}

	c := &models.RatelimitConfig{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&c.ConfigKey, &c.Rate, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ratelimit config: %w", err)
	}
	return c, nil
}

// Set upserts the default rate. Format follows ulule/limiter, e.g. "5-S", "100-M".
func (r *RatelimitConfigRepository) Set(ctx context.Context, rate string) error {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return fmt.Errorf("rate cannot be empty")
	}
	now := time.Now()
	query, args, err := psql.Insert("ratelimit_config").
		Columns("config_key", "rate", "created_at", "updated_at").
		Values(DefaultRatelimitConfigKey, rate, now, now).
		Suffix("ON CONFLICT (config_key) DO UPDATE SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ratelimit config upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set ratelimit config: %w", err)
	}
	return nil
}
