package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/benvon/appointment-scheduler/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// DefaultRatelimitRate applies when nothing is stored in ratelimit_config
const DefaultRatelimitRate = "10-S"

const redisKeyPrefix = "scheduler:ratelimit"

// RateLimitReloader wraps ulule/limiter and periodically reloads the rate from the database.
type RateLimitReloader struct {
	store       limiter.Store
	repo        database.RatelimitConfigRepositoryInterface
	defaultRate string
	log         *zap.Logger
	interval    time.Duration

	mu      sync.RWMutex
	rate    limiter.Rate
	current *limiter.Limiter
}

// NewRateLimitReloader creates a rate limiter backed by Redis whose rate is read from repo
func NewRateLimitReloader(redisClient *redis.Client, repo database.RatelimitConfigRepositoryInterface, defaultRate string, log *zap.Logger, reloadInterval time.Duration) (*RateLimitReloader, error) {
	if defaultRate == "" {
		defaultRate = DefaultRatelimitRate
	}
	if _, err := limiter.NewRateFromFormatted(defaultRate); err != nil {
		return nil, fmt.Errorf("invalid default rate %q: %w", defaultRate, err)
	}
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: redisKeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store for rate limiter: %w", err)
	}
	r := &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
		interval:    reloadInterval,
	}
	r.Reload(context.Background())
	return r, nil
}

// Middleware returns the rate limiting middleware. Rate changes picked up by
// Reload apply to requests already routed through it.
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.mu.RLock()
			instance := r.current
			r.mu.RUnlock()

			mw := stdlibmw.NewMiddleware(instance,
				stdlibmw.WithKeyGetter(request.ClientIP),
				stdlibmw.WithErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
					// Fail open: a Redis outage must not take the API down.
					r.log.Warn("rate_limiter_store_error", zap.Error(err))
					next.ServeHTTP(w, req)
				}),
				stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, req *http.Request) {
					respondErrorJSON(w, req, http.StatusTooManyRequests, "rate_limited", "Too Many Requests", r.log)
				}),
			)
			mw.Handler(next).ServeHTTP(w, req)
		})
	}
}

// Start runs the reload loop until ctx is cancelled.
func (r *RateLimitReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reload(ctx)
		}
	}
}

// Rate returns the rate currently enforced
func (r *RateLimitReloader) Rate() limiter.Rate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rate
}

// Reload reads the stored rate and swaps the limiter when it changed. The
// default is persisted when no row exists yet.
func (r *RateLimitReloader) Reload(ctx context.Context) {
	rateStr := r.defaultRate
	cfg, err := r.repo.Get(ctx)
	switch {
	case err != nil:
		r.log.Warn("failed_to_load_ratelimit_config_from_db_using_default",
			zap.Error(err),
			zap.String("default_rate", r.defaultRate),
		)
	case cfg != nil && cfg.Rate != "":
		rateStr = cfg.Rate
	default:
		if err := r.repo.Set(ctx, r.defaultRate); err != nil {
			r.log.Error("failed_to_save_default_ratelimit_config",
				zap.Error(err),
				zap.String("default_rate", r.defaultRate),
			)
		}
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r.log.Error("failed_to_parse_rate_limit_using_default",
			zap.Error(err),
			zap.String("rate_str", rateStr),
			zap.String("default_rate", r.defaultRate),
		)
		rate, _ = limiter.NewRateFromFormatted(r.defaultRate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.rate == rate {
		return
	}
	r.rate = rate
	r.current = limiter.New(r.store, rate)
	r.log.Info("ratelimit_config_applied",
		zap.Int64("limit", rate.Limit),
		zap.Duration("period", rate.Period),
	)
}
