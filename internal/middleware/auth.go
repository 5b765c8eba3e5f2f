package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/benvon/appointment-scheduler/internal/models"
	"github.com/benvon/appointment-scheduler/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier resolves a bearer token to the caller's user id
type TokenVerifier interface {
	Verify(tokenString string) (int64, error)
}

// UserLookup loads the authenticated caller
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

var _ UserLookup = (database.UserRepositoryInterface)(nil)

// Auth creates authentication middleware that validates bearer tokens and
// attaches the caller to the request context
func Auth(users UserLookup, verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", logger)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondErrorJSON(w, r, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format", logger)
				return
			}

			userID, err := verifier.Verify(parts[1])
			if err != nil {
				logger.Debug("token_verification_failed", zap.Error(err))
				respondErrorJSON(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", logger)
				return
			}

			ctx := r.Context()
			user, err := users.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					respondErrorJSON(w, r, http.StatusUnauthorized, "unauthorized", "Unknown user", logger)
					return
				}
				logger.Error("failed_to_load_caller",
					zap.Error(err),
					zap.Int64("user_id", userID),
				)
				respondErrorJSON(w, r, http.StatusInternalServerError, "internal_error", "Database error", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}
