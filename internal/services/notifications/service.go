// Package notifications exposes a provider's booking notifications.
package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/benvon/appointment-scheduler/internal/models"
)

// Limit is the number of notifications returned per listing
const Limit = 20

var (
	// ErrNotProvider is returned when the caller is not a provider
	ErrNotProvider = errors.New("only providers can load notifications")
	// ErrNotFound is returned when the notification does not exist or belongs to someone else
	ErrNotFound = errors.New("notification not found")
)

// Service lists and acknowledges notifications
type Service struct {
	notifications database.NotificationRepositoryInterface
}

// NewService creates a notification service
func NewService(notifications database.NotificationRepositoryInterface) *Service {
	return &Service{notifications: notifications}
}

// List returns the provider's most recent notifications
func (s *Service) List(ctx context.Context, caller *models.User) ([]*models.Notification, error) {
	if caller == nil || !caller.Provider {
		return nil, ErrNotProvider
	}
	list, err := s.notifications.ListByUser(ctx, caller.ID, Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if list == nil {
		list = []*models.Notification{}
	}
	return list, nil
}

// MarkRead flags one of the caller's notifications as read
func (s *Service) MarkRead(ctx context.Context, callerID, id int64) (*models.Notification, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	n, err := s.notifications.MarkRead(ctx, id, callerID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return n, nil
}
