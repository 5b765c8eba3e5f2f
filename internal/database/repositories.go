package database

import (
	"context"
	"time"

	"github.com/benvon/appointment-scheduler/internal/models"
)

// UserRepositoryInterface defines the user lookups the scheduling service needs
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
}

// FileRepositoryInterface defines avatar lookups
type FileRepositoryInterface interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*models.File, error)
}

// AppointmentRepositoryInterface defines appointment persistence
type AppointmentRepositoryInterface interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id int64) (*models.Appointment, error)
	ListActiveByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Appointment, error)
	ExistsActiveInSlot(ctx context.Context, providerID int64, slot time.Time) (bool, error)
	Cancel(ctx context.Context, a *models.Appointment, canceledAt time.Time) error
}

// NotificationRepositoryInterface defines notification persistence
type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) (*models.Notification, error)
}

// RatelimitConfigRepositoryInterface defines the stored API rate
type RatelimitConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, rate string) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface            = (*UserRepository)(nil)
	_ FileRepositoryInterface            = (*FileRepository)(nil)
	_ AppointmentRepositoryInterface     = (*AppointmentRepository)(nil)
	_ NotificationRepositoryInterface    = (*NotificationRepository)(nil)
	_ RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
)
