package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/benvon/appointment-scheduler/internal/models"
)

var appointmentColumns = []string{
	"id", "user_id", "provider_id", "date", "slot", "canceled_at", "created_at", "updated_at",
}

// AppointmentRepository handles appointment database operations
type AppointmentRepository struct {
	db *DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func scanAppointment(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	a := &models.Appointment{}
	var canceledAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ProviderID,
		&a.Date,
		&a.Slot,
		&canceledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if canceledAt.Valid {
		t := canceledAt.Time
		a.CanceledAt = &t
	}
	return a, nil
}

// Create inserts an active appointment. ErrConflict is returned when the
// provider already has an active appointment in the same slot.
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	now := time.Now()
	if a.Slot.IsZero() {
		a.Slot = models.SlotFor(a.Date, time.UTC)
	}
	a.Slot = a.Slot.UTC()

	query, args, err := psql.Insert("appointments").
		Columns("user_id", "provider_id", "date", "slot", "created_at", "updated_at").
		Values(a.UserID, a.ProviderID, a.Date, a.Slot, now, now).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("provider %d slot %s: %w", a.ProviderID, a.Slot.Format(time.RFC3339), ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID regardless of its cancellation state
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	a, err := scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return a, nil
}

func listActiveByUserQuery(userID int64, limit, offset int) squirrel.SelectBuilder {
	return psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"user_id": userID, "canceled_at": nil}).
		OrderBy("date ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
}

// ListActiveByUser returns a page of the user's non-canceled appointments
// ordered by date ascending
func (r *AppointmentRepository) ListActiveByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Appointment, error) {
	query, args, err := listActiveByUserQuery(userID, limit, offset).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var appointments []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

// ExistsActiveInSlot reports whether the provider has a non-canceled
// appointment in the given hour slot
func (r *AppointmentRepository) ExistsActiveInSlot(ctx context.Context, providerID int64, slot time.Time) (bool, error) {
	query, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("appointments").
		Where(squirrel.Eq{"provider_id": providerID, "slot": slot.UTC(), "canceled_at": nil}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build select: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}

	return exists, nil
}

// Cancel stamps canceledAt on an active appointment and refreshes a from the
// stored row. ErrNotFound is returned when no active appointment matched.
func (r *AppointmentRepository) Cancel(ctx context.Context, a *models.Appointment, canceledAt time.Time) error {
	query, args, err := psql.Update("appointments").
		Set("canceled_at", canceledAt).
		Set("updated_at", canceledAt).
		Where(squirrel.Eq{"id": a.ID, "canceled_at": nil}).
		Suffix("RETURNING canceled_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	var stamped time.Time
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&stamped, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("active appointment %d: %w", a.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	a.CanceledAt = &stamped

	return nil
}
