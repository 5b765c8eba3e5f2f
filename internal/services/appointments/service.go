// Package appointments implements booking, listing and cancellation of
// provider appointments.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/benvon/appointment-scheduler/internal/logger"
	"github.com/benvon/appointment-scheduler/internal/metrics"
	"github.com/benvon/appointment-scheduler/internal/models"
	"github.com/benvon/appointment-scheduler/internal/queue"
	"github.com/benvon/appointment-scheduler/internal/telemetry"
	"github.com/benvon/appointment-scheduler/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PageSize is the number of appointments returned per list page
const PageSize = 20

// enqueueTimeout bounds a detached cancellation enqueue
const enqueueTimeout = 10 * time.Second

// BookingFormatter renders the provider notification text
type BookingFormatter interface {
	NewBookingMessage(requester string, slot time.Time) string
}

// Service implements the appointment operations
type Service struct {
	users         database.UserRepositoryInterface
	files         database.FileRepositoryInterface
	appointments  database.AppointmentRepositoryInterface
	notifications database.NotificationRepositoryInterface
	jobs          queue.Enqueuer
	formatter     BookingFormatter

	now          func() time.Time
	logger       *zap.Logger
	metrics      *metrics.Metrics
	filesBaseURL string
	location     *time.Location

	pending sync.WaitGroup
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the Prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFilesBaseURL sets the prefix used to build avatar URLs
func WithFilesBaseURL(base string) Option {
	return func(s *Service) { s.filesBaseURL = base }
}

// WithLocation sets the zone whose wall-clock hours define booking slots
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// NewService creates an appointment service
func NewService(
	users database.UserRepositoryInterface,
	files database.FileRepositoryInterface,
	appointments database.AppointmentRepositoryInterface,
	notifications database.NotificationRepositoryInterface,
	jobs queue.Enqueuer,
	formatter BookingFormatter,
	opts ...Option,
) *Service {
	s := &Service{
		users:         users,
		files:         files,
		appointments:  appointments,
		notifications: notifications,
		jobs:          jobs,
		formatter:     formatter,
		now:           time.Now,
		logger:        zap.NewNop(),
		location:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNop()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	return s
}

// Wait blocks until detached enqueues started by Cancel have finished
func (s *Service) Wait() {
	s.pending.Wait()
}

// List returns one page of the caller's active appointments ordered by date.
// Page 0 is treated as the first page.
func (s *Service) List(ctx context.Context, callerID int64, page int) ([]ListItem, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "appointments.List",
		trace.WithAttributes(attribute.Int64("user.id", callerID), attribute.Int("page", page)))
	defer span.End()

	if callerID <= 0 {
		return nil, newError(KindValidation, "caller is required")
	}
	if page < 0 {
		return nil, newError(KindValidation, "page must be a positive integer")
	}
	if page == 0 {
		page = 1
	}

	appts, err := s.appointments.ListActiveByUser(ctx, callerID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	providers, err := s.providerSummaries(ctx, appts)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]ListItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, ListItem{
			ID:         a.ID,
			Date:       a.Date,
			Past:       a.Past(now),
			Cancelable: a.Cancelable(now),
			Provider:   providers[a.ProviderID],
		})
	}

	return items, nil
}

// providerSummaries loads the distinct providers of appts and their avatars
func (s *Service) providerSummaries(ctx context.Context, appts []*models.Appointment) (map[int64]*ProviderSummary, error) {
	summaries := make(map[int64]*ProviderSummary)
	if len(appts) == 0 {
		return summaries, nil
	}

	seen := make(map[int64]bool)
	var providerIDs []int64
	for _, a := range appts {
		if !seen[a.ProviderID] {
			seen[a.ProviderID] = true
			providerIDs = append(providerIDs, a.ProviderID)
		}
	}

	users, err := s.users.GetByIDs(ctx, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	var avatarIDs []int64
	for _, u := range users {
		if u.AvatarID != nil {
			avatarIDs = append(avatarIDs, *u.AvatarID)
		}
	}

	avatars := make(map[int64]*Avatar)
	if len(avatarIDs) > 0 {
		files, err := s.files.GetByIDs(ctx, avatarIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load avatars: %w", err)
		}
		for _, f := range files {
			avatars[f.ID] = &Avatar{ID: f.ID, URL: f.URL(s.filesBaseURL), Path: f.Path}
		}
	}

	for _, u := range users {
		summary := &ProviderSummary{ID: u.ID, Name: u.Name}
		if u.AvatarID != nil {
			summary.Avatar = avatars[*u.AvatarID]
		}
		summaries[u.ID] = summary
	}

	return summaries, nil
}

// Create books the hour slot containing in.Date with the given provider
func (s *Service) Create(ctx context.Context, callerID int64, in CreateInput) (*models.Appointment, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "appointments.Create",
		trace.WithAttributes(attribute.Int64("user.id", callerID), attribute.Int64("provider.id", in.ProviderID)))
	defer span.End()

	a, err := s.create(ctx, callerID, in)
	if err != nil {
		s.rejected(span, "create", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("appointment.id", a.ID))
	return a, nil
}

func (s *Service) create(ctx context.Context, callerID int64, in CreateInput) (*models.Appointment, error) {
	if callerID <= 0 {
		return nil, newError(KindValidation, "caller is required")
	}
	if err := validation.Validate.Struct(in); err != nil {
		return nil, newError(KindValidation, "%s", validation.Describe(err))
	}
	date, err := validation.ParseTimestamp(in.Date)
	if err != nil {
		return nil, newError(KindValidation, "%s", err.Error())
	}

	provider, err := s.users.GetByID(ctx, in.ProviderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(KindInvalidProvider, "user %d does not exist", in.ProviderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	if !provider.Provider {
		return nil, newError(KindInvalidProvider, "user %d is not a provider", in.ProviderID)
	}

	if provider.ID == callerID {
		return nil, newError(KindSelfScheduling, "you can not book an appointment with yourself")
	}

	hourStart := models.SlotFor(date, s.location)
	if !hourStart.After(s.now()) {
		return nil, newError(KindPastDate, "past dates are not permitted")
	}

	taken, err := s.appointments.ExistsActiveInSlot(ctx, provider.ID, hourStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if taken {
		return nil, newError(KindSlotTaken, "appointment date is not available")
	}

	appointment := &models.Appointment{
		UserID:     callerID,
		ProviderID: provider.ID,
		Date:       date,
		Slot:       hourStart,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, newError(KindSlotTaken, "appointment date is not available")
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.metrics.AppointmentsCreated.Inc()
	s.logger.Info("appointment_created",
		zap.Int64("appointment_id", appointment.ID),
		zap.Int64("user_id", callerID),
		zap.Int64("provider_id", provider.ID),
		zap.Time("slot", hourStart),
	)

	s.notifyProvider(ctx, callerID, provider.ID, hourStart)

	return appointment, nil
}

// notifyProvider stores the booking notification. The appointment is already
// committed, so failures are only logged.
func (s *Service) notifyProvider(ctx context.Context, callerID, providerID int64, slot time.Time) {
	requester, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		s.metrics.NotificationFailures.Inc()
		s.logger.Warn("notification_requester_lookup_failed",
			zap.Int64("user_id", callerID),
			zap.String("error", logger.SanitizeError(err)),
		)
		return
	}

	n := &models.Notification{
		UserID:  providerID,
		Content: s.formatter.NewBookingMessage(requester.Name, slot),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.metrics.NotificationFailures.Inc()
		s.logger.Warn("notification_create_failed",
			zap.Int64("provider_id", providerID),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

// Cancel cancels one of the caller's appointments at least two hours ahead of
// its date and queues the cancellation email. Canceling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, callerID, appointmentID int64) (*CanceledAppointment, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "appointments.Cancel",
		trace.WithAttributes(attribute.Int64("user.id", callerID), attribute.Int64("appointment.id", appointmentID)))
	defer span.End()

	res, err := s.cancel(ctx, callerID, appointmentID)
	if err != nil {
		s.rejected(span, "cancel", err)
		return nil, err
	}
	return res, nil
}

func (s *Service) cancel(ctx context.Context, callerID, appointmentID int64) (*CanceledAppointment, error) {
	if callerID <= 0 {
		return nil, newError(KindValidation, "caller is required")
	}
	if appointmentID <= 0 {
		return nil, newError(KindValidation, "appointment id must be a positive integer")
	}

	a, err := s.appointments.GetByID(ctx, appointmentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(KindNotFound, "appointment %d not found", appointmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}

	if a.UserID != callerID {
		return nil, newError(KindForbidden, "you don't have permission to cancel this appointment")
	}

	now := s.now()
	if !a.Cancelable(now) {
		return nil, newError(KindCancellationWindow, "you can only cancel appointments %s in advance", models.CancellationWindow)
	}

	provider, user, err := s.participants(ctx, a)
	if err != nil {
		return nil, err
	}
	result := &CanceledAppointment{Appointment: a, Provider: partyOf(provider), User: partyOf(user)}

	if a.Canceled() {
		return result, nil
	}

	if err := s.appointments.Cancel(ctx, a, now); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("failed to cancel appointment: %w", err)
		}
		// A concurrent request canceled it first
		current, getErr := s.appointments.GetByID(ctx, appointmentID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to reload appointment: %w", getErr)
		}
		result.Appointment = current
		return result, nil
	}

	s.metrics.AppointmentsCanceled.Inc()
	s.logger.Info("appointment_canceled",
		zap.Int64("appointment_id", a.ID),
		zap.Int64("user_id", callerID),
		zap.Int64("provider_id", a.ProviderID),
	)

	s.enqueueCancellationMail(result)

	return result, nil
}

func (s *Service) participants(ctx context.Context, a *models.Appointment) (*models.User, *models.User, error) {
	users, err := s.users.GetByIDs(ctx, []int64{a.ProviderID, a.UserID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}
	var provider, user *models.User
	for _, u := range users {
		switch u.ID {
		case a.ProviderID:
			provider = u
		case a.UserID:
			user = u
		}
	}
	return provider, user, nil
}

// enqueueCancellationMail publishes the job outside the request lifetime.
// Failures are logged and counted, never surfaced to the caller.
func (s *Service) enqueueCancellationMail(c *CanceledAppointment) {
	payload := queue.CancellationMailPayload{
		AppointmentID: c.ID,
		Date:          c.Date,
		CanceledAt:    *c.CanceledAt,
		Provider:      queue.Party(c.Provider),
		User:          queue.Party(c.User),
	}
	job, err := queue.NewJob(queue.JobTypeCancellationMail, payload)
	if err != nil {
		s.metrics.EnqueueFailures.Inc()
		s.logger.Error("cancellation_job_build_failed",
			zap.Int64("appointment_id", c.ID),
			zap.Error(err),
		)
		return
	}
	// The mail is pointless once the appointment time has passed
	notAfter := c.Date
	job.NotAfter = &notAfter

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		defer cancel()

		if err := s.jobs.Enqueue(ctx, job); err != nil {
			s.metrics.EnqueueFailures.Inc()
			s.logger.Error("cancellation_job_enqueue_failed",
				zap.Int64("appointment_id", c.ID),
				zap.String("job_id", job.ID.String()),
				zap.String("error", logger.SanitizeError(err)),
			)
			return
		}
		s.logger.Debug("cancellation_job_enqueued",
			zap.Int64("appointment_id", c.ID),
			zap.String("job_id", job.ID.String()),
		)
	}()
}

func (s *Service) rejected(span trace.Span, operation string, err error) {
	kind := KindOf(err)
	if kind == "" {
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal failure")
		return
	}
	span.SetAttributes(attribute.String("rejection.kind", string(kind)))
	s.metrics.AppointmentsRejected.WithLabelValues(operation, string(kind)).Inc()
}
