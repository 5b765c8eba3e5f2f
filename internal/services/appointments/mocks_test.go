package appointments

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/benvon/appointment-scheduler/internal/models"
	"github.com/benvon/appointment-scheduler/internal/queue"
)

type mockUserRepo struct {
	getByIDFunc  func(ctx context.Context, id int64) (*models.User, error)
	getByIDsFunc func(ctx context.Context, ids []int64) ([]*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}
	return nil, nil
}

// usersRepo serves lookups from a fixed set of users
func usersRepo(users ...*models.User) *mockUserRepo {
	byID := make(map[int64]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &mockUserRepo{
		getByIDFunc: func(_ context.Context, id int64) (*models.User, error) {
			if u, ok := byID[id]; ok {
				return u, nil
			}
			return nil, database.ErrNotFound
		},
		getByIDsFunc: func(_ context.Context, ids []int64) ([]*models.User, error) {
			var out []*models.User
			for _, id := range ids {
				if u, ok := byID[id]; ok {
					out = append(out, u)
				}
			}
			return out, nil
		},
	}
}

type mockFileRepo struct {
	getByIDsFunc func(ctx context.Context, ids []int64) ([]*models.File, error)
}

func (m *mockFileRepo) GetByIDs(ctx context.Context, ids []int64) ([]*models.File, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}
	return nil, nil
}

type mockAppointmentRepo struct {
	createFunc             func(ctx context.Context, a *models.Appointment) error
	getByIDFunc            func(ctx context.Context, id int64) (*models.Appointment, error)
	listActiveByUserFunc   func(ctx context.Context, userID int64, limit, offset int) ([]*models.Appointment, error)
	existsActiveInSlotFunc func(ctx context.Context, providerID int64, slot time.Time) (bool, error)
	cancelFunc             func(ctx context.Context, a *models.Appointment, canceledAt time.Time) error
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	return nil
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockAppointmentRepo) ListActiveByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Appointment, error) {
	if m.listActiveByUserFunc != nil {
		return m.listActiveByUserFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) ExistsActiveInSlot(ctx context.Context, providerID int64, slot time.Time) (bool, error) {
	if m.existsActiveInSlotFunc != nil {
		return m.existsActiveInSlotFunc(ctx, providerID, slot)
	}
	return false, nil
}

func (m *mockAppointmentRepo) Cancel(ctx context.Context, a *models.Appointment, canceledAt time.Time) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, a, canceledAt)
	}
	a.CanceledAt = &canceledAt
	return nil
}

// memoryAppointments keeps appointments in memory and enforces one active
// appointment per provider slot, like the partial unique index
type memoryAppointments struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Appointment
}

func newMemoryAppointments() *memoryAppointments {
	return &memoryAppointments{rows: make(map[int64]*models.Appointment)}
}

func (m *memoryAppointments) repo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		createFunc: func(_ context.Context, a *models.Appointment) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			slot := a.Slot
			if slot.IsZero() {
				slot = models.SlotFor(a.Date, time.UTC)
			}
			for _, r := range m.rows {
				if r.ProviderID == a.ProviderID && r.Slot.Equal(slot) && r.CanceledAt == nil {
					return database.ErrConflict
				}
			}
			m.nextID++
			a.ID = m.nextID
			a.Slot = slot
			stored := *a
			m.rows[a.ID] = &stored
			return nil
		},
		getByIDFunc: func(_ context.Context, id int64) (*models.Appointment, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			r, ok := m.rows[id]
			if !ok {
				return nil, database.ErrNotFound
			}
			cp := *r
			return &cp, nil
		},
		existsActiveInSlotFunc: func(_ context.Context, providerID int64, slot time.Time) (bool, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, r := range m.rows {
				if r.ProviderID == providerID && r.Slot.Equal(slot) && r.CanceledAt == nil {
					return true, nil
				}
			}
			return false, nil
		},
		cancelFunc: func(_ context.Context, a *models.Appointment, at time.Time) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			r, ok := m.rows[a.ID]
			if !ok || r.CanceledAt != nil {
				return database.ErrNotFound
			}
			r.CanceledAt = &at
			a.CanceledAt = &at
			return nil
		},
	}
}

func (m *memoryAppointments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type mockNotificationRepo struct {
	mu         sync.Mutex
	created    []*models.Notification
	createFunc func(ctx context.Context, n *models.Notification) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(context.Context, int64, int) ([]*models.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(context.Context, int64, int64) (*models.Notification, error) {
	return nil, database.ErrNotFound
}

type mockEnqueuer struct {
	mu          sync.Mutex
	jobs        []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockEnqueuer) enqueued() []*queue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Job(nil), m.jobs...)
}

type stubFormatter struct{}

func (stubFormatter) NewBookingMessage(requester string, slot time.Time) string {
	return "New booking by " + requester + " for " + slot.UTC().Format(time.RFC3339)
}

var (
	_ database.UserRepositoryInterface         = (*mockUserRepo)(nil)
	_ database.FileRepositoryInterface         = (*mockFileRepo)(nil)
	_ database.AppointmentRepositoryInterface  = (*mockAppointmentRepo)(nil)
	_ database.NotificationRepositoryInterface = (*mockNotificationRepo)(nil)
	_ queue.Enqueuer                           = (*mockEnqueuer)(nil)
	_ BookingFormatter                         = stubFormatter{}
)
