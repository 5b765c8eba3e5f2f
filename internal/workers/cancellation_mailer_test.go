package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/appointment-scheduler/internal/mail"
	"github.com/benvon/appointment-scheduler/internal/metrics"
	"github.com/benvon/appointment-scheduler/internal/queue"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// mockJobQueue is a mock implementation of Enqueuer
type mockJobQueue struct {
	enqueued    []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

var _ queue.Enqueuer = (*mockJobQueue)(nil)

// mockMessage records how the delivery was settled
type mockMessage struct {
	job     *queue.Job
	acks    int
	nacks   int
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acks++
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacks++
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

var _ queue.MessageInterface = (*mockMessage)(nil)

type mockSender struct {
	sent     []mail.Message
	sendFunc func(ctx context.Context, msg mail.Message) error
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

var _ mail.Sender = (*mockSender)(nil)

type stubFormatter struct{}

func (stubFormatter) Locale() string                { return "en_US" }
func (stubFormatter) FormatDate(t time.Time) string { return t.UTC().Format("January 2, at 15:04") }
func (stubFormatter) CanceledSubject() string       { return "Appointment canceled" }

var _ MailFormatter = stubFormatter{}

var mailerNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func cancellationJob(t *testing.T) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeCancellationMail, queue.CancellationMailPayload{
		AppointmentID: 42,
		Date:          time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC),
		CanceledAt:    mailerNow,
		Provider:      queue.Party{ID: 5, Name: "Diego", Email: "diego@example.com"},
		User:          queue.Party{ID: 3, Name: "Ana", Email: "ana@example.com"},
	})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	return job
}

func newTestMailer(sender mail.Sender, jobQueue queue.Enqueuer) (*CancellationMailer, *metrics.Metrics) {
	m := metrics.NewNop()
	c := NewCancellationMailer(sender, stubFormatter{}, jobQueue, nil, m)
	c.now = func() time.Time { return mailerNow }
	return c, m
}

func TestCancellationMailer_ProcessJob_Success(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	mailer, m := newTestMailer(sender, &mockJobQueue{})
	msg := &mockMessage{job: cancellationJob(t)}

	if err := mailer.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	if msg.acks != 1 || msg.nacks != 0 {
		t.Errorf("acks/nacks = %d/%d, want 1/0", msg.acks, msg.nacks)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.sent))
	}
	sent := sender.sent[0]
	if sent.To != "diego@example.com" || sent.ToName != "Diego" || sent.Subject != "Appointment canceled" {
		t.Errorf("sent = %+v", sent)
	}
	for _, want := range []string{"Hello, Diego", "Client: Ana", "October 20, at 14:00"} {
		if !strings.Contains(sent.Body, want) {
			t.Errorf("body missing %q:\n%s", want, sent.Body)
		}
	}
	if got := testutil.ToFloat64(m.MailsSent); got != 1 {
		t.Errorf("mails sent metric = %v, want 1", got)
	}
}

func TestCancellationMailer_ProcessJob_RetryScheduled(t *testing.T) {
	t.Parallel()

	sender := &mockSender{sendFunc: func(context.Context, mail.Message) error { return errors.New("421 try later") }}
	jobQueue := &mockJobQueue{}
	mailer, m := newTestMailer(sender, jobQueue)
	job := cancellationJob(t)
	msg := &mockMessage{job: job}

	if err := mailer.ProcessJob(context.Background(), msg); err == nil {
		t.Error("expected send error to be reported")
	}

	if msg.acks != 1 || msg.nacks != 0 {
		t.Errorf("acks/nacks = %d/%d, want 1/0", msg.acks, msg.nacks)
	}
	if len(jobQueue.enqueued) != 1 {
		t.Fatalf("re-enqueued %d jobs, want 1", len(jobQueue.enqueued))
	}
	retry := jobQueue.enqueued[0]
	if retry.ID != job.ID {
		t.Errorf("retry ID = %s, want original %s", retry.ID, job.ID)
	}
	if retry.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", retry.RetryCount)
	}
	if retry.NotBefore == nil || !retry.NotBefore.Equal(mailerNow.Add(DefaultRetryBackoff)) {
		t.Errorf("NotBefore = %v, want %v", retry.NotBefore, mailerNow.Add(DefaultRetryBackoff))
	}
	if job.RetryCount != 0 {
		t.Error("original job must not be mutated")
	}
	if got := testutil.ToFloat64(m.MailsFailed.WithLabelValues("retry")); got != 1 {
		t.Errorf("retry metric = %v, want 1", got)
	}
}

func TestCancellationMailer_ProcessJob_RetriesExhausted(t *testing.T) {
	t.Parallel()

	sender := &mockSender{sendFunc: func(context.Context, mail.Message) error { return errors.New("550 rejected") }}
	jobQueue := &mockJobQueue{}
	mailer, m := newTestMailer(sender, jobQueue)
	job := cancellationJob(t)
	job.RetryCount = job.MaxRetries
	msg := &mockMessage{job: job}

	if err := mailer.ProcessJob(context.Background(), msg); err == nil {
		t.Error("expected error")
	}

	if msg.nacks != 1 || msg.requeue || msg.acks != 0 {
		t.Errorf("acks/nacks/requeue = %d/%d/%v, want 0/1/false", msg.acks, msg.nacks, msg.requeue)
	}
	if len(jobQueue.enqueued) != 0 {
		t.Error("expected no re-enqueue")
	}
	if got := testutil.ToFloat64(m.MailsFailed.WithLabelValues("dead_lettered")); got != 1 {
		t.Errorf("dead-letter metric = %v, want 1", got)
	}
}

func TestCancellationMailer_ProcessJob_RequeueFailureKeepsMessage(t *testing.T) {
	t.Parallel()

	sender := &mockSender{sendFunc: func(context.Context, mail.Message) error { return errors.New("timeout") }}
	jobQueue := &mockJobQueue{enqueueFunc: func(context.Context, *queue.Job) error { return errors.New("channel closed") }}
	mailer, _ := newTestMailer(sender, jobQueue)
	msg := &mockMessage{job: cancellationJob(t)}

	if err := mailer.ProcessJob(context.Background(), msg); err == nil {
		t.Error("expected error")
	}
	if msg.acks != 0 || msg.nacks != 1 || !msg.requeue {
		t.Errorf("acks/nacks/requeue = %d/%d/%v, want 0/1/true", msg.acks, msg.nacks, msg.requeue)
	}
}

func TestCancellationMailer_ProcessJob_Rejected(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name      string
		job       func(t *testing.T) *queue.Job
		wantAck   bool
		wantError bool
	}{
		{
			name: "unknown job type",
			job: func(t *testing.T) *queue.Job {
				j := cancellationJob(t)
				j.Type = "reminder_mail"
				return j
			},
			wantError: true,
		},
		{
			name: "undecodable payload",
			job: func(*testing.T) *queue.Job {
				return &queue.Job{ID: uuid.New(), Type: queue.JobTypeCancellationMail, Payload: json.RawMessage(`"nope"`), MaxRetries: 3}
			},
			wantError: true,
		},
		{
			name: "missing provider email",
			job: func(*testing.T) *queue.Job {
				j, _ := queue.NewJob(queue.JobTypeCancellationMail, queue.CancellationMailPayload{AppointmentID: 1})
				return j
			},
			wantError: true,
		},
		{
			name: "expired job is dropped",
			job: func(t *testing.T) *queue.Job {
				j := cancellationJob(t)
				j.NotAfter = &past
				return j
			},
			wantAck: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sender := &mockSender{}
			mailer, _ := newTestMailer(sender, &mockJobQueue{})
			msg := &mockMessage{job: tt.job(t)}

			err := mailer.ProcessJob(context.Background(), msg)
			if (err != nil) != tt.wantError {
				t.Errorf("ProcessJob() error = %v, wantError %v", err, tt.wantError)
			}
			if len(sender.sent) != 0 {
				t.Error("expected no mail to be sent")
			}
			if tt.wantAck {
				if msg.acks != 1 || msg.nacks != 0 {
					t.Errorf("acks/nacks = %d/%d, want 1/0", msg.acks, msg.nacks)
				}
				return
			}
			if msg.nacks != 1 || msg.requeue || msg.acks != 0 {
				t.Errorf("acks/nacks/requeue = %d/%d/%v, want 0/1/false", msg.acks, msg.nacks, msg.requeue)
			}
		})
	}
}
