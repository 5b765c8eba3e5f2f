package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/appointment-scheduler/internal/logger"
	"github.com/benvon/appointment-scheduler/internal/mail"
	"github.com/benvon/appointment-scheduler/internal/metrics"
	"github.com/benvon/appointment-scheduler/internal/queue"
	"go.uber.org/zap"
)

// DefaultRetryBackoff is the delay before the first retry of a failed send
const DefaultRetryBackoff = 30 * time.Second

// MailFormatter localizes the cancellation email
type MailFormatter interface {
	Locale() string
	FormatDate(t time.Time) string
	CanceledSubject() string
}

// CancellationMailer delivers cancellation_mail jobs to providers
type CancellationMailer struct {
	sender    mail.Sender
	formatter MailFormatter
	jobQueue  queue.Enqueuer // For re-enqueueing failed sends with a delay
	logger    *zap.Logger
	metrics   *metrics.Metrics
	backoff   time.Duration
	now       func() time.Time
}

// NewCancellationMailer creates a cancellation mailer
func NewCancellationMailer(
	sender mail.Sender,
	formatter MailFormatter,
	jobQueue queue.Enqueuer,
	log *zap.Logger,
	m *metrics.Metrics,
) *CancellationMailer {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &CancellationMailer{
		sender:    sender,
		formatter: formatter,
		jobQueue:  jobQueue,
		logger:    log,
		metrics:   m,
		backoff:   DefaultRetryBackoff,
		now:       time.Now,
	}
}

// ProcessJob handles one delivery. Every path settles the message exactly once.
func (c *CancellationMailer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.Type != queue.JobTypeCancellationMail {
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			c.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if job.IsExpired() {
		c.logger.Info("cancellation_mail_expired",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_after", job.NotAfter),
		)
		c.metrics.MailsFailed.WithLabelValues("expired").Inc()
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack expired job: %w", ackErr)
		}
		return nil
	}

	var payload queue.CancellationMailPayload
	if err := job.Decode(&payload); err != nil {
		c.metrics.MailsFailed.WithLabelValues("invalid").Inc()
		if nackErr := msg.Nack(false); nackErr != nil {
			c.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return err
	}

	message, err := c.compose(payload)
	if err != nil {
		c.metrics.MailsFailed.WithLabelValues("invalid").Inc()
		if nackErr := msg.Nack(false); nackErr != nil {
			c.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return err
	}

	if err := c.sender.Send(ctx, message); err != nil {
		return c.handleSendError(ctx, msg, job, err)
	}

	c.metrics.MailsSent.Inc()
	c.logger.Info("cancellation_mail_sent",
		zap.String("job_id", job.ID.String()),
		zap.Int64("appointment_id", payload.AppointmentID),
		zap.String("to", logger.SanitizeEmail(payload.Provider.Email)),
		zap.Int("retry_count", job.RetryCount),
	)
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

func (c *CancellationMailer) compose(p queue.CancellationMailPayload) (mail.Message, error) {
	if p.Provider.Email == "" {
		return mail.Message{}, fmt.Errorf("appointment %d has no provider email", p.AppointmentID)
	}
	body, err := mail.RenderCancellation(c.formatter.Locale(), mail.CancellationData{
		ProviderName: p.Provider.Name,
		UserName:     p.User.Name,
		Date:         c.formatter.FormatDate(p.Date),
	})
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		To:      p.Provider.Email,
		ToName:  p.Provider.Name,
		Subject: c.formatter.CanceledSubject(),
		Body:    body,
	}, nil
}

// handleSendError schedules a delayed retry while the budget lasts and
// dead-letters the job afterwards
func (c *CancellationMailer) handleSendError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, sendErr error) error {
	if !job.CanRetry() || c.jobQueue == nil {
		c.metrics.MailsFailed.WithLabelValues("dead_lettered").Inc()
		c.logger.Error("cancellation_mail_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.String("error", logger.SanitizeError(sendErr)),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			c.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to send cancellation mail: %w", sendErr)
	}

	retry := *job
	retry.ScheduleRetry(c.now(), c.backoff)

	if err := c.jobQueue.Enqueue(ctx, &retry); err != nil {
		// Keep the original so the mail is not lost
		c.logger.Error("cancellation_mail_requeue_failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			c.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to re-enqueue job: %w", err)
	}

	c.metrics.MailsFailed.WithLabelValues("retry").Inc()
	c.logger.Warn("cancellation_mail_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", retry.RetryCount),
		zap.Timep("not_before", retry.NotBefore),
		zap.String("error", logger.SanitizeError(sendErr)),
	)
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job after re-enqueue: %w", ackErr)
	}
	return fmt.Errorf("send failed, retry scheduled: %w", sendErr)
}
