package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/benvon/appointment-scheduler/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SMTPDialer connects to an SMTP relay, upgrading to TLS when offered
type SMTPDialer struct {
	Host     string
	Port     string
	Username string
	Password string
	Timeout  time.Duration
}

// Dial opens a session and authenticates when credentials are configured
func (d *SMTPDialer) Dial(ctx context.Context) (Client, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(d.Host, d.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, d.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: d.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if d.Username != "" {
		auth := smtp.PlainAuth("", d.Username, d.Password, d.Host)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	return client, nil
}

// SMTPSender sends messages through a Dialer, at most perSecond per second
type SMTPSender struct {
	dialer  Dialer
	from    *netmail.Address
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// NewSMTPSender creates a throttled sender. from accepts "Name <addr>" form.
func NewSMTPSender(dialer Dialer, from string, perSecond int, log *zap.Logger) (*SMTPSender, error) {
	addr, err := netmail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SMTPSender{
		dialer:  dialer,
		from:    addr,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		logger:  log,
		now:     time.Now,
	}, nil
}

// Send waits for a rate-limit token, then delivers msg in its own session
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if _, err := netmail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttled: %w", err)
	}

	client, err := s.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.from.Address); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(s.compose(msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		s.logger.Debug("smtp_quit_failed", zap.Error(err))
	}

	s.logger.Debug("mail_sent",
		zap.String("to", logger.SanitizeEmail(msg.To)),
		zap.String("subject", logger.SanitizeString(msg.Subject, logger.MaxGeneralStringLength)),
	)
	return nil
}

// compose builds the RFC 5322 message with CRLF line endings
func (s *SMTPSender) compose(msg Message) []byte {
	to := (&netmail.Address{Name: msg.ToName, Address: msg.To}).String()
	headers := []string{
		"From: " + s.from.String(),
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + s.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"Content-Transfer-Encoding: 8bit",
	}
	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

var _ Sender = (*SMTPSender)(nil)
