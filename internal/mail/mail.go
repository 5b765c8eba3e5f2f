// Package mail renders and delivers transactional email over SMTP.
package mail

import (
	"context"
	"io"
)

// Message is a plain-text email
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client is the subset of *smtp.Client used to send one message
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer opens an authenticated SMTP session
type Dialer interface {
	Dial(ctx context.Context) (Client, error)
}
