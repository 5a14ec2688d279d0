// Package mailer delivers run reports over SMTP
package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wneessen/go-mail"
)

// Sentinel errors
var (
	ErrMissingConfig = errors.New("mailer requires a host, a sender and at least one recipient")
	ErrClient        = errors.New("smtp client setup failed")
	ErrMessage       = errors.New("composing mail failed")
	ErrAttachment    = errors.New("attachment unavailable")
	ErrSend          = errors.New("sending mail failed")
)

const defaultSubject = "XRP rich list"

// Config holds SMTP settings and the envelope
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Subject  string
	Timeout  time.Duration
}

// Sender delivers composed messages. *mail.Client implements it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Option configures a Mailer
type Option func(*Mailer)

// WithSender replaces the SMTP client, mainly for tests
func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

// Mailer sends text, image and file payloads as individual emails
type Mailer struct {
	sender  Sender
	from    string
	to      []string
	subject string
}

// New creates a Mailer. The SMTP connection is only dialled on send.
func New(cfg Config, opts ...Option) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, ErrMissingConfig
	}

	m := &Mailer{from: cfg.From, to: cfg.To, subject: cfg.Subject}
	if m.subject == "" {
		m.subject = defaultSubject
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sender != nil {
		return m, nil
	}

	client, err := mail.NewClient(cfg.Host, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClient, err)
	}
	m.sender = client
	return m, nil
}

func clientOptions(cfg Config) []mail.Option {
	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return opts
}

// SendText mails message as a plain-text body
func (m *Mailer) SendText(ctx context.Context, message string) error {
	msg, err := m.compose(m.subject, message)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

// SendImage mails the image at path as an attachment
func (m *Mailer) SendImage(ctx context.Context, path string) error {
	return m.sendAttachment(ctx, path, m.subject+": concentration chart")
}

// SendFile mails the file at path as an attachment
func (m *Mailer) SendFile(ctx context.Context, path string) error {
	return m.sendAttachment(ctx, path, m.subject+": balance changes")
}

func (m *Mailer) sendAttachment(ctx context.Context, path, subject string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %w", ErrAttachment, err)
	}

	msg, err := m.compose(subject, "See attached "+filepath.Base(path)+".")
	if err != nil {
		return err
	}
	msg.AttachFile(path)
	return m.send(ctx, msg)
}

func (m *Mailer) compose(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("%w: from: %w", ErrMessage, err)
	}
	if err := msg.To(m.to...); err != nil {
		return nil, fmt.Errorf("%w: to: %w", ErrMessage, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *Mailer) send(ctx context.Context, msg *mail.Msg) error {
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}
