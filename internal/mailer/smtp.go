package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Ensure SMTPMailer implements Mailer
var _ Mailer = (*SMTPMailer)(nil)

// SMTPConfig holds the connection settings for the outgoing mail account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// FromName is the display name on outgoing mail.
	FromName string
}

// SMTPMailer sends mail over authenticated SMTP with implicit TLS, as a
// single sender identity (the authenticated account).
type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTP creates an SMTPMailer from the given settings.
func NewSMTP(cfg SMTPConfig) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.Username, fromName: cfg.FromName}, nil
}

// Send delivers a single message.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()
	if err := mm.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("invalid sender address %s: %w", m.from, err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address %s: %w", msg.To, err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("failed to send to %s: %w", msg.To, err)
	}
	return nil
}
