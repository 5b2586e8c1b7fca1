// Package mailer delivers notification email. The service layer depends
// only on the Mailer interface; the SMTP implementation lives in smtp.go and
// tests substitute a fake.
package mailer

import "context"

// Message is one email to be delivered.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer defines the interface for email delivery implementations.
//
// Delivery is attempted per message with no ledger of what was already
// sent: callers that dispatch a batch and retry after a partial failure
// will re-send messages that already went out.
type Mailer interface {
	// Send delivers a single message, honoring ctx cancellation.
	Send(ctx context.Context, msg Message) error
}
