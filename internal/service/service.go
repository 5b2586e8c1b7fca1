// Package service implements the event lifecycle: submissions, the one-time
// draw, one-time notification, and the administrative operations. Every
// operation is a stateless unit of work; all durable state lives in the
// event store, and every write of the data record is guarded by the store's
// version token so concurrent writers cannot lose updates or double-fire
// the draw and notification flags.
package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/paulcherng/SecretSantaPlatform/internal/mailer"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
)

// casRetries bounds how often an operation re-reads and re-applies after
// losing a versioned write to a concurrent writer. The precondition checks
// run again on every attempt, so a duplicate draw or send resolves to a
// conflict instead of a second execution.
const casRetries = 3

// maxConcurrentSends limits the notification fan-out.
const maxConcurrentSends = 8

var (
	drawsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "santa_draws_total",
		Help: "Draw attempts by outcome.",
	}, []string{"outcome"})

	notificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "santa_notifications_sent_total",
		Help: "Individual notification emails successfully sent.",
	})
)

// Service coordinates the event store, the matching engine, and the mailer.
type Service struct {
	store  *storage.EventStore
	mailer mailer.Mailer

	// organizerEmail receives the best-effort notice when an event fills.
	organizerEmail string

	// seed feeds the matching engine; overridable for reproducible tests.
	seed func() int64

	// storeTimeout bounds each operation's store interactions;
	// sendTimeout bounds the whole notification dispatch.
	storeTimeout time.Duration
	sendTimeout  time.Duration
}

// New creates a Service with the given collaborators.
func New(store *storage.EventStore, m mailer.Mailer, organizerEmail string) *Service {
	return &Service{
		store:          store,
		mailer:         m,
		organizerEmail: organizerEmail,
		seed:           func() int64 { return time.Now().UnixNano() },
		storeTimeout:   10 * time.Second,
		sendTimeout:    60 * time.Second,
	}
}

// Ping verifies the event store is reachable; used by the health endpoint.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

// opContext bounds an operation's store interactions. A deadline hit
// surfaces as context.DeadlineExceeded wrapped in an infrastructure error,
// distinguishable from other store failures via errors.Is.
func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
