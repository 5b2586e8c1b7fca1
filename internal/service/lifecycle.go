package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/paulcherng/SecretSantaPlatform/internal/mailer"
	"github.com/paulcherng/SecretSantaPlatform/internal/matching"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
)

// Draw computes the giver-to-receiver assignment and persists the drawn
// record. It requires the event to be exactly at capacity and not yet
// drawn. On matching infeasibility or any failure the event stays in its
// pre-draw state.
//
// The flag write is guarded by the record's version token: of two
// concurrent draws, exactly one commits and the other reports a conflict.
func (s *Service) Draw(ctx context.Context, eventID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		event, data, version, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if data.DrawCompleted {
			return conflictErr("event %s has already drawn", eventID)
		}
		if data.Count() < event.TotalCapacity() {
			return conflictErr("event %s is not full yet (%d of %d)", eventID, data.Count(), event.TotalCapacity())
		}

		members := make([]matching.Member, data.Count())
		for i, p := range data.Participants {
			members[i] = matching.Member{ID: p.ID, GroupID: p.GroupID}
		}

		assignment, err := matching.New(s.seed()).Assign(members)
		if errors.Is(err, matching.ErrInfeasible) {
			drawsTotal.WithLabelValues("infeasible").Inc()
			return conflictWrap(err, "no valid assignment exists for event %s", eventID)
		}
		if err != nil {
			drawsTotal.WithLabelValues("error").Inc()
			return infraErr(err, "draw failed for event %s", eventID)
		}

		for i := range data.Participants {
			data.Participants[i].AssignedTo = assignment[data.Participants[i].ID]
		}
		data.DrawCompleted = true

		err = s.store.PutEventData(ctx, eventID, data, version)
		if errors.Is(err, storage.ErrVersionMismatch) {
			// Lost the write; re-check preconditions. A concurrent draw
			// shows up as DrawCompleted on the next attempt.
			continue
		}
		if err != nil {
			drawsTotal.WithLabelValues("error").Inc()
			return infraErr(err, "failed to save draw for event %s", eventID)
		}

		drawsTotal.WithLabelValues("success").Inc()
		slog.Info("Draw completed", "event_id", eventID, "participants", data.Count())
		return nil
	}
	return conflictErr("event %s was modified concurrently; draw not applied", eventID)
}

// SendNotifications emails every participant their assignment. The
// emails-sent flag flips only when every delivery succeeds; on any failure
// the event stays drawn so the operation can be retried, though a retry
// re-sends to recipients whose mail already went out (delivery is not
// tracked per participant).
func (s *Service) SendNotifications(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		event, data, version, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return 0, err
		}
		if !data.DrawCompleted {
			return 0, conflictErr("event %s has not drawn yet", eventID)
		}
		if data.EmailsSent {
			return 0, conflictErr("notifications for event %s were already sent", eventID)
		}

		messages := make([]mailer.Message, data.Count())
		for i, giver := range data.Participants {
			receiver := data.FindByID(giver.AssignedTo)
			if receiver == nil {
				return 0, infraErr(nil, "event %s: participant %d assigned to unknown id %d", eventID, giver.ID, giver.AssignedTo)
			}
			body, err := mailer.AssignmentBody(mailer.AssignmentData{
				GiverName:     giver.Name,
				GiftAmount:    event.GiftAmount,
				EventDate:     event.Date,
				EventLocation: event.Location,
				Wish:          receiver.Wish,
			})
			if err != nil {
				return 0, infraErr(err, "event %s: failed to render notification", eventID)
			}
			messages[i] = mailer.Message{
				To:       giver.Email,
				Subject:  mailer.AssignmentSubject,
				HTMLBody: body,
			}
		}

		// Deliveries run concurrently; every failure is collected so the
		// error names each recipient that did not get mail.
		g, sendCtx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrentSends)
		sendErrs := make([]error, len(messages))
		for i, msg := range messages {
			g.Go(func() error {
				if err := s.mailer.Send(sendCtx, msg); err != nil {
					sendErrs[i] = fmt.Errorf("notification to %s: %w", msg.To, err)
					return nil
				}
				notificationsSentTotal.Inc()
				return nil
			})
		}
		g.Wait()

		if err := errors.Join(sendErrs...); err != nil {
			slog.Error("Notification dispatch incomplete", "event_id", eventID, "error", err)
			return 0, infraErr(err, "failed to send all notifications for event %s", eventID)
		}

		data.EmailsSent = true
		err = s.store.PutEventData(ctx, eventID, data, version)
		if errors.Is(err, storage.ErrVersionMismatch) {
			continue
		}
		if err != nil {
			return 0, infraErr(err, "failed to mark event %s notified", eventID)
		}

		slog.Info("Notifications sent", "event_id", eventID, "count", len(messages))
		return len(messages), nil
	}
	return 0, conflictErr("event %s was modified concurrently; notifications not marked sent", eventID)
}
