package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/paulcherng/SecretSantaPlatform/internal/mailer"
	"github.com/paulcherng/SecretSantaPlatform/internal/models"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
)

// SubmitInput is one participant submission.
type SubmitInput struct {
	EventID string
	Name    string
	Email   string
	GroupID int
	Wish    string
}

// SubmitResult reports what a submission did.
type SubmitResult struct {
	// Updated is true when an existing (email, group) submission was
	// overwritten in place instead of a new participant being added.
	Updated bool

	// JustReachedFull is true when this submission filled the last slot.
	JustReachedFull bool

	Participant models.Participant
}

// Submit registers a participant or, for a repeated (email, group) pair,
// updates the existing registration's name and wish. Submissions are
// rejected once the draw has run, when the event is at capacity, or when
// the target group is full.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	name := strings.TrimSpace(input.Name)
	wish := strings.TrimSpace(input.Wish)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	switch {
	case name == "":
		return nil, validationErr("name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, validationErr("a valid email is required")
	case wish == "":
		return nil, validationErr("wish is required")
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		event, data, version, err := s.loadEvent(ctx, input.EventID)
		if err != nil {
			return nil, err
		}
		if data.DrawCompleted {
			return nil, conflictErr("event %s is closed for submissions", input.EventID)
		}

		result := &SubmitResult{}
		if existing := data.FindByEmailAndGroup(email, input.GroupID); existing != nil {
			existing.Name = name
			existing.Wish = wish
			result.Updated = true
			result.Participant = *existing
		} else {
			if data.Count() >= event.TotalCapacity() {
				return nil, conflictErr("event %s is at capacity", input.EventID)
			}
			group := event.GroupByID(input.GroupID)
			if group == nil {
				return nil, validationErr("group %d does not exist", input.GroupID)
			}
			if data.GroupCounts()[input.GroupID] >= group.Limit {
				return nil, conflictErr("group %q is at capacity", group.Name)
			}

			participant := models.Participant{
				ID:      data.Count() + 1,
				Name:    name,
				Email:   email,
				GroupID: input.GroupID,
				Wish:    wish,
			}
			data.Participants = append(data.Participants, participant)
			result.Participant = participant
			result.JustReachedFull = data.Count() == event.TotalCapacity()
		}

		err = s.store.PutEventData(ctx, input.EventID, data, version)
		if errors.Is(err, storage.ErrVersionMismatch) {
			continue
		}
		if err != nil {
			return nil, infraErr(err, "failed to save submission for event %s", input.EventID)
		}

		slog.Info("Submission accepted",
			"event_id", input.EventID,
			"participant_id", result.Participant.ID,
			"group_id", input.GroupID,
			"updated", result.Updated,
			"count", data.Count(),
		)

		if result.JustReachedFull {
			s.notifyOrganizerFull(ctx, event, data.Count())
		}
		return result, nil
	}
	return nil, infraErr(storage.ErrVersionMismatch, "failed to save submission for event %s after %d attempts", input.EventID, casRetries)
}

// notifyOrganizerFull tells the organizer the event just filled up.
// Best-effort: a delivery failure is logged, never surfaced to the
// submitting participant.
func (s *Service) notifyOrganizerFull(ctx context.Context, event *models.Event, count int) {
	if s.organizerEmail == "" {
		return
	}
	err := s.mailer.Send(ctx, mailer.Message{
		To:       s.organizerEmail,
		Subject:  mailer.CapacityReachedSubject,
		HTMLBody: mailer.CapacityReachedBody(event.Name, count),
	})
	if err != nil {
		slog.Warn("Failed to notify organizer of full event",
			"event_id", event.ID, "error", err)
		return
	}
	slog.Info("Organizer notified of full event", "event_id", event.ID)
}

// DeleteParticipant removes a participant before the draw and renumbers the
// remainder so ids stay dense 1..N in the original order.
func (s *Service) DeleteParticipant(ctx context.Context, eventID string, participantID int) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		_, data, version, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if data.DrawCompleted {
			return conflictErr("event %s has already drawn; participants can no longer be removed", eventID)
		}
		if data.FindByID(participantID) == nil {
			return notFoundErr("participant %d does not exist in event %s", participantID, eventID)
		}

		remaining := make([]models.Participant, 0, data.Count()-1)
		for _, p := range data.Participants {
			if p.ID != participantID {
				remaining = append(remaining, p)
			}
		}
		data.Participants = remaining
		data.Renumber()

		err = s.store.PutEventData(ctx, eventID, data, version)
		if errors.Is(err, storage.ErrVersionMismatch) {
			continue
		}
		if err != nil {
			return infraErr(err, "failed to remove participant from event %s", eventID)
		}

		slog.Info("Participant removed",
			"event_id", eventID,
			"participant_id", participantID,
			"remaining", data.Count(),
		)
		return nil
	}
	return infraErr(storage.ErrVersionMismatch, "failed to remove participant from event %s after %d attempts", eventID, casRetries)
}
