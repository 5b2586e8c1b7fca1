package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paulcherng/SecretSantaPlatform/internal/models"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
)

// CreateEventInput is the organizer's configuration for a new event.
type CreateEventInput struct {
	Name               string
	GiftAmount         string
	SubmissionDeadline string
	Date               string
	Location           string
	Notes              string
	Groups             []models.Group
}

// CreateEvent validates the configuration, assigns an id, and stores the
// event with an empty participant record. Events are immutable once created.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationErr("event name is required")
	}
	if len(input.Groups) == 0 {
		return nil, validationErr("at least one group is required")
	}
	seen := make(map[int]bool, len(input.Groups))
	for _, g := range input.Groups {
		if g.Name == "" {
			return nil, validationErr("group %d: name is required", g.ID)
		}
		if g.Limit < 1 {
			return nil, validationErr("group %q: limit must be at least 1", g.Name)
		}
		if seen[g.ID] {
			return nil, validationErr("duplicate group id %d", g.ID)
		}
		seen[g.ID] = true
	}

	giftAmount := strings.TrimSpace(input.GiftAmount)
	if giftAmount == "" {
		giftAmount = "未設定"
	}

	event := &models.Event{
		ID:                 newEventID(),
		Name:               name,
		GiftAmount:         giftAmount,
		SubmissionDeadline: input.SubmissionDeadline,
		Date:               input.Date,
		Location:           input.Location,
		Notes:              input.Notes,
		Groups:             input.Groups,
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, infraErr(err, "failed to create event")
	}

	slog.Info("Event created",
		"event_id", event.ID,
		"name", event.Name,
		"groups", len(event.Groups),
		"capacity", event.TotalCapacity(),
	)
	return event, nil
}

// newEventID generates an opaque event id like "evt_9f2c1a7d3b".
func newEventID() string {
	compact := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("evt_%s", compact[:10])
}

// DeleteEvent removes the event, its data, and its index entry atomically.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	exists, err := s.store.EventExists(ctx, eventID)
	if err != nil {
		return infraErr(err, "failed to check event %s", eventID)
	}
	if !exists {
		return notFoundErr("event %s does not exist", eventID)
	}

	if err := s.store.DeleteEvent(ctx, eventID); err != nil {
		return infraErr(err, "failed to delete event %s", eventID)
	}

	slog.Info("Event deleted", "event_id", eventID)
	return nil
}

// ResetEventData clears the participant list and both lifecycle flags,
// returning the event to an empty open state. The configuration is kept.
// Available in any state; destructive to participant data.
func (s *Service) ResetEventData(ctx context.Context, eventID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		_, _, version, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}

		empty := &models.EventData{Participants: []models.Participant{}}
		err = s.store.PutEventData(ctx, eventID, empty, version)
		if errors.Is(err, storage.ErrVersionMismatch) {
			continue
		}
		if err != nil {
			return infraErr(err, "failed to reset event %s", eventID)
		}

		slog.Info("Event data reset", "event_id", eventID)
		return nil
	}
	return infraErr(storage.ErrVersionMismatch, "failed to reset event %s after %d attempts", eventID, casRetries)
}

// PublicConfig returns the publicly visible configuration of an event.
func (s *Service) PublicConfig(ctx context.Context, eventID string) (*models.PublicConfig, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	event, err := s.store.GetEvent(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFoundErr("event %s does not exist", eventID)
	}
	if err != nil {
		return nil, infraErr(err, "failed to load event %s", eventID)
	}
	public := event.Public()
	return &public, nil
}

// Status is the public view of an event's progress.
type Status struct {
	State       string      `json:"state"` // open, full, drawn, notified
	Count       int         `json:"count"`
	Capacity    int         `json:"capacity"`
	GroupCounts map[int]int `json:"groupStatus"`
}

// FullStatus is the admin view: Status plus the participant list and flags.
type FullStatus struct {
	Status
	DrawCompleted bool                 `json:"draw_completed"`
	EmailsSent    bool                 `json:"emails_sent"`
	Participants  []models.Participant `json:"participants"`
}

// EventStatus returns the public status: participant count, capacity, and
// per-group counts.
func (s *Service) EventStatus(ctx context.Context, eventID string) (*Status, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	event, data, _, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	status := buildStatus(event, data)
	return &status, nil
}

// EventFullStatus returns the admin status, including the participant list
// and both lifecycle flags.
func (s *Service) EventFullStatus(ctx context.Context, eventID string) (*FullStatus, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	event, data, _, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &FullStatus{
		Status:        buildStatus(event, data),
		DrawCompleted: data.DrawCompleted,
		EmailsSent:    data.EmailsSent,
		Participants:  data.Participants,
	}, nil
}

// ListEvents returns every event's configuration, newest first.
func (s *Service) ListEvents(ctx context.Context) ([]*models.Event, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	ids, err := s.store.ListEventIDs(ctx)
	if err != nil {
		return nil, infraErr(err, "failed to list events")
	}

	events := make([]*models.Event, 0, len(ids))
	for _, id := range ids {
		event, err := s.store.GetEvent(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			// Index entry without a config should not happen (deletes are
			// atomic), but a dangling id must not break the listing.
			slog.Warn("Event in index has no config", "event_id", id)
			continue
		}
		if err != nil {
			return nil, infraErr(err, "failed to load event %s", id)
		}
		events = append(events, event)
	}
	return events, nil
}

// loadEvent fetches an event and its data record, translating storage
// errors into service errors.
func (s *Service) loadEvent(ctx context.Context, eventID string) (*models.Event, *models.EventData, int64, error) {
	event, data, version, err := s.store.GetEventWithData(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, 0, notFoundErr("event %s does not exist", eventID)
	}
	if err != nil {
		return nil, nil, 0, infraErr(err, "failed to load event %s", eventID)
	}
	return event, data, version, nil
}

func buildStatus(event *models.Event, data *models.EventData) Status {
	return Status{
		State:       lifecycleState(event, data),
		Count:       data.Count(),
		Capacity:    event.TotalCapacity(),
		GroupCounts: data.GroupCounts(),
	}
}

// lifecycleState derives the state name. "full" is informational, never
// persisted: it is simply an open event at capacity.
func lifecycleState(event *models.Event, data *models.EventData) string {
	switch {
	case data.EmailsSent:
		return "notified"
	case data.DrawCompleted:
		return "drawn"
	case data.Count() >= event.TotalCapacity():
		return "full"
	default:
		return "open"
	}
}
