package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulcherng/SecretSantaPlatform/internal/models"
)

// Key schema, shared with earlier deployments of the platform:
//
//	event:{id}:config  immutable event configuration
//	event:{id}:data    mutable participant record
//	events_index       ordered list of all event ids, newest first
const eventsIndexKey = "events_index"

func configKey(eventID string) string {
	return fmt.Sprintf("event:%s:config", eventID)
}

func dataKey(eventID string) string {
	return fmt.Sprintf("event:%s:data", eventID)
}

// EventStore persists events and their participant data on a KV store. It
// owns the key schema, the JSON encoding, and the shape validation of the
// data record; everything above it works with typed models only.
type EventStore struct {
	kv KV
}

// NewEventStore creates an EventStore on the given KV backend.
func NewEventStore(kv KV) *EventStore {
	return &EventStore{kv: kv}
}

// Close closes the underlying KV store.
func (s *EventStore) Close() error {
	return s.kv.Close()
}

// Ping verifies the backend is reachable.
func (s *EventStore) Ping(ctx context.Context) error {
	_, err := s.kv.Exists(ctx, eventsIndexKey)
	return err
}

// CreateEvent stores a new event configuration, an empty data record, and
// the index entry in one atomic transaction.
func (s *EventStore) CreateEvent(ctx context.Context, event *models.Event) error {
	config, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event config: %w", err)
	}
	data, err := json.Marshal(&models.EventData{Participants: []models.Participant{}})
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	tx, err := s.kv.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tx.Set(configKey(event.ID), config)
	tx.Set(dataKey(event.ID), data)
	tx.ListPrepend(eventsIndexKey, event.ID)

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to create event %s: %w", event.ID, err)
	}
	return nil
}

// DeleteEvent removes the configuration, the data record, and the index
// entry in one atomic transaction.
func (s *EventStore) DeleteEvent(ctx context.Context, eventID string) error {
	tx, err := s.kv.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tx.Delete(configKey(eventID))
	tx.Delete(dataKey(eventID))
	tx.ListRemove(eventsIndexKey, eventID)

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

// EventExists reports whether an event configuration is stored.
func (s *EventStore) EventExists(ctx context.Context, eventID string) (bool, error) {
	return s.kv.Exists(ctx, configKey(eventID))
}

// GetEvent retrieves an event configuration. Returns ErrNotFound if the
// event does not exist.
func (s *EventStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	value, err := s.kv.Get(ctx, configKey(eventID))
	if err != nil {
		return nil, err
	}
	event := &models.Event{}
	if err := json.Unmarshal(value.Data, event); err != nil {
		return nil, fmt.Errorf("corrupt config for event %s: %w", eventID, err)
	}
	return event, nil
}

// GetEventWithData retrieves the configuration and the data record together,
// returning the data record's version for use with PutEventData.
func (s *EventStore) GetEventWithData(ctx context.Context, eventID string) (*models.Event, *models.EventData, int64, error) {
	values, err := s.kv.MultiGet(ctx, configKey(eventID), dataKey(eventID))
	if err != nil {
		return nil, nil, 0, err
	}

	configValue, ok := values[configKey(eventID)]
	if !ok {
		return nil, nil, 0, ErrNotFound
	}
	event := &models.Event{}
	if err := json.Unmarshal(configValue.Data, event); err != nil {
		return nil, nil, 0, fmt.Errorf("corrupt config for event %s: %w", eventID, err)
	}

	// The data key is written alongside the config, but tolerate its
	// absence: treat it as an empty record.
	dataValue, ok := values[dataKey(eventID)]
	if !ok {
		return event, &models.EventData{Participants: []models.Participant{}}, 0, nil
	}
	data, err := decodeEventData(dataValue.Data)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("event %s: %w", eventID, err)
	}
	return event, data, dataValue.Version, nil
}

// PutEventData writes the data record, guarded by the version returned from
// GetEventWithData. A concurrent writer surfaces as ErrVersionMismatch.
func (s *EventStore) PutEventData(ctx context.Context, eventID string, data *models.EventData, expectedVersion int64) error {
	if err := validateEventData(data); err != nil {
		return fmt.Errorf("event %s: %w", eventID, err)
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	tx, err := s.kv.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tx.SetVersioned(dataKey(eventID), encoded, expectedVersion)
	return tx.Commit(ctx)
}

// ListEventIDs returns all event ids, newest first.
func (s *EventStore) ListEventIDs(ctx context.Context) ([]string, error) {
	return s.kv.ListRange(ctx, eventsIndexKey, 0, -1)
}

// decodeEventData decodes a stored data record. Earlier deployments stored a
// bare participant array before the draw; both shapes decode into the single
// flagged form, and the flags are checked for consistency so a corrupt
// record is rejected at the boundary instead of misbehaving later.
func decodeEventData(raw []byte) (*models.EventData, error) {
	trimmed := bytes.TrimSpace(raw)
	data := &models.EventData{}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &data.Participants); err != nil {
			return nil, fmt.Errorf("corrupt participant list: %w", err)
		}
	} else {
		if err := json.Unmarshal(trimmed, data); err != nil {
			return nil, fmt.Errorf("corrupt data record: %w", err)
		}
	}
	if data.Participants == nil {
		data.Participants = []models.Participant{}
	}

	if err := validateEventData(data); err != nil {
		return nil, err
	}
	return data, nil
}

// validateEventData enforces the record invariants: flags may only progress
// open -> drawn -> notified, and participant ids must be dense 1..N.
func validateEventData(data *models.EventData) error {
	if data.EmailsSent && !data.DrawCompleted {
		return fmt.Errorf("invalid data record: emails_sent without draw_completed")
	}
	for i, p := range data.Participants {
		if p.ID != i+1 {
			return fmt.Errorf("invalid data record: participant at index %d has id %d, want %d", i, p.ID, i+1)
		}
	}
	return nil
}
