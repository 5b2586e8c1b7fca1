package models

import "time"

// Group is one capacity bucket within an event. Participants in the same
// group are mutually excluded from being assigned to each other.
type Group struct {
	// ID is unique within the owning event.
	ID int `json:"id"`

	// Name is the display name (e.g. "行銷部", "Engineering").
	Name string `json:"name"`

	// Limit is the maximum number of participants in this group (>= 1).
	Limit int `json:"limit"`
}

// Event is the immutable configuration of one gift exchange. There is no
// update operation: once created, an event can only be deleted or have its
// participant data reset.
type Event struct {
	// ID is the opaque event identifier (e.g. "evt_9f2c1a7d").
	ID string `json:"id"`

	// Name is the display name of the exchange.
	Name string `json:"eventName"`

	// GiftAmount is a free-form budget label shown in notifications
	// (e.g. "NT$500").
	GiftAmount string `json:"giftAmount"`

	// SubmissionDeadline is an optional free-form deadline label.
	SubmissionDeadline string `json:"submissionDeadline,omitempty"`

	// Date, Location and Notes are optional event metadata shown on the
	// public page and in notifications.
	Date     string `json:"eventDate,omitempty"`
	Location string `json:"eventLocation,omitempty"`
	Notes    string `json:"eventNotes,omitempty"`

	// Groups is the ordered group configuration. The sum of the group
	// limits is the event's total capacity.
	Groups []Group `json:"groups"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// TotalCapacity returns the sum of all group limits.
func (e *Event) TotalCapacity() int {
	total := 0
	for _, g := range e.Groups {
		total += g.Limit
	}
	return total
}

// GroupByID returns the group with the given id, or nil if the event has no
// such group.
func (e *Event) GroupByID(id int) *Group {
	for i := range e.Groups {
		if e.Groups[i].ID == id {
			return &e.Groups[i]
		}
	}
	return nil
}

// PublicConfig is the subset of an event's configuration exposed without
// admin credentials.
type PublicConfig struct {
	Name       string  `json:"eventName"`
	GiftAmount string  `json:"giftAmount"`
	Date       string  `json:"eventDate,omitempty"`
	Location   string  `json:"eventLocation,omitempty"`
	Notes      string  `json:"eventNotes,omitempty"`
	Groups     []Group `json:"groups"`
}

// Public returns the publicly visible view of the event configuration.
func (e *Event) Public() PublicConfig {
	return PublicConfig{
		Name:       e.Name,
		GiftAmount: e.GiftAmount,
		Date:       e.Date,
		Location:   e.Location,
		Notes:      e.Notes,
		Groups:     e.Groups,
	}
}
