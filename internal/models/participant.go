package models

// Participant is one registrant within an event.
//
// IDs are sequential and dense: at any moment the participants of an event
// carry ids 1..N in list order. Deleting a participant renumbers the
// remainder to restore density.
type Participant struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"` // trimmed and lower-cased on submission
	GroupID int    `json:"group_id"`
	Wish    string `json:"wish"`

	// AssignedTo is the id of the participant this person gives a gift to.
	// Zero until the draw has run.
	AssignedTo int `json:"assigned_to,omitempty"`
}
