package models

// EventData is the mutable per-event record. Earlier deployments stored two
// distinct shapes (a bare participant array before the draw, a flagged
// object after); this struct is the single explicit form, with the legacy
// array shape accepted only when decoding at the store boundary.
type EventData struct {
	DrawCompleted bool          `json:"draw_completed"`
	EmailsSent    bool          `json:"emails_sent"`
	Participants  []Participant `json:"participants"`
}

// Count returns the number of participants.
func (d *EventData) Count() int {
	return len(d.Participants)
}

// GroupCounts returns the number of participants per group id.
func (d *EventData) GroupCounts() map[int]int {
	counts := make(map[int]int)
	for _, p := range d.Participants {
		counts[p.GroupID]++
	}
	return counts
}

// FindByEmailAndGroup returns the participant with the given normalized
// email and group id, or nil.
func (d *EventData) FindByEmailAndGroup(email string, groupID int) *Participant {
	for i := range d.Participants {
		if d.Participants[i].Email == email && d.Participants[i].GroupID == groupID {
			return &d.Participants[i]
		}
	}
	return nil
}

// FindByID returns the participant with the given id, or nil.
func (d *EventData) FindByID(id int) *Participant {
	for i := range d.Participants {
		if d.Participants[i].ID == id {
			return &d.Participants[i]
		}
	}
	return nil
}

// Renumber restores the dense 1..N id sequence after a removal, preserving
// list order.
func (d *EventData) Renumber() {
	for i := range d.Participants {
		d.Participants[i].ID = i + 1
	}
}
