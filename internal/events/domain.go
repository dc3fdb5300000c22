package events

import "time"

// Registration statuses form a closed set.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Event is a university event looking for volunteers.
type Event struct {
	ID               int64
	Title            string
	Description      string
	Date             time.Time
	Location         string
	VolunteersNeeded int
	ImageName        string
	CreatedAt        time.Time

	// AcceptedCount is filled by listing queries.
	AcceptedCount int
}

// IsFull reports whether the volunteer quota is reached.
func (e Event) IsFull() bool {
	return e.AcceptedCount >= e.VolunteersNeeded
}

// Registration is a volunteer application for an event.
type Registration struct {
	ID          int64
	EventID     int64
	UserID      int64
	ContactInfo string
	Status      string
	CreatedAt   time.Time

	// VolunteerName is filled by listing queries.
	VolunteerName string
}

// ValidStatus reports whether s belongs to the closed status set.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}
