package notify

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a workflow state change worth telling humans about.
type EventType string

const (
	EventDonationRecorded EventType = "DONATION_RECORDED"
	EventRequestCreated   EventType = "REQUEST_CREATED"
	EventRequestApproved  EventType = "REQUEST_APPROVED"
	EventRequestRejected  EventType = "REQUEST_REJECTED"
	EventExpiringSoon     EventType = "EXPIRING_SOON"
)

// Party is a notification target resolved at emit time, so sinks never
// go back to the database.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event is an immutable snapshot of a committed workflow change. The
// engine emits events only after the transaction is durable; an event
// always describes state that exists.
type Event struct {
	Type         EventType `json:"type"`
	MedicineID   uuid.UUID `json:"medicine_id"`
	MedicineName string    `json:"medicine_name"`
	Quantity     int       `json:"quantity"`
	ExpiryDate   time.Time `json:"expiry_date"`
	DaysLeft     int       `json:"days_left,omitempty"`
	Donor        *Party    `json:"donor,omitempty"`
	Recipient    *Party    `json:"recipient,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
