package shared

import (
	"time"

	"parcel-booking/internal/domain/booking"

	"github.com/google/uuid"
)

// Provenance identifies the staging context a booking was materialized from.
// An empty UserID matches any owner.
type Provenance struct {
	Reference string
	UserID    string
	Fare      booking.Money
}

func ProvenanceOf(staged *booking.StagedBooking) Provenance {
	return Provenance{
		Reference: staged.Reference().String(),
		UserID:    staged.UserID(),
		Fare:      staged.Fare(),
	}
}

type BookingState struct {
	Status        booking.Status
	PaymentStatus booking.PaymentStatus
}

func StateOf(b *booking.Booking) BookingState {
	return BookingState{Status: b.Status(), PaymentStatus: b.PaymentStatus()}
}

const (
	JobStatusQueued     = "queued"
	JobStatusSent       = "sent"
	JobStatusFailed     = "failed"
	JobKindBookingPaid  = "booking_paid"
	JobTopicBookingPaid = "booking.paid"
)

type NotificationJob struct {
	ID       uuid.UUID
	Kind     string
	Topic    string
	Payload  []byte
	Attempts int
	RunAt    time.Time
}

// BookingPaidPayload is the outbox payload written when a booking transitions to paid.
type BookingPaidPayload struct {
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	Tracking  string `json:"tracking_number"`
	Fare      string `json:"fare"`
}
