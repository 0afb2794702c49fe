package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// HoldStatus is the slot-hold state machine. The only legal transitions are
// active -> expired and active -> converted.
type HoldStatus string

const (
	HoldActive    HoldStatus = "active"
	HoldExpired   HoldStatus = "expired"
	HoldConverted HoldStatus = "converted"
)

// Hold is an ephemeral exclusive reservation of a consultant interval,
// pending payment confirmation.
type Hold struct {
	ID           uuid.UUID  `json:"id"`
	ConsultantID uuid.UUID  `json:"consultant_id"`
	ClientID     uuid.UUID  `json:"client_id"`
	Interval     Interval   `json:"interval"`
	Status       HoldStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// Overdue reports whether the hold's expiry instant has passed.
func (h Hold) Overdue(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// AppointmentStatus is the durable appointment lifecycle.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Appointment is a durable booking, created only by converting a hold.
type Appointment struct {
	ID           uuid.UUID         `json:"id"`
	ConsultantID uuid.UUID         `json:"consultant_id"`
	ClientID     uuid.UUID         `json:"client_id"`
	Interval     Interval          `json:"interval"`
	Status       AppointmentStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}
