package models

import "time"

// Reservation lifecycle states.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// ActiveStatuses are the statuses that occupy a doctor's slot.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Reservation represents a booked appointment between a patient and a doctor.
type Reservation struct {
	ID              string    `bson:"id" json:"id"`
	UserID          string    `bson:"userId" json:"userId"`     // patient who booked
	DoctorID        string    `bson:"doctorId" json:"doctorId"` // doctor being booked
	DateTime        time.Time `bson:"dateTime" json:"dateTime"` // start instant, duration is one slot
	Status          string    `bson:"status" json:"status"`
	ExternalEventID string    `bson:"externalEventId,omitempty" json:"externalEventId,omitempty"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the reservation still holds its slot.
func (r *Reservation) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// ValidStatus reports whether s is a known reservation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}
