package models

import "time"

// TimeSlot is a bookable half-open window [Start, End).
type TimeSlot struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// Duration returns the slot length.
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// BusyInterval is time reported by an external calendar as unavailable.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailableSlotsResult is what the slots endpoint returns to callers.
type AvailableSlotsResult struct {
	DoctorID          string     `json:"doctorId"`
	Date              string     `json:"date"`
	Slots             []TimeSlot `json:"slots"`
	AvailabilityError string     `json:"availabilityError,omitempty"`
}
