package models

type ReminderPayload struct {
	ID            string `json:"id"`            // userId or doctorId
	ReservationID string `json:"reservationId"` // appointment being reminded about
	Title         string `json:"title"`
	Body          string `json:"body"`
	FireDate      string `json:"fireDate"`
	Target        string `json:"target"` // "user" or "doctor"
}
