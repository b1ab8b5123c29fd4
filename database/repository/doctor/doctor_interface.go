package doctorRepo

import (
	"context"
	"errors"

	"bettermind/models"
)

// ErrNotFound is returned when no doctor matches the lookup.
var ErrNotFound = errors.New("doctor not found")

// DoctorRepository defines methods for doctor data access.
type DoctorRepository interface {
	// GetByID retrieves a doctor by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	// UpdateCalendarCredentials stores refreshed calendar tokens for a doctor.
	UpdateCalendarCredentials(ctx context.Context, id string, creds models.CalendarCredentials) error
}
