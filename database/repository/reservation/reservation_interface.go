package reservationRepo

import (
	"context"
	"errors"
	"time"

	"bettermind/models"
)

var (
	// ErrNotFound is returned when no reservation matches the lookup.
	ErrNotFound = errors.New("reservation not found")
	// ErrDuplicateActive is returned when a write would leave two active
	// reservations on the same doctor and instant.
	ErrDuplicateActive = errors.New("active reservation already exists for doctor at this time")
	// ErrNotActive is returned when a write targets a reservation that has
	// already been cancelled.
	ErrNotActive = errors.New("reservation is no longer active")
)

// ReservationRepository defines methods for reservation data access.
type ReservationRepository interface {
	// Create inserts a new reservation.
	Create(ctx context.Context, r *models.Reservation) error
	// GetByID retrieves a reservation by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	// FindActiveAt returns the active reservation for a doctor at an exact
	// instant, ignoring excludeID. Returns ErrNotFound when the slot is free.
	FindActiveAt(ctx context.Context, doctorID string, dateTime time.Time, excludeID string) (*models.Reservation, error)
	// Update replaces the mutable fields of a reservation that is still
	// active. Returns ErrNotActive if it was cancelled in the meantime.
	Update(ctx context.Context, r *models.Reservation) error
	// SetExternalEventID links a reservation to its mirrored calendar event.
	SetExternalEventID(ctx context.Context, id, eventID string) error
	// ListByUser returns a patient's reservations, newest appointment first.
	ListByUser(ctx context.Context, userID string) ([]models.Reservation, error)
	// ListByDoctor returns a doctor's reservations, newest appointment first.
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Reservation, error)
}
