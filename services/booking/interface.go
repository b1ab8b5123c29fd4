package booking

import (
	"context"
	"time"

	doctorRepo "bettermind/database/repository/doctor"
	reservationRepo "bettermind/database/repository/reservation"
	"bettermind/models"
	"bettermind/services/availability"
	"bettermind/utils"

	"go.uber.org/zap"
)

// BookingService is the caller-facing contract for appointments.
type BookingService interface {
	CreateReservation(ctx context.Context, req CreateRequest) (*Outcome, error)
	UpdateReservation(ctx context.Context, req UpdateRequest) (*Outcome, error)
	CancelReservation(ctx context.Context, reservationID, requesterID string) (*Outcome, error)
	GetReservation(ctx context.Context, reservationID, requesterID string) (*models.Reservation, error)
	ListReservations(ctx context.Context, requesterID, role string) ([]models.Reservation, error)
}

// ReminderScheduler queues an appointment reminder. Failures are not fatal.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, res *models.Reservation) error
}

// CreateRequest asks for a new appointment.
type CreateRequest struct {
	UserID           string
	DoctorID         string
	DateTime         time.Time
	Notes            string
	MirrorExternally bool
}

// UpdateRequest changes an appointment. Nil fields are left alone.
type UpdateRequest struct {
	ReservationID string
	RequesterID   string
	DateTime      *time.Time
	Notes         *string
	Status        *string
}

// Outcome is a committed reservation plus the result of mirroring it.
type Outcome struct {
	Reservation *models.Reservation
	Mirror      MirrorResult
}

// Coordinator implements BookingService.
type Coordinator struct {
	Reservations reservationRepo.ReservationRepository
	Doctors      doctorRepo.DoctorRepository
	Availability availability.Service
	Mirror       *Mirror
	Reminders    ReminderScheduler
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewCoordinator wires a Coordinator. reminders may be nil.
func NewCoordinator(
	reservations reservationRepo.ReservationRepository,
	doctors doctorRepo.DoctorRepository,
	avail availability.Service,
	mirror *Mirror,
	reminders ReminderScheduler,
) *Coordinator {
	logger := utils.GetLogger()
	if mirror != nil && mirror.Logger == nil {
		mirror.Logger = logger
	}
	return &Coordinator{
		Reservations: reservations,
		Doctors:      doctors,
		Availability: avail,
		Mirror:       mirror,
		Reminders:    reminders,
		Logger:       logger,
		Now:          time.Now,
	}
}
