package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	doctorRepo "bettermind/database/repository/doctor"
	reservationRepo "bettermind/database/repository/reservation"
	"bettermind/models"
	"bettermind/services/availability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNotesLength = 2000

// CreateReservation books req.DateTime with the doctor if it is an available
// slot and no active reservation already holds it.
func (c *Coordinator) CreateReservation(ctx context.Context, req CreateRequest) (*Outcome, error) {
	if req.UserID == "" {
		return nil, newError(CodeInvalidInput, "requester is required", nil)
	}
	if req.DoctorID == "" || req.DateTime.IsZero() {
		return nil, newError(CodeInvalidInput, "doctorId and dateTime are required", nil)
	}
	if len(req.Notes) > maxNotesLength {
		return nil, newError(CodeInvalidInput, fmt.Sprintf("notes exceed %d characters", maxNotesLength), nil)
	}

	doctor, err := c.loadDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := c.checkBookable(ctx, doctor.ID, req.DateTime, ""); err != nil {
		return nil, err
	}

	now := c.Now().UTC()
	res := &models.Reservation{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		DoctorID:  doctor.ID,
		DateTime:  req.DateTime.UTC(),
		Status:    models.StatusConfirmed,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Reservations.Create(ctx, res); err != nil {
		return nil, storageError("failed to save reservation", err)
	}
	c.Logger.Info("reservation created",
		zap.String("reservationID", res.ID),
		zap.String("doctorID", res.DoctorID),
		zap.Time("dateTime", res.DateTime))

	outcome := &Outcome{Reservation: res, Mirror: MirrorResult{Op: MirrorCreate}}
	if req.MirrorExternally && c.Mirror != nil {
		outcome.Mirror = c.Mirror.Create(ctx, doctor, res)
		if outcome.Mirror.Err == nil && outcome.Mirror.EventID != "" {
			c.linkEvent(ctx, doctor, res, &outcome.Mirror)
		}
	}
	c.scheduleReminder(ctx, res)
	return outcome, nil
}

// UpdateReservation reschedules, annotates or cancels a reservation.
func (c *Coordinator) UpdateReservation(ctx context.Context, req UpdateRequest) (*Outcome, error) {
	res, err := c.loadOwned(ctx, req.ReservationID, req.RequesterID)
	if err != nil {
		return nil, err
	}
	if !res.IsActive() {
		return nil, newError(CodeAlreadyCancelled, "reservation is already cancelled", nil)
	}

	if req.Notes != nil {
		if len(*req.Notes) > maxNotesLength {
			return nil, newError(CodeInvalidInput, fmt.Sprintf("notes exceed %d characters", maxNotesLength), nil)
		}
		res.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Status != nil {
		switch *req.Status {
		case models.StatusCancelled:
			return c.cancel(ctx, res)
		case models.StatusConfirmed:
		default:
			return nil, newError(CodeInvalidInput, fmt.Sprintf("status %q cannot be set", *req.Status), nil)
		}
	}

	var doctor *models.Doctor
	rescheduled := req.DateTime != nil && !req.DateTime.Equal(res.DateTime)
	if rescheduled {
		if req.DateTime.IsZero() {
			return nil, newError(CodeInvalidInput, "dateTime must be set", nil)
		}
		doctor, err = c.loadDoctor(ctx, res.DoctorID)
		if err != nil {
			return nil, err
		}
		if err := c.checkBookable(ctx, doctor.ID, *req.DateTime, res.ID); err != nil {
			return nil, err
		}
		res.DateTime = req.DateTime.UTC()
	}

	res.Status = models.StatusConfirmed
	res.UpdatedAt = c.Now().UTC()
	if err := c.Reservations.Update(ctx, res); err != nil {
		return nil, storageError("failed to update reservation", err)
	}

	outcome := &Outcome{Reservation: res, Mirror: MirrorResult{Op: MirrorUpdate}}
	if rescheduled {
		c.Logger.Info("reservation rescheduled",
			zap.String("reservationID", res.ID), zap.Time("dateTime", res.DateTime))
		if res.ExternalEventID != "" && c.Mirror != nil {
			previous := res.ExternalEventID
			outcome.Mirror = c.Mirror.Update(ctx, doctor, res)
			if outcome.Mirror.Err == nil && outcome.Mirror.EventID != previous {
				c.linkEvent(ctx, doctor, res, &outcome.Mirror)
			}
		}
		c.scheduleReminder(ctx, res)
	}
	return outcome, nil
}

// CancelReservation soft-cancels a reservation. Cancelling twice fails.
func (c *Coordinator) CancelReservation(ctx context.Context, reservationID, requesterID string) (*Outcome, error) {
	res, err := c.loadOwned(ctx, reservationID, requesterID)
	if err != nil {
		return nil, err
	}
	if !res.IsActive() {
		return nil, newError(CodeAlreadyCancelled, "reservation is already cancelled", nil)
	}
	return c.cancel(ctx, res)
}

func (c *Coordinator) cancel(ctx context.Context, res *models.Reservation) (*Outcome, error) {
	outcome := &Outcome{Reservation: res, Mirror: MirrorResult{Op: MirrorDelete}}
	if res.ExternalEventID != "" && c.Mirror != nil {
		doctor, err := c.Doctors.GetByID(ctx, res.DoctorID)
		if err != nil {
			outcome.Mirror = MirrorResult{Op: MirrorDelete, Attempted: true, EventID: res.ExternalEventID, Err: err}
			c.Logger.Warn("calendar mirror skipped, doctor lookup failed",
				zap.String("reservationID", res.ID), zap.Error(err))
		} else {
			outcome.Mirror = c.Mirror.Delete(ctx, doctor, res)
		}
		if outcome.Mirror.Err == nil {
			res.ExternalEventID = ""
		}
	}

	res.Status = models.StatusCancelled
	res.UpdatedAt = c.Now().UTC()
	if err := c.Reservations.Update(ctx, res); err != nil {
		return nil, storageError("failed to cancel reservation", err)
	}
	c.Logger.Info("reservation cancelled", zap.String("reservationID", res.ID))
	return outcome, nil
}

// GetReservation returns a reservation visible to the requester.
func (c *Coordinator) GetReservation(ctx context.Context, reservationID, requesterID string) (*models.Reservation, error) {
	return c.loadOwned(ctx, reservationID, requesterID)
}

// ListReservations returns the requester's appointments. Doctors see the
// appointments booked with them, everyone else sees their own bookings.
func (c *Coordinator) ListReservations(ctx context.Context, requesterID, role string) ([]models.Reservation, error) {
	if requesterID == "" {
		return nil, newError(CodeInvalidInput, "requester is required", nil)
	}
	var (
		list []models.Reservation
		err  error
	)
	if role == "doctor" {
		list, err = c.Reservations.ListByDoctor(ctx, requesterID)
	} else {
		list, err = c.Reservations.ListByUser(ctx, requesterID)
	}
	if err != nil {
		return nil, storageError("failed to list reservations", err)
	}
	return list, nil
}

// checkBookable verifies dateTime is a currently available slot for the
// doctor and that no other active reservation holds it.
func (c *Coordinator) checkBookable(ctx context.Context, doctorID string, dateTime time.Time, excludeID string) error {
	slots, err := c.Availability.GetAvailableTimeSlots(ctx, doctorID, dateTime)
	if err != nil {
		switch {
		case errors.Is(err, doctorRepo.ErrNotFound):
			return newError(CodeNotFound, "doctor not found", err)
		case errors.Is(err, availability.ErrExternal):
			return newError(CodeExternalService, "doctor's calendar is unavailable, try again later", err)
		default:
			return storageError("failed to load availability", err)
		}
	}
	if !availability.ContainsStart(slots, dateTime) {
		return newError(CodeSlotUnavailable, "the requested time is not available", nil)
	}

	existing, err := c.Reservations.FindActiveAt(ctx, doctorID, dateTime, excludeID)
	switch {
	case errors.Is(err, reservationRepo.ErrNotFound):
		return nil
	case err != nil:
		return storageError("failed to check existing reservations", err)
	default:
		c.Logger.Info("booking conflict",
			zap.String("doctorID", doctorID),
			zap.String("existingReservationID", existing.ID),
			zap.Time("dateTime", dateTime))
		return newError(CodeConflict, "the doctor already has an appointment at this time", nil)
	}
}

func (c *Coordinator) loadDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	doctor, err := c.Doctors.GetByID(ctx, doctorID)
	if errors.Is(err, doctorRepo.ErrNotFound) {
		return nil, newError(CodeNotFound, "doctor not found", err)
	}
	if err != nil {
		return nil, storageError("failed to load doctor", err)
	}
	return doctor, nil
}

// loadOwned fetches a reservation the requester is a party to. Others get
// NotFound so reservation ids are not confirmed to outsiders.
func (c *Coordinator) loadOwned(ctx context.Context, reservationID, requesterID string) (*models.Reservation, error) {
	if reservationID == "" || requesterID == "" {
		return nil, newError(CodeInvalidInput, "reservation id and requester are required", nil)
	}
	res, err := c.Reservations.GetByID(ctx, reservationID)
	if errors.Is(err, reservationRepo.ErrNotFound) {
		return nil, newError(CodeNotFound, "reservation not found", err)
	}
	if err != nil {
		return nil, storageError("failed to load reservation", err)
	}
	if res.UserID != requesterID && res.DoctorID != requesterID {
		return nil, newError(CodeNotFound, "reservation not found", nil)
	}
	return res, nil
}

// linkEvent records the mirrored event id. If that write fails the event is
// removed again so no calendar entry is left without a reservation link.
func (c *Coordinator) linkEvent(ctx context.Context, doctor *models.Doctor, res *models.Reservation, result *MirrorResult) {
	if err := c.Reservations.SetExternalEventID(ctx, res.ID, result.EventID); err != nil {
		c.Logger.Warn("failed to link calendar event",
			zap.String("reservationID", res.ID), zap.String("eventID", result.EventID), zap.Error(err))
		orphan := *res
		orphan.ExternalEventID = result.EventID
		c.Mirror.Delete(ctx, doctor, &orphan)
		result.Err = err
		return
	}
	res.ExternalEventID = result.EventID
}

func (c *Coordinator) scheduleReminder(ctx context.Context, res *models.Reservation) {
	if c.Reminders == nil {
		return
	}
	if err := c.Reminders.ScheduleReminder(ctx, res); err != nil {
		c.Logger.Warn("failed to schedule reminder",
			zap.String("reservationID", res.ID), zap.Error(err))
	}
}

func storageError(msg string, err error) error {
	if errors.Is(err, reservationRepo.ErrDuplicateActive) {
		return newError(CodeConflict, "the doctor already has an appointment at this time", err)
	}
	if errors.Is(err, reservationRepo.ErrNotFound) {
		return newError(CodeNotFound, "reservation not found", err)
	}
	if errors.Is(err, reservationRepo.ErrNotActive) {
		return newError(CodeAlreadyCancelled, "reservation is already cancelled", err)
	}
	return newError(CodeStorage, msg, err)
}
