package booking

import (
	"context"
	"fmt"

	"bettermind/models"
	"bettermind/services/availability"
	"bettermind/services/calendar"

	"go.uber.org/zap"
)

// Mirror operations.
const (
	MirrorCreate = "create"
	MirrorUpdate = "update"
	MirrorDelete = "delete"
)

// MirrorResult reports the outcome of replicating a reservation change to the
// doctor's external calendar. It never affects the local commit.
type MirrorResult struct {
	Op        string
	Attempted bool
	EventID   string
	Err       error
}

// OK reports whether the mirror step was skipped or succeeded.
func (m MirrorResult) OK() bool { return m.Err == nil }

// Status is a short label for API responses.
func (m MirrorResult) Status() string {
	switch {
	case !m.Attempted:
		return "skipped"
	case m.Err != nil:
		return "failed"
	default:
		return "synced"
	}
}

// Mirror replicates reservations onto doctors' external calendars.
type Mirror struct {
	Tokens   availability.TokenSource
	Calendar calendar.Provider
	Logger   *zap.Logger
}

func (m *Mirror) eventSpec(doctor *models.Doctor, res *models.Reservation) calendar.EventSpec {
	desc := "Appointment booked through BetterMind."
	if res.Notes != "" {
		desc += "\n\n" + res.Notes
	}
	return calendar.EventSpec{
		Summary:     fmt.Sprintf("Patient appointment with %s", doctor.Name),
		Description: desc,
		Start:       res.DateTime,
		End:         res.DateTime.Add(availability.SlotLength),
	}
}

// Create adds an event for res to the doctor's calendar.
func (m *Mirror) Create(ctx context.Context, doctor *models.Doctor, res *models.Reservation) MirrorResult {
	result := MirrorResult{Op: MirrorCreate, Attempted: true}
	token, err := m.Tokens.EnsureValid(ctx, doctor)
	if err != nil {
		result.Err = err
		return m.logged(result, res)
	}
	result.EventID, result.Err = m.Calendar.CreateEvent(ctx, token, doctor.CalendarID, m.eventSpec(doctor, res))
	return m.logged(result, res)
}

// Update moves the mirrored event of res to its current time.
func (m *Mirror) Update(ctx context.Context, doctor *models.Doctor, res *models.Reservation) MirrorResult {
	result := MirrorResult{Op: MirrorUpdate, Attempted: true, EventID: res.ExternalEventID}
	token, err := m.Tokens.EnsureValid(ctx, doctor)
	if err != nil {
		result.Err = err
		return m.logged(result, res)
	}
	eventID, err := m.Calendar.UpdateEvent(ctx, token, doctor.CalendarID, res.ExternalEventID, m.eventSpec(doctor, res))
	if err != nil {
		result.Err = err
	} else if eventID != "" {
		result.EventID = eventID
	}
	return m.logged(result, res)
}

// Delete removes the mirrored event of res.
func (m *Mirror) Delete(ctx context.Context, doctor *models.Doctor, res *models.Reservation) MirrorResult {
	result := MirrorResult{Op: MirrorDelete, Attempted: true, EventID: res.ExternalEventID}
	token, err := m.Tokens.EnsureValid(ctx, doctor)
	if err != nil {
		result.Err = err
		return m.logged(result, res)
	}
	result.Err = m.Calendar.DeleteEvent(ctx, token, doctor.CalendarID, res.ExternalEventID)
	return m.logged(result, res)
}

func (m *Mirror) logged(result MirrorResult, res *models.Reservation) MirrorResult {
	if result.Err != nil {
		m.Logger.Warn("calendar mirror failed",
			zap.String("op", result.Op),
			zap.String("reservationID", res.ID),
			zap.String("doctorID", res.DoctorID),
			zap.Error(result.Err))
	}
	return result
}
