package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	doctorRepo "bettermind/database/repository/doctor"
	"bettermind/models"
	"bettermind/services/calendar"
	"bettermind/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrExternal wraps failures of the external calendar, including credentials
// that are missing or could not be refreshed.
var ErrExternal = errors.New("external calendar error")

// TokenSource yields a valid calendar token for a doctor.
type TokenSource interface {
	EnsureValid(ctx context.Context, doctor *models.Doctor) (*oauth2.Token, error)
}

// Service computes bookable slots for a doctor on a day.
type Service interface {
	GetAvailableTimeSlots(ctx context.Context, doctorID string, date time.Time) ([]models.TimeSlot, error)
}

// Resolver combines the working-hours template with the doctor's busy time.
type Resolver struct {
	Doctors   doctorRepo.DoctorRepository
	Tokens    TokenSource
	Calendar  calendar.Provider
	Cache     SlotCache
	Location  *time.Location
	WorkStart int
	WorkEnd   int
	Logger    *zap.Logger
}

// NewResolver wires a resolver with a 09:00-17:00 working day in loc.
func NewResolver(
	doctors doctorRepo.DoctorRepository,
	tokens TokenSource,
	cal calendar.Provider,
	cache SlotCache,
	loc *time.Location,
) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		Doctors:   doctors,
		Tokens:    tokens,
		Calendar:  cal,
		Cache:     cache,
		Location:  loc,
		WorkStart: 9,
		WorkEnd:   17,
		Logger:    utils.GetLogger(),
	}
}

// GetAvailableTimeSlots returns the free one-hour slots for doctorID on the
// calendar day of date. Results are served from the cache while fresh.
func (r *Resolver) GetAvailableTimeSlots(ctx context.Context, doctorID string, date time.Time) ([]models.TimeSlot, error) {
	key := CacheKey(doctorID, date, r.Location)
	return GetOrCompute(ctx, r.Cache, key, r.Logger, func(ctx context.Context) ([]models.TimeSlot, error) {
		return r.compute(ctx, doctorID, date)
	})
}

func (r *Resolver) compute(ctx context.Context, doctorID string, date time.Time) ([]models.TimeSlot, error) {
	doctor, err := r.Doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	token, err := r.Tokens.EnsureValid(ctx, doctor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternal, err)
	}

	dayStart, dayEnd := DayBounds(date, r.Location)
	busy, err := r.Calendar.QueryBusy(ctx, token, doctor.CalendarID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternal, err)
	}

	candidates := GenerateCandidateSlots(date, r.Location, r.WorkStart, r.WorkEnd)
	free := FilterBusy(candidates, busy)

	r.Logger.Debug("computed availability",
		zap.String("doctorID", doctorID),
		zap.String("date", dayStart.Format("2006-01-02")),
		zap.Int("busy", len(busy)),
		zap.Int("free", len(free)))
	return free, nil
}
