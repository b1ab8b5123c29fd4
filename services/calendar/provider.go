package calendar

import (
	"context"
	"errors"
	"time"

	"bettermind/models"

	"golang.org/x/oauth2"
)

// ErrCalendarUnavailable marks failures to obtain usable calendar credentials.
var ErrCalendarUnavailable = errors.New("calendar unavailable")

// EventSpec describes an event mirrored onto a doctor's calendar.
type EventSpec struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Provider is the external calendar the scheduler reads busy time from and
// mirrors appointments to.
type Provider interface {
	QueryBusy(ctx context.Context, token *oauth2.Token, calendarID string, start, end time.Time) ([]models.BusyInterval, error)
	CreateEvent(ctx context.Context, token *oauth2.Token, calendarID string, spec EventSpec) (string, error)
	UpdateEvent(ctx context.Context, token *oauth2.Token, calendarID, eventID string, spec EventSpec) (string, error)
	DeleteEvent(ctx context.Context, token *oauth2.Token, calendarID, eventID string) error
}
