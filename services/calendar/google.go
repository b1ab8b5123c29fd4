package calendar

import (
	"context"
	"fmt"
	"time"

	"bettermind/models"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleProvider talks to the Google Calendar v3 API on behalf of a doctor.
type GoogleProvider struct {
	timeout time.Duration
	opts    []option.ClientOption
}

// NewGoogleProvider builds a provider whose calls are bounded by timeout.
// Extra client options are appended to every service (endpoint overrides, test clients).
func NewGoogleProvider(timeout time.Duration, opts ...option.ClientOption) *GoogleProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleProvider{timeout: timeout, opts: opts}
}

func (p *GoogleProvider) service(ctx context.Context, token *oauth2.Token) (*gcal.Service, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}, p.opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return svc, nil
}

func (p *GoogleProvider) QueryBusy(ctx context.Context, token *oauth2.Token, calendarID string, start, end time.Time) ([]models.BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	svc, err := p.service(ctx, token)
	if err != nil {
		return nil, err
	}

	req := &gcal.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339Nano),
		TimeMax: end.Format(time.RFC3339Nano),
		Items:   []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}
	resp, err := svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("free/busy query for calendar %s failed: %w", calendarID, err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("free/busy response missing calendar %s", calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("free/busy query for calendar %s failed: %s", calendarID, cal.Errors[0].Reason)
	}

	busy := make([]models.BusyInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		s, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid busy start %q: %w", period.Start, err)
		}
		e, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("invalid busy end %q: %w", period.End, err)
		}
		busy = append(busy, models.BusyInterval{Start: s, End: e})
	}
	return busy, nil
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, token *oauth2.Token, calendarID string, spec EventSpec) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	svc, err := p.service(ctx, token)
	if err != nil {
		return "", err
	}
	created, err := svc.Events.Insert(calendarID, toGoogleEvent(spec)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event on calendar %s: %w", calendarID, err)
	}
	return created.Id, nil
}

func (p *GoogleProvider) UpdateEvent(ctx context.Context, token *oauth2.Token, calendarID, eventID string, spec EventSpec) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	svc, err := p.service(ctx, token)
	if err != nil {
		return "", err
	}
	updated, err := svc.Events.Patch(calendarID, eventID, toGoogleEvent(spec)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update event %s on calendar %s: %w", eventID, calendarID, err)
	}
	return updated.Id, nil
}

func (p *GoogleProvider) DeleteEvent(ctx context.Context, token *oauth2.Token, calendarID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	svc, err := p.service(ctx, token)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event %s on calendar %s: %w", eventID, calendarID, err)
	}
	return nil
}

func toGoogleEvent(spec EventSpec) *gcal.Event {
	return &gcal.Event{
		Summary:     spec.Summary,
		Description: spec.Description,
		Start:       &gcal.EventDateTime{DateTime: spec.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: spec.End.Format(time.RFC3339)},
	}
}
