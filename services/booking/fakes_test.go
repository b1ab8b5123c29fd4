package booking

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	doctorRepo "bettermind/database/repository/doctor"
	reservationRepo "bettermind/database/repository/reservation"
	"bettermind/models"
	"bettermind/services/availability"
	"bettermind/services/calendar"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }

// memReservations mirrors the partial unique index: at most one active
// reservation per doctor and instant.
type memReservations struct {
	mu         sync.Mutex
	items      map[string]models.Reservation
	hideActive bool
	linkErr    error
}

func newMemReservations() *memReservations {
	return &memReservations{items: map[string]models.Reservation{}}
}

func (m *memReservations) clashes(r *models.Reservation) bool {
	if !r.IsActive() {
		return false
	}
	for _, other := range m.items {
		if other.ID != r.ID && other.IsActive() && other.DoctorID == r.DoctorID && other.DateTime.Equal(r.DateTime) {
			return true
		}
	}
	return false
}

func (m *memReservations) Create(_ context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clashes(r) {
		return reservationRepo.ErrDuplicateActive
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memReservations) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, reservationRepo.ErrNotFound
	}
	return &r, nil
}

func (m *memReservations) FindActiveAt(_ context.Context, doctorID string, dateTime time.Time, excludeID string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideActive {
		return nil, reservationRepo.ErrNotFound
	}
	for _, r := range m.items {
		if r.ID != excludeID && r.IsActive() && r.DoctorID == doctorID && r.DateTime.Equal(dateTime) {
			return &r, nil
		}
	}
	return nil, reservationRepo.ErrNotFound
}

func (m *memReservations) Update(_ context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[r.ID]
	if !ok {
		return reservationRepo.ErrNotFound
	}
	if !stored.IsActive() {
		return reservationRepo.ErrNotActive
	}
	if m.clashes(r) {
		return reservationRepo.ErrDuplicateActive
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memReservations) SetExternalEventID(_ context.Context, id, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linkErr != nil {
		return m.linkErr
	}
	r, ok := m.items[id]
	if !ok {
		return reservationRepo.ErrNotFound
	}
	r.ExternalEventID = eventID
	m.items[id] = r
	return nil
}

func (m *memReservations) list(match func(models.Reservation) bool) []models.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reservation
	for _, r := range m.items {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out
}

func (m *memReservations) ListByUser(_ context.Context, userID string) ([]models.Reservation, error) {
	return m.list(func(r models.Reservation) bool { return r.UserID == userID }), nil
}

func (m *memReservations) ListByDoctor(_ context.Context, doctorID string) ([]models.Reservation, error) {
	return m.list(func(r models.Reservation) bool { return r.DoctorID == doctorID }), nil
}

type memDoctors struct{ doctors map[string]*models.Doctor }

func (m *memDoctors) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, doctorRepo.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *memDoctors) UpdateCalendarCredentials(context.Context, string, models.CalendarCredentials) error {
	return nil
}

// workingDay reports every working hour as free unless listed in busy.
type workingDay struct {
	busy   []models.BusyInterval
	err    error
	calls  int
	during func()
}

func (w *workingDay) GetAvailableTimeSlots(_ context.Context, _ string, date time.Time) ([]models.TimeSlot, error) {
	w.calls++
	if w.during != nil {
		w.during()
	}
	if w.err != nil {
		return nil, w.err
	}
	return availability.FilterBusy(availability.GenerateCandidateSlots(date, time.UTC, 9, 17), w.busy), nil
}

type okTokens struct{ err error }

func (o okTokens) EnsureValid(context.Context, *models.Doctor) (*oauth2.Token, error) {
	if o.err != nil {
		return nil, o.err
	}
	return &oauth2.Token{AccessToken: "access"}, nil
}

type fakeCalendar struct {
	createErr error
	updateErr error
	deleteErr error
	nextID    int
	created   []calendar.EventSpec
	updated   []string
	deleted   []string
}

func (f *fakeCalendar) QueryBusy(context.Context, *oauth2.Token, string, time.Time, time.Time) ([]models.BusyInterval, error) {
	return nil, errors.New("not used")
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ *oauth2.Token, _ string, spec calendar.EventSpec) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	f.created = append(f.created, spec)
	return "evt-" + strconv.Itoa(f.nextID), nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, _ *oauth2.Token, _ string, eventID string, _ calendar.EventSpec) (string, error) {
	if f.updateErr != nil {
		return "", f.updateErr
	}
	f.updated = append(f.updated, eventID)
	return eventID, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, _ *oauth2.Token, _ string, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

type recordedReminders struct {
	scheduled []string
	err       error
}

func (r *recordedReminders) ScheduleReminder(_ context.Context, res *models.Reservation) error {
	r.scheduled = append(r.scheduled, res.ID+"@"+res.DateTime.Format(time.RFC3339))
	return r.err
}

type harness struct {
	coord        *Coordinator
	reservations *memReservations
	avail        *workingDay
	calendar     *fakeCalendar
	reminders    *recordedReminders
}

func newHarness() *harness {
	h := &harness{
		reservations: newMemReservations(),
		avail:        &workingDay{},
		calendar:     &fakeCalendar{},
		reminders:    &recordedReminders{},
	}
	doctors := &memDoctors{doctors: map[string]*models.Doctor{
		"doc-1": {ID: "doc-1", Name: "Dr. Rao", CalendarID: "primary"},
	}}
	logger := zap.NewNop()
	h.coord = &Coordinator{
		Reservations: h.reservations,
		Doctors:      doctors,
		Availability: h.avail,
		Mirror:       &Mirror{Tokens: okTokens{}, Calendar: h.calendar, Logger: logger},
		Reminders:    h.reminders,
		Logger:       logger,
		Now:          func() time.Time { return day.Add(-24 * time.Hour) },
	}
	return h
}

func (h *harness) book(user string, hour int, mirror bool) (*Outcome, error) {
	return h.coord.CreateReservation(context.Background(), CreateRequest{
		UserID:           user,
		DoctorID:         "doc-1",
		DateTime:         at(hour),
		MirrorExternally: mirror,
	})
}
