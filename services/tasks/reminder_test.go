package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bettermind/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (c *captureEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	c.opts = append(c.opts, opts)
	return &asynq.TaskInfo{ID: "t"}, nil
}

var appointment = &models.Reservation{
	ID:       "res-1",
	UserID:   "user-1",
	DoctorID: "doc-1",
	DateTime: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	Status:   models.StatusConfirmed,
}

func newScheduler(client Enqueuer, now time.Time) *ReminderScheduler {
	s := NewReminderScheduler(client, time.Hour)
	s.Now = func() time.Time { return now }
	return s
}

func TestScheduleReminder_EnqueuesAheadOfAppointment(t *testing.T) {
	client := &captureEnqueuer{}
	s := newScheduler(client, time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.ScheduleReminder(context.Background(), appointment))

	require.Len(t, client.tasks, 1)
	assert.Equal(t, TypeSendReminder, client.tasks[0].Type())
	var p models.ReminderPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &p))
	assert.Equal(t, "res-1", p.ReservationID)
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, "2024-06-01T10:00:00Z", p.FireDate)

	var processAt time.Time
	var taskID string
	for _, o := range client.opts[0] {
		switch o.Type() {
		case asynq.ProcessAtOpt:
			processAt = o.Value().(time.Time)
		case asynq.TaskIDOpt:
			taskID = o.Value().(string)
		}
	}
	assert.True(t, processAt.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "reminder:res-1:1717232400", taskID)
}

func TestScheduleReminder_SkipsPastFireTime(t *testing.T) {
	client := &captureEnqueuer{}
	s := newScheduler(client, time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC))

	require.NoError(t, s.ScheduleReminder(context.Background(), appointment))

	assert.Empty(t, client.tasks)
}

func TestScheduleReminder_DuplicateTaskIgnored(t *testing.T) {
	s := newScheduler(&captureEnqueuer{err: asynq.ErrTaskIDConflict}, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, s.ScheduleReminder(context.Background(), appointment))
}

func TestScheduleReminder_EnqueueFailure(t *testing.T) {
	s := newScheduler(&captureEnqueuer{err: errors.New("dial tcp: connection refused")}, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))

	assert.Error(t, s.ScheduleReminder(context.Background(), appointment))
}
