package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bettermind/models"

	"github.com/hibiken/asynq"
)

const TypeSendReminder = "reminder:send"

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(fmt.Sprintf("reminder:%s:%d", payload.ReservationID, fireAt.Unix())),
		asynq.MaxRetry(3),
	}

	return task, opts, nil
}

// Enqueuer is the subset of *asynq.Client used to queue reminders.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReminderScheduler queues a patient reminder ahead of each appointment.
type ReminderScheduler struct {
	Client   Enqueuer
	LeadTime time.Duration
	Now      func() time.Time
}

func NewReminderScheduler(client Enqueuer, leadTime time.Duration) *ReminderScheduler {
	return &ReminderScheduler{Client: client, LeadTime: leadTime, Now: time.Now}
}

// ScheduleReminder enqueues a reminder LeadTime before res.DateTime. Reminders
// whose fire time has already passed are skipped.
func (s *ReminderScheduler) ScheduleReminder(ctx context.Context, res *models.Reservation) error {
	fireAt := res.DateTime.Add(-s.LeadTime)
	if !fireAt.After(s.Now()) {
		return nil
	}

	payload := models.ReminderPayload{
		ID:            res.UserID,
		ReservationID: res.ID,
		Title:         "Upcoming appointment",
		Body:          fmt.Sprintf("You have an appointment at %s.", res.DateTime.Format("2 January, 15:04 MST")),
		FireDate:      res.DateTime.Format(time.RFC3339),
		Target:        "user",
	}
	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}
	if _, err := s.Client.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	return nil
}
