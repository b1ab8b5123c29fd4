package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bettermind/config"
	reservationRepo "bettermind/database/repository/reservation"
	"bettermind/models"
	"bettermind/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitReminderWorker runs the async reminder worker in background and returns
// the server so the caller can shut it down.
func InitReminderWorker(reservations reservationRepo.ReservationRepository, logger *zap.Logger) *asynq.Server {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(reservations, logger))

	go func() {
		logger.Info("starting reminder worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("reminder worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("reminder worker giving up")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// HandleReminderTask delivers a reminder if its appointment is still active
// at the time the reminder was scheduled for.
func HandleReminderTask(reservations reservationRepo.ReservationRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		res, err := reservations.GetByID(ctx, p.ReservationID)
		if errors.Is(err, reservationRepo.ErrNotFound) {
			logger.Warn("reminder for unknown reservation", zap.String("reservationID", p.ReservationID))
			return nil
		}
		if err != nil {
			return err
		}
		if !res.IsActive() || res.DateTime.Format(time.RFC3339) != p.FireDate {
			logger.Debug("reminder no longer applies",
				zap.String("reservationID", res.ID), zap.String("status", res.Status))
			return nil
		}

		// No push channel is configured yet, so reminders are logged.
		logger.Info("appointment reminder",
			zap.String("target", p.Target),
			zap.String("recipientID", p.ID),
			zap.String("reservationID", p.ReservationID),
			zap.String("title", p.Title),
			zap.String("body", p.Body))
		return nil
	}
}
