package queue

import (
	"context"
	"errors"
	"fmt"

	"ayurveda-clinic-backend/config"
	"ayurveda-clinic-backend/internal/task"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// NewRedisClientOpt builds the asynq connection for the queue database.
func NewRedisClientOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Queue.RedisDB,
	}
}

// Dispatcher enqueues side-effect tasks for the worker.
type Dispatcher struct {
	client *asynq.Client
	log    *logrus.Logger
}

func NewDispatcher(client *asynq.Client, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{client: client, log: log}
}

func (d *Dispatcher) Notify(ctx context.Context, payload task.NotificationPayload) error {
	t, err := task.NewNotificationTask(payload)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, t)
}

func (d *Dispatcher) SendBookingConfirmation(ctx context.Context, appointmentID uuid.UUID) error {
	t, err := task.NewBookingConfirmationTask(appointmentID)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, t)
}

func (d *Dispatcher) SendAcceptanceEmail(ctx context.Context, appointmentID uuid.UUID) error {
	t, err := task.NewAcceptanceEmailTask(appointmentID)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, t)
}

func (d *Dispatcher) enqueue(ctx context.Context, t *asynq.Task) error {
	info, err := d.client.EnqueueContext(ctx, t)
	if err != nil {
		// same task id already queued
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			d.log.Debugf("Task %s already enqueued", t.Type())
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", t.Type(), err)
	}
	d.log.Debugf("Enqueued task %s id=%s queue=%s", t.Type(), info.ID, info.Queue)
	return nil
}
