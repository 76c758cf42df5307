package task

import (
	"encoding/json"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeNotificationCreate       = "notification:create"
	TypeEmailBookingConfirmation = "email:booking_confirmation"
	TypeEmailAcceptance          = "email:acceptance"
)

const (
	defaultMaxRetry = 5
	defaultTimeout  = 30 * time.Second
)

// NotificationPayload is an in-app notification to be stored for a user.
type NotificationPayload struct {
	UserID    uuid.UUID               `json:"user_id"`
	Type      entity.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	RelatedID *uuid.UUID              `json:"related_id,omitempty"`
}

// AppointmentEmailPayload identifies the appointment an email is about. The worker
// reloads the appointment so the email reflects its current state.
type AppointmentEmailPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationCreate, b,
		asynq.MaxRetry(defaultMaxRetry),
		asynq.Timeout(defaultTimeout),
	), nil
}

func NewBookingConfirmationTask(appointmentID uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(AppointmentEmailPayload{AppointmentID: appointmentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailBookingConfirmation, b,
		asynq.TaskID(TypeEmailBookingConfirmation+":"+appointmentID.String()),
		asynq.MaxRetry(defaultMaxRetry),
		asynq.Timeout(defaultTimeout),
	), nil
}

// NewAcceptanceEmailTask is deduplicated per appointment; the acceptance latch makes
// the send itself at-most-once.
func NewAcceptanceEmailTask(appointmentID uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(AppointmentEmailPayload{AppointmentID: appointmentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailAcceptance, b,
		asynq.TaskID(TypeEmailAcceptance+":"+appointmentID.String()),
		asynq.MaxRetry(defaultMaxRetry),
		asynq.Timeout(defaultTimeout),
	), nil
}
