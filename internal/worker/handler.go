package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"
	"ayurveda-clinic-backend/internal/task"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// AppointmentMailer composes and sends appointment emails.
type AppointmentMailer interface {
	SendBookingConfirmation(ctx context.Context, appointment *entity.Appointment, patient, doctor *entity.User) error
	SendAcceptance(ctx context.Context, appointment *entity.Appointment, patient, doctor *entity.User) error
}

// Handlers processes side-effect tasks. A returned error makes asynq retry the task.
type Handlers struct {
	appointmentRepo  repository.AppointmentRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	mailer           AppointmentMailer
	log              *logrus.Logger
}

func NewHandlers(
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	mailer AppointmentMailer,
	log *logrus.Logger,
) *Handlers {
	return &Handlers{
		appointmentRepo:  appointmentRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		mailer:           mailer,
		log:              log,
	}
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(task.TypeNotificationCreate, h.HandleNotificationCreate)
	mux.HandleFunc(task.TypeEmailBookingConfirmation, h.HandleBookingConfirmation)
	mux.HandleFunc(task.TypeEmailAcceptance, h.HandleAcceptanceEmail)
}

func (h *Handlers) HandleNotificationCreate(ctx context.Context, t *asynq.Task) error {
	var p task.NotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.log.Warnf("Invalid notification payload: %+v", err)
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	notification := &entity.Notification{
		UserID:    p.UserID,
		Type:      p.Type,
		Title:     p.Title,
		Message:   p.Message,
		RelatedID: p.RelatedID,
	}
	if err := h.notificationRepo.Create(ctx, notification); err != nil {
		h.log.Warnf("Failed to create notification for user %s: %+v", p.UserID, err)
		return err
	}
	return nil
}

func (h *Handlers) HandleBookingConfirmation(ctx context.Context, t *asynq.Task) error {
	appointment, patient, doctor, err := h.loadAppointment(ctx, t)
	if err != nil || appointment == nil {
		return err
	}

	if err := h.mailer.SendBookingConfirmation(ctx, appointment, patient, doctor); err != nil {
		h.log.Warnf("Failed to send booking confirmation for appointment %s: %+v", appointment.ID, err)
		return err
	}
	return nil
}

// HandleAcceptanceEmail sends the acceptance email at most once: a sent latch skips
// the task, and the latch is only written after the send succeeds.
func (h *Handlers) HandleAcceptanceEmail(ctx context.Context, t *asynq.Task) error {
	appointment, patient, doctor, err := h.loadAppointment(ctx, t)
	if err != nil || appointment == nil {
		return err
	}

	if appointment.Reminder(entity.ReminderAcceptance) == entity.ReminderSent {
		h.log.Debugf("Acceptance email for appointment %s already sent", appointment.ID)
		return nil
	}
	if appointment.Status != entity.AppointmentStatusAccepted {
		h.log.Infof("Skipping acceptance email for appointment %s in status %s", appointment.ID, appointment.Status)
		return nil
	}

	if err := h.mailer.SendAcceptance(ctx, appointment, patient, doctor); err != nil {
		h.log.Warnf("Failed to send acceptance email for appointment %s: %+v", appointment.ID, err)
		return err
	}

	latched, err := h.appointmentRepo.MarkReminderSent(ctx, appointment.ID, entity.ReminderAcceptance)
	if err != nil {
		// the email went out; retrying would send it again
		h.log.Errorf("Failed to latch acceptance email for appointment %s: %+v", appointment.ID, err)
		return nil
	}
	if !latched {
		h.log.Warnf("Acceptance latch for appointment %s was already set", appointment.ID)
	}
	return nil
}

// loadAppointment decodes the payload and loads the appointment with both parties.
// A missing appointment returns (nil, nil, nil, nil) so the task is dropped.
func (h *Handlers) loadAppointment(ctx context.Context, t *asynq.Task) (*entity.Appointment, *entity.User, *entity.User, error) {
	var p task.AppointmentEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.log.Warnf("Invalid email payload: %+v", err)
		return nil, nil, nil, fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	appointment, err := h.appointmentRepo.FindByID(ctx, p.AppointmentID)
	if err != nil {
		h.log.Warnf("Failed to load appointment %s: %+v", p.AppointmentID, err)
		return nil, nil, nil, err
	}
	if appointment == nil {
		h.log.Warnf("Appointment %s not found, dropping %s", p.AppointmentID, t.Type())
		return nil, nil, nil, nil
	}

	patient, doctor, err := h.parties(ctx, appointment)
	if err != nil {
		return nil, nil, nil, err
	}
	return appointment, patient, doctor, nil
}

func (h *Handlers) parties(ctx context.Context, appointment *entity.Appointment) (*entity.User, *entity.User, error) {
	if appointment.Patient.ID != appointment.PatientID || appointment.Practitioner.ID != appointment.PractitionerID {
		users, err := h.userRepo.FindByIDs(ctx, []uuid.UUID{appointment.PatientID, appointment.PractitionerID})
		if err != nil {
			h.log.Warnf("Failed to load users for appointment %s: %+v", appointment.ID, err)
			return nil, nil, err
		}
		for _, u := range users {
			switch u.ID {
			case appointment.PatientID:
				appointment.Patient = u
			case appointment.PractitionerID:
				appointment.Practitioner = u
			}
		}
	}
	if appointment.Patient.ID != appointment.PatientID {
		return nil, nil, fmt.Errorf("patient %s not found: %w", appointment.PatientID, asynq.SkipRetry)
	}
	return &appointment.Patient, &appointment.Practitioner, nil
}
