package service

import (
	"context"
	"fmt"
	"time"

	"ayurveda-clinic-backend/config"
	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/sirupsen/logrus"
)

// EmailSender delivers one templated email. Implementations live in
// infrastructure/mail.
type EmailSender interface {
	Send(ctx context.Context, templateID string, params map[string]interface{}) error
}

const defaultPrescription = `Take rest for 30 minutes after therapy.
Drink warm water throughout the day.
Avoid cold foods and beverages.
Follow a light, easily digestible diet.
Consult your doctor if you experience any discomfort.`

const preCareInstructions = `- Arrive 15 minutes before your appointment
- Wear comfortable, loose-fitting clothes
- Avoid heavy meals 2 hours before therapy
- Stay hydrated but avoid excessive water intake
- Inform the doctor about any medications you're taking`

const postCareInstructions = `- Rest for at least 30 minutes after therapy
- Drink warm water and herbal teas
- Avoid cold foods, ice cream, and cold beverages
- Take a warm shower (not hot) after 2-3 hours
- Follow a light, warm, and easily digestible diet
- Avoid strenuous activities for 24 hours
- Contact your doctor if you experience any unusual symptoms`

// EmailService composes appointment emails and hands them to an EmailSender.
type EmailService struct {
	sender    EmailSender
	templates config.EmailConfig
	loc       *time.Location
	log       *logrus.Logger
}

func NewEmailService(sender EmailSender, templates config.EmailConfig, loc *time.Location, log *logrus.Logger) *EmailService {
	if loc == nil {
		loc = time.UTC
	}
	return &EmailService{
		sender:    sender,
		templates: templates,
		loc:       loc,
		log:       log,
	}
}

// SendBookingConfirmation tells the patient their request was received.
func (s *EmailService) SendBookingConfirmation(ctx context.Context, appointment *entity.Appointment, patient, doctor *entity.User) error {
	params := s.params(appointment, patient, doctor)
	return s.send(ctx, templateOr(s.templates.BookingTemplate, "booking"), params)
}

// SendAcceptance tells the patient the practitioner accepted the appointment.
func (s *EmailService) SendAcceptance(ctx context.Context, appointment *entity.Appointment, patient, doctor *entity.User) error {
	params := s.params(appointment, patient, doctor)
	return s.send(ctx, templateOr(s.templates.AcceptanceTemplate, "acceptance"), params)
}

// SendReminder sends the 24h, 4h or post-care reminder for kind.
func (s *EmailService) SendReminder(ctx context.Context, appointment *entity.Appointment, patient, doctor *entity.User, kind entity.ReminderKind) error {
	params := s.params(appointment, patient, doctor)
	params["isPostReminder"] = kind == entity.ReminderPostCare
	params["reminderType"] = string(kind)
	return s.send(ctx, templateOr(s.templates.ReminderTemplate, "reminder"), params)
}

func (s *EmailService) send(ctx context.Context, templateID string, params map[string]interface{}) error {
	if err := s.sender.Send(ctx, templateID, params); err != nil {
		return fmt.Errorf("send %s email to %v: %w", templateID, params["to_email"], err)
	}
	s.log.Debugf("Email %s sent to %v", templateID, params["to_email"])
	return nil
}

func (s *EmailService) params(appointment *entity.Appointment, patient, doctor *entity.User) map[string]interface{} {
	start := appointment.StartTime.In(s.loc)

	prescription := appointment.Prescription
	if prescription == "" {
		prescription = defaultPrescription
	}

	return map[string]interface{}{
		"to_email":             patient.Email,
		"patientName":          nameOr(patient, "Patient"),
		"patientEmail":         patient.Email,
		"doctorName":           nameOr(doctor, "Doctor"),
		"therapyType":          entity.TherapyName(appointment.TherapyID),
		"appointmentDate":      start.Format("02 Jan 2006"),
		"appointmentTime":      start.Format("03:04 PM"),
		"prescription":         prescription,
		"preCareInstructions":  preCareInstructions,
		"postCareInstructions": postCareInstructions,
	}
}

func nameOr(u *entity.User, fallback string) string {
	if u == nil || u.FullName == "" {
		return fallback
	}
	return u.FullName
}

func templateOr(id, fallback string) string {
	if id == "" {
		return fallback
	}
	return id
}
