package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	PractitionerID string     `json:"practitionerId" validate:"required,uuid"`
	TherapyID      string     `json:"therapyId" validate:"required"`
	StartTime      *time.Time `json:"startTime" validate:"required"`
	Duration       int        `json:"duration" validate:"omitempty,gte=5,lte=480"` // minutes
	Notes          string     `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateAppointmentRequest changes status, interval or notes. Omitted fields keep
// their current value.
type UpdateAppointmentRequest struct {
	Status    *string    `json:"status" validate:"omitempty,oneof=requested accepted completed cancelled"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Notes     *string    `json:"notes" validate:"omitempty,max=2000"`
}

type PrescriptionRequest struct {
	Prescription string `json:"prescription" validate:"required,max=5000"`
}

// Response DTOs

type EmailRemindersResponse struct {
	AcceptanceEmail string `json:"acceptanceEmail"`
	Reminder24h     string `json:"reminder24h"`
	Reminder4h      string `json:"reminder4h"`
	PostCareEmail   string `json:"postCareEmail"`
}

type AppointmentResponse struct {
	ID                uuid.UUID              `json:"id"`
	PatientID         uuid.UUID              `json:"patientId"`
	PatientName       string                 `json:"patientName,omitempty"`
	PractitionerID    uuid.UUID              `json:"practitionerId"`
	PractitionerName  string                 `json:"practitionerName,omitempty"`
	TherapyID         string                 `json:"therapyId"`
	TherapyName       string                 `json:"therapyName"`
	StartTime         time.Time              `json:"startTime"`
	EndTime           time.Time              `json:"endTime"`
	Status            string                 `json:"status"`
	Notes             string                 `json:"notes"`
	Prescription      string                 `json:"prescription"`
	FeedbackSubmitted bool                   `json:"feedbackSubmitted"`
	EmailReminders    EmailRemindersResponse `json:"emailReminders"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type TherapyTypeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    int    `json:"duration"` // minutes
	Category    string `json:"category"`
}

type PractitionerResponse struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"fullName"`
	Email           string    `json:"email"`
	Specialization  string    `json:"specialization,omitempty"`
	ExperienceYears int       `json:"experienceYears"`
	Biography       string    `json:"biography,omitempty"`
}

type TherapyCount struct {
	TherapyID   string `json:"therapyId"`
	TherapyName string `json:"therapyName"`
	Count       int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AnalyticsResponse struct {
	TotalAppointments int64            `json:"totalAppointments"`
	ByStatus          map[string]int64 `json:"byStatus"`
	ByTherapy         []TherapyCount   `json:"byTherapy"`
	Daily             []DailyCount     `json:"dailyAppointments"`
}
