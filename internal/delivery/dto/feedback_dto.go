package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FeedbackCategoriesDTO struct {
	Treatment     *int `json:"treatment,omitempty" validate:"omitempty,gte=1,lte=5"`
	Communication *int `json:"communication,omitempty" validate:"omitempty,gte=1,lte=5"`
	Facilities    *int `json:"facilities,omitempty" validate:"omitempty,gte=1,lte=5"`
	Overall       *int `json:"overall,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// Request DTOs

type CreateFeedbackRequest struct {
	AppointmentID string                 `json:"appointmentId" validate:"required,uuid"`
	Rating        int                    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment       string                 `json:"comment" validate:"omitempty,max=500"`
	Categories    *FeedbackCategoriesDTO `json:"categories"`
}

// Response DTOs

type FeedbackResponse struct {
	ID             uuid.UUID             `json:"id"`
	AppointmentID  uuid.UUID             `json:"appointmentId"`
	PatientID      uuid.UUID             `json:"patientId"`
	PatientName    string                `json:"patientName,omitempty"`
	PractitionerID uuid.UUID             `json:"practitionerId"`
	TherapyID      string                `json:"therapyId,omitempty"`
	Rating         int                   `json:"rating"`
	Comment        string                `json:"comment,omitempty"`
	Categories     FeedbackCategoriesDTO `json:"categories"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type PractitionerFeedbackResponse struct {
	PractitionerID uuid.UUID          `json:"practitionerId"`
	Feedbacks      []FeedbackResponse `json:"feedbacks"`
	Total          int                `json:"total"`
	// AverageRating is rounded to two places and serialized as a string.
	AverageRating decimal.Decimal `json:"averageRating"`
}
