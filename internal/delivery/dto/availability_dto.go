package dto

import (
	"time"

	"github.com/google/uuid"
)

type TimeSlotDTO struct {
	StartTime   string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime     string `json:"endTime" validate:"required,datetime=15:04"`
	IsAvailable bool   `json:"isAvailable"`
}

type SpecialDateDTO struct {
	Date        string `json:"date"`
	IsAvailable bool   `json:"isAvailable"`
	Reason      string `json:"reason,omitempty"`
}

// Request DTOs

type UpsertAvailabilityRequest struct {
	DayOfWeek   *int          `json:"dayOfWeek" validate:"required,gte=0,lte=6"`
	IsAvailable *bool         `json:"isAvailable" validate:"required"`
	TimeSlots   []TimeSlotDTO `json:"timeSlots" validate:"max=48,dive"`
}

type SpecialDateRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsAvailable bool   `json:"isAvailable"`
	Reason      string `json:"reason" validate:"omitempty,max=255"`
}

// Response DTOs

type AvailabilityResponse struct {
	ID           int              `json:"id"`
	DoctorID     uuid.UUID        `json:"doctorId"`
	DayOfWeek    int              `json:"dayOfWeek"`
	IsAvailable  bool             `json:"isAvailable"`
	TimeSlots    []TimeSlotDTO    `json:"timeSlots"`
	SpecialDates []SpecialDateDTO `json:"specialDates"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type AvailableSlotsResponse struct {
	DoctorID       uuid.UUID     `json:"doctorId"`
	Date           string        `json:"date"`
	AvailableSlots []TimeSlotDTO `json:"availableSlots"`
	// Reason is set when a special date closes the day.
	Reason string `json:"reason,omitempty"`
}
