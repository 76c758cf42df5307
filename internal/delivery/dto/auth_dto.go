package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type RegisterPatientRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"omitempty,min=10,max=20"`
}

type RegisterDoctorRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	FullName        string `json:"fullName" validate:"required,min=2"`
	Phone           string `json:"phone" validate:"omitempty,min=10,max=20"`
	Specialization  string `json:"specialization" validate:"required,max=100"`
	ExperienceYears int    `json:"experienceYears" validate:"gte=0,lte=70"`
	Biography       string `json:"biography" validate:"omitempty,max=2000"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type DoctorProfileResponse struct {
	Specialization  string `json:"specialization"`
	ExperienceYears int    `json:"experienceYears"`
	Biography       string `json:"biography,omitempty"`
}

type UserResponse struct {
	ID            uuid.UUID              `json:"id"`
	Email         string                 `json:"email"`
	FullName      string                 `json:"fullName"`
	Phone         string                 `json:"phone,omitempty"`
	Role          string                 `json:"role"`
	DoctorProfile *DoctorProfileResponse `json:"doctorProfile,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}
