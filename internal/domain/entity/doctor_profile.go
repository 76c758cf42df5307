package entity

import "github.com/google/uuid"

// DoctorProfile represents practitioner-specific profile data
type DoctorProfile struct {
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Specialization  string    `gorm:"type:varchar(100);not null;index" json:"specialization"`
	ExperienceYears int       `gorm:"not null;default:0" json:"experience_years"`
	Biography       string    `gorm:"type:text" json:"biography,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}
