package entity

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackCategories holds optional per-aspect ratings (1..5)
type FeedbackCategories struct {
	Treatment     *int `gorm:"column:treatment_rating" json:"treatment,omitempty"`
	Communication *int `gorm:"column:communication_rating" json:"communication,omitempty"`
	Facilities    *int `gorm:"column:facilities_rating" json:"facilities,omitempty"`
	Overall       *int `gorm:"column:overall_rating" json:"overall,omitempty"`
}

// Feedback is a patient's review of a completed appointment; one per appointment.
type Feedback struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID  uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	PatientID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	PractitionerID uuid.UUID          `gorm:"type:uuid;not null;index" json:"practitioner_id"`
	Rating         int                `gorm:"not null" json:"rating"`
	Comment        string             `gorm:"type:varchar(500)" json:"comment,omitempty"`
	Categories     FeedbackCategories `gorm:"embedded" json:"categories"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient     User        `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
