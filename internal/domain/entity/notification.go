package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies in-app notifications
type NotificationType string

const (
	NotificationAppointmentRequest   NotificationType = "appointment_request"
	NotificationAppointmentAccepted  NotificationType = "appointment_accepted"
	NotificationAppointmentCancelled NotificationType = "appointment_cancelled"
	NotificationAppointmentCompleted NotificationType = "appointment_completed"
)

// NotificationTypeForStatus returns the notification emitted to the patient when an
// appointment enters status.
func NotificationTypeForStatus(status AppointmentStatus) (NotificationType, bool) {
	switch status {
	case AppointmentStatusAccepted:
		return NotificationAppointmentAccepted, true
	case AppointmentStatusCancelled:
		return NotificationAppointmentCancelled, true
	case AppointmentStatusCompleted:
		return NotificationAppointmentCompleted, true
	}
	return "", false
}

// Notification is an in-app message addressed to one user
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	RelatedID *uuid.UUID       `gorm:"type:uuid" json:"related_id,omitempty"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
