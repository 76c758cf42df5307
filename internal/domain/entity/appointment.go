package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusRequested AppointmentStatus = "requested"
	AppointmentStatusAccepted  AppointmentStatus = "accepted"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// DefaultAppointmentDuration is used when a booking does not specify one.
const DefaultAppointmentDuration = 60 * time.Minute

// IsValid reports whether s is one of the known statuses.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusRequested, AppointmentStatusAccepted, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// IsLive reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) IsLive() bool {
	return s == AppointmentStatusRequested || s == AppointmentStatusAccepted
}

// IsTerminal reports whether no further transition is possible.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
//
//	requested -> accepted | cancelled
//	accepted  -> completed | cancelled
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusRequested:
		return next == AppointmentStatusAccepted || next == AppointmentStatusCancelled
	case AppointmentStatusAccepted:
		return next == AppointmentStatusCompleted || next == AppointmentStatusCancelled
	}
	return false
}

// LiveStatuses returns the statuses that occupy a practitioner's time.
func LiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{AppointmentStatusRequested, AppointmentStatusAccepted}
}

// ReminderState is a one-way latch: pending may become sent, never the reverse.
type ReminderState string

const (
	ReminderPending ReminderState = "pending"
	ReminderSent    ReminderState = "sent"
)

// ReminderKind names one of the per-appointment email latches.
type ReminderKind string

const (
	ReminderAcceptance ReminderKind = "acceptance"
	Reminder24h        ReminderKind = "reminder_24h"
	Reminder4h         ReminderKind = "reminder_4h"
	ReminderPostCare   ReminderKind = "post_care"
)

// Column returns the appointments column backing the latch.
func (k ReminderKind) Column() string {
	switch k {
	case ReminderAcceptance:
		return "acceptance_email"
	case Reminder24h:
		return "reminder_24h"
	case Reminder4h:
		return "reminder_4h"
	case ReminderPostCare:
		return "post_care_email"
	}
	return ""
}

// Appointment is a patient booking of a single practitioner for one interval.
// EndTime is exclusive: [StartTime, EndTime).
type Appointment struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	PractitionerID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:appointments_practitioner_start_key,priority:1" json:"practitioner_id"`
	TherapyID         string            `gorm:"type:varchar(50);not null" json:"therapy_id"`
	StartTime         time.Time         `gorm:"type:timestamptz;not null;uniqueIndex:appointments_practitioner_start_key,priority:2" json:"start_time"`
	EndTime           time.Time         `gorm:"type:timestamptz;not null" json:"end_time"`
	Status            AppointmentStatus `gorm:"type:varchar(20);not null;default:'requested';index" json:"status"`
	Notes             string            `gorm:"type:text;not null;default:''" json:"notes"`
	Prescription      string            `gorm:"type:text;not null;default:''" json:"prescription"`
	FeedbackSubmitted bool              `gorm:"not null;default:false" json:"feedback_submitted"`
	AcceptanceEmail   ReminderState     `gorm:"type:varchar(10);not null;default:'pending'" json:"acceptance_email"`
	Reminder24h       ReminderState     `gorm:"column:reminder_24h;type:varchar(10);not null;default:'pending'" json:"reminder_24h"`
	Reminder4h        ReminderState     `gorm:"column:reminder_4h;type:varchar(10);not null;default:'pending'" json:"reminder_4h"`
	PostCareEmail     ReminderState     `gorm:"type:varchar(10);not null;default:'pending'" json:"post_care_email"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient      User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Practitioner User `gorm:"foreignKey:PractitionerID" json:"practitioner,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// NewAppointment builds a requested appointment with every latch pending.
func NewAppointment(patientID, practitionerID uuid.UUID, therapyID string, start time.Time, duration time.Duration, notes string) *Appointment {
	if duration <= 0 {
		duration = DefaultAppointmentDuration
	}
	return &Appointment{
		PatientID:       patientID,
		PractitionerID:  practitionerID,
		TherapyID:       therapyID,
		StartTime:       start,
		EndTime:         start.Add(duration),
		Status:          AppointmentStatusRequested,
		Notes:           notes,
		AcceptanceEmail: ReminderPending,
		Reminder24h:     ReminderPending,
		Reminder4h:      ReminderPending,
		PostCareEmail:   ReminderPending,
	}
}

// IsLive reports whether the appointment occupies its slot.
func (a *Appointment) IsLive() bool {
	return a.Status.IsLive()
}

// IsCompleted checks if the appointment has been completed
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}

// Overlaps reports whether the appointment's interval intersects [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return IntervalsOverlap(a.StartTime, a.EndTime, start, end)
}

// Reminder returns the current state of the given latch.
func (a *Appointment) Reminder(kind ReminderKind) ReminderState {
	switch kind {
	case ReminderAcceptance:
		return a.AcceptanceEmail
	case Reminder24h:
		return a.Reminder24h
	case Reminder4h:
		return a.Reminder4h
	case ReminderPostCare:
		return a.PostCareEmail
	}
	return ""
}

// LatchReminder marks the given latch as sent. It reports false if it was already sent.
func (a *Appointment) LatchReminder(kind ReminderKind) bool {
	var field *ReminderState
	switch kind {
	case ReminderAcceptance:
		field = &a.AcceptanceEmail
	case Reminder24h:
		field = &a.Reminder24h
	case Reminder4h:
		field = &a.Reminder4h
	case ReminderPostCare:
		field = &a.PostCareEmail
	default:
		return false
	}
	if *field == ReminderSent {
		return false
	}
	*field = ReminderSent
	return true
}

// IntervalsOverlap is the half-open overlap test: intervals that only touch at a
// boundary do not overlap.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// HasConflict reports whether any live appointment of practitionerID in existing
// overlaps [start, end). The appointment with id exclude (if not uuid.Nil) is ignored.
func HasConflict(existing []Appointment, practitionerID uuid.UUID, start, end time.Time, exclude uuid.UUID) bool {
	for i := range existing {
		a := &existing[i]
		if a.PractitionerID != practitionerID || !a.IsLive() {
			continue
		}
		if exclude != uuid.Nil && a.ID == exclude {
			continue
		}
		if a.Overlaps(start, end) {
			return true
		}
	}
	return false
}
