package repository

import (
	"context"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

// CountRow is one bucket of an aggregate query.
type CountRow struct {
	Key   string
	Count int64
}

type AppointmentRepository interface {
	// Create inserts a requested appointment. The overlap check and the insert run
	// under a per-practitioner lock, so ErrSlotConflict is authoritative.
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	// HasConflict reports whether a live appointment of practitionerID overlaps
	// [start, end). exclude is ignored when uuid.Nil.
	HasConflict(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error)
	// Update writes status, interval and notes only if the stored status still equals
	// expected (ErrStaleWrite otherwise). When rescheduled is true the new interval is
	// re-checked for overlaps under the practitioner lock.
	Update(ctx context.Context, appointment *entity.Appointment, expected entity.AppointmentStatus, rescheduled bool) error
	UpdatePrescription(ctx context.Context, id uuid.UUID, prescription string) (int64, error)

	FindByPractitionerAndRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time, statuses []entity.AppointmentStatus) ([]entity.Appointment, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]entity.Appointment, error)
	FindByStatus(ctx context.Context, status entity.AppointmentStatus) ([]entity.Appointment, error)
	FindAll(ctx context.Context) ([]entity.Appointment, error)

	// FindDueForReminder returns appointments starting in [from, to) whose latch for
	// kind is still pending.
	FindDueForReminder(ctx context.Context, kind entity.ReminderKind, statuses []entity.AppointmentStatus, from, to time.Time) ([]entity.Appointment, error)
	// MarkReminderSent flips the latch from pending to sent. It reports false when the
	// latch was already sent.
	MarkReminderSent(ctx context.Context, id uuid.UUID, kind entity.ReminderKind) (bool, error)

	CountByStatus(ctx context.Context) ([]CountRow, error)
	CountByTherapy(ctx context.Context) ([]CountRow, error)
	CountCreatedPerDay(ctx context.Context, since time.Time, loc *time.Location) ([]CountRow, error)
}
