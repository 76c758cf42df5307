package repository

import (
	"context"
	"fmt"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"
	domainRepo "ayurveda-clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct {
	store
	lockTimeout time.Duration
}

func NewAppointmentRepository(db *gorm.DB, storeTimeout, lockTimeout time.Duration) domainRepo.AppointmentRepository {
	return &appointmentRepository{
		store:       newStore(db, storeTimeout),
		lockTimeout: lockTimeout,
	}
}

// Create runs check-and-insert inside one transaction holding the practitioner's
// advisory lock. The exclusion constraint on the table backs this up.
func (r *appointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := r.lockPractitioner(tx, appointment.PractitionerID); err != nil {
			return err
		}
		conflict, err := r.overlaps(tx, appointment.PractitionerID, appointment.StartTime, appointment.EndTime, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return domainRepo.ErrSlotConflict
		}
		return tx.Omit(clause.Associations).Create(appointment).Error
	})
	return translateError(err)
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var appointment entity.Appointment
	err := db.Preload("Patient").Preload("Practitioner").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) HasConflict(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	conflict, err := r.overlaps(db, practitionerID, start, end, exclude)
	return conflict, translateError(err)
}

// Update is a compare-and-set on status. A reschedule of a live appointment re-runs
// the overlap check, excluding the appointment itself, under the practitioner lock.
func (r *appointmentRepository) Update(ctx context.Context, appointment *entity.Appointment, expected entity.AppointmentStatus, rescheduled bool) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if rescheduled && appointment.Status.IsLive() {
			if err := r.lockPractitioner(tx, appointment.PractitionerID); err != nil {
				return err
			}
			conflict, err := r.overlaps(tx, appointment.PractitionerID, appointment.StartTime, appointment.EndTime, appointment.ID)
			if err != nil {
				return err
			}
			if conflict {
				return domainRepo.ErrSlotConflict
			}
		}

		result := tx.Model(&entity.Appointment{}).
			Where("id = ? AND status = ?", appointment.ID, expected).
			Updates(map[string]interface{}{
				"status":     appointment.Status,
				"start_time": appointment.StartTime,
				"end_time":   appointment.EndTime,
				"notes":      appointment.Notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainRepo.ErrStaleWrite
		}
		return nil
	})
	return translateError(err)
}

func (r *appointmentRepository) UpdatePrescription(ctx context.Context, id uuid.UUID, prescription string) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("prescription", prescription)
	return result.RowsAffected, translateError(result.Error)
}

// FindByPractitionerAndRange returns appointments overlapping [from, to).
func (r *appointmentRepository) FindByPractitionerAndRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time, statuses []entity.AppointmentStatus) ([]entity.Appointment, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := db.Where("practitioner_id = ? AND start_time < ? AND end_time > ?", practitionerID, to, from)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var appointments []entity.Appointment
	if err := q.Order("start_time ASC").Find(&appointments).Error; err != nil {
		return nil, translateError(err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error) {
	return r.findWhere(ctx, "patient_id = ?", patientID)
}

func (r *appointmentRepository) FindByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]entity.Appointment, error) {
	return r.findWhere(ctx, "practitioner_id = ?", practitionerID)
}

func (r *appointmentRepository) FindByStatus(ctx context.Context, status entity.AppointmentStatus) ([]entity.Appointment, error) {
	return r.findWhere(ctx, "status = ?", status)
}

func (r *appointmentRepository) FindAll(ctx context.Context) ([]entity.Appointment, error) {
	return r.findWhere(ctx, "1 = 1")
}

func (r *appointmentRepository) FindDueForReminder(ctx context.Context, kind entity.ReminderKind, statuses []entity.AppointmentStatus, from, to time.Time) ([]entity.Appointment, error) {
	column := kind.Column()
	if column == "" {
		return nil, fmt.Errorf("unknown reminder kind %q", kind)
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	var appointments []entity.Appointment
	err := db.Preload("Patient").Preload("Practitioner").
		Where("start_time >= ? AND start_time < ?", from, to).
		Where("status IN ?", statuses).
		Where(fmt.Sprintf("%s = ?", column), entity.ReminderPending).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return appointments, nil
}

// MarkReminderSent only matches a pending latch, so concurrent sweeps cannot both
// claim the same send.
func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, kind entity.ReminderKind) (bool, error) {
	column := kind.Column()
	if column == "" {
		return false, fmt.Errorf("unknown reminder kind %q", kind)
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&entity.Appointment{}).
		Where(fmt.Sprintf("id = ? AND %s = ?", column), id, entity.ReminderPending).
		Update(column, entity.ReminderSent)
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context) ([]domainRepo.CountRow, error) {
	return r.countBy(ctx, "status")
}

func (r *appointmentRepository) CountByTherapy(ctx context.Context) ([]domainRepo.CountRow, error) {
	return r.countBy(ctx, "therapy_id")
}

// CountCreatedPerDay buckets creations since the given instant by local calendar day.
func (r *appointmentRepository) CountCreatedPerDay(ctx context.Context, since time.Time, loc *time.Location) ([]domainRepo.CountRow, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []domainRepo.CountRow
	err := db.Model(&entity.Appointment{}).
		Select(`to_char(created_at AT TIME ZONE ?, 'YYYY-MM-DD') AS "key", COUNT(*) AS count`, loc.String()).
		Where("created_at >= ?", since).
		Group("1").
		Order("1").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *appointmentRepository) countBy(ctx context.Context, column string) ([]domainRepo.CountRow, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []domainRepo.CountRow
	err := db.Model(&entity.Appointment{}).
		Select(fmt.Sprintf(`%s AS "key", COUNT(*) AS count`, column)).
		Group(column).
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *appointmentRepository) findWhere(ctx context.Context, query string, args ...interface{}) ([]entity.Appointment, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var appointments []entity.Appointment
	err := db.Preload("Patient").Preload("Practitioner").
		Where(query, args...).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return appointments, nil
}

// lockPractitioner takes a transaction-scoped advisory lock keyed on the practitioner.
// Waiting longer than lockTimeout fails with lock_not_available.
func (r *appointmentRepository) lockPractitioner(tx *gorm.DB, practitionerID uuid.UUID) error {
	if r.lockTimeout > 0 {
		// SET does not accept bind parameters
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", practitionerID.String()).Error
}

func (r *appointmentRepository) overlaps(db *gorm.DB, practitionerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	q := db.Model(&entity.Appointment{}).
		Where("practitioner_id = ? AND status IN ?", practitionerID, entity.LiveStatuses()).
		Where("start_time < ? AND end_time > ?", end, start)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
