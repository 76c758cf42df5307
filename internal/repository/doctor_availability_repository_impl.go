package repository

import (
	"context"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"
	domainRepo "ayurveda-clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorAvailabilityRepository struct {
	store
}

func NewDoctorAvailabilityRepository(db *gorm.DB, storeTimeout time.Duration) domainRepo.DoctorAvailabilityRepository {
	return &doctorAvailabilityRepository{store: newStore(db, storeTimeout)}
}

var doctorDayConflict = []clause.Column{{Name: "doctor_id"}, {Name: "day_of_week"}}

func (r *doctorAvailabilityRepository) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.DoctorAvailability, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var records []entity.DoctorAvailability
	err := db.Where("doctor_id = ?", doctorID).
		Order("day_of_week ASC").
		Find(&records).Error
	if err != nil {
		return nil, translateError(err)
	}
	return records, nil
}

func (r *doctorAvailabilityRepository) FindByDoctorAndDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) (*entity.DoctorAvailability, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var record entity.DoctorAvailability
	err := db.Where("doctor_id = ? AND day_of_week = ?", doctorID, dayOfWeek).First(&record).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &record, nil
}

func (r *doctorAvailabilityRepository) ModifyDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, mutate func(*entity.DoctorAvailability)) (*entity.DoctorAvailability, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var record entity.DoctorAvailability
	err := db.Transaction(func(tx *gorm.DB) error {
		defaults := entity.NewDefaultAvailability(doctorID, dayOfWeek)
		if err := tx.Clauses(clause.OnConflict{Columns: doctorDayConflict, DoNothing: true}).Create(defaults).Error; err != nil {
			return err
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND day_of_week = ?", doctorID, dayOfWeek).
			First(&record).Error
		if err != nil {
			return err
		}

		mutate(&record)
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}
