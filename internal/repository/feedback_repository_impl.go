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

type feedbackRepository struct {
	store
}

func NewFeedbackRepository(db *gorm.DB, storeTimeout time.Duration) domainRepo.FeedbackRepository {
	return &feedbackRepository{store: newStore(db, storeTimeout)}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *entity.Feedback) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(feedback).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Appointment{}).
			Where("id = ?", feedback.AppointmentID).
			Update("feedback_submitted", true).Error
	})
	return translateError(err)
}

func (r *feedbackRepository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Feedback, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var feedback entity.Feedback
	err := db.Preload("Patient").Where("appointment_id = ?", appointmentID).First(&feedback).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &feedback, nil
}

func (r *feedbackRepository) FindByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]entity.Feedback, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var feedbacks []entity.Feedback
	err := db.Preload("Patient").Preload("Appointment").
		Where("practitioner_id = ?", practitionerID).
		Order("created_at DESC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, translateError(err)
	}
	return feedbacks, nil
}
