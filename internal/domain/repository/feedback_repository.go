package repository

import (
	"context"

	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

type FeedbackRepository interface {
	// Create stores the feedback and sets the appointment's feedback flag in one
	// transaction. A second feedback for the same appointment fails with ErrDuplicate.
	Create(ctx context.Context, feedback *entity.Feedback) error
	FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Feedback, error)
	FindByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]entity.Feedback, error)
}
