package repository

import (
	"context"

	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorAvailabilityRepository interface {
	FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.DoctorAvailability, error)
	FindByDoctorAndDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) (*entity.DoctorAvailability, error)
	// ModifyDay is the only write path. It loads the record for (doctor, day) with a
	// row lock, creating the default record first if none exists, applies mutate and
	// saves the result.
	ModifyDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, mutate func(*entity.DoctorAvailability)) (*entity.DoctorAvailability, error)
}
