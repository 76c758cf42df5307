package repository

import (
	"context"

	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	// Create inserts the user together with its doctor profile when one is set.
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error)
	FindActiveDoctors(ctx context.Context) ([]entity.User, error)
}
