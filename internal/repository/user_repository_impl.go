package repository

import (
	"context"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"
	domainRepo "ayurveda-clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	store
}

func NewUserRepository(db *gorm.DB, storeTimeout time.Duration) domainRepo.UserRepository {
	return &userRepository{store: newStore(db, storeTimeout)}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	// gorm saves the has-one DoctorProfile in the same transaction
	return translateError(db.Omit("Role").Create(user).Error)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	var users []entity.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

func (r *userRepository) FindActiveDoctors(ctx context.Context) ([]entity.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var users []entity.User
	err := db.Preload("DoctorProfile").
		Where("role_id = ? AND is_active = ?", entity.RoleIDDoctor, true).
		Order("full_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user entity.User
	err := db.Preload("Role").Preload("DoctorProfile").Where(query, args...).First(&user).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &user, nil
}
