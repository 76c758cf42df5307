package repository

import (
	"context"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"
	domainRepo "ayurveda-clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type notificationRepository struct {
	store
}

func NewNotificationRepository(db *gorm.DB, storeTimeout time.Duration) domainRepo.NotificationRepository {
	return &notificationRepository{store: newStore(db, storeTimeout)}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translateError(db.Create(notification).Error)
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Notification, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var notifications []entity.Notification
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, translateError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, translateError(err)
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return result.RowsAffected, translateError(result.Error)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, translateError(result.Error)
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&entity.Notification{})
	return result.RowsAffected, translateError(result.Error)
}

func (r *notificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("user_id = ?", userID).Delete(&entity.Notification{})
	return result.RowsAffected, translateError(result.Error)
}
