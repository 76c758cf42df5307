package repository

import (
	"context"

	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}
