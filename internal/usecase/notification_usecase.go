package usecase

import (
	"context"
	"errors"

	"ayurveda-clinic-backend/internal/converter"
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationListLimit = 50

type NotificationUsecase interface {
	GetNotifications(ctx context.Context) (*dto.NotificationListResponse, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context) (*dto.BulkUpdateResponse, error)
	DeleteNotification(ctx context.Context, id uuid.UUID) error
	DeleteAllNotifications(ctx context.Context) (*dto.BulkUpdateResponse, error)
}

type notificationUsecase struct {
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
}

func NewNotificationUsecase(log *logrus.Logger, notificationRepo repository.NotificationRepository) NotificationUsecase {
	return &notificationUsecase{
		log:              log,
		notificationRepo: notificationRepo,
	}
}

// GetNotifications returns the caller's most recent notifications, newest first.
func (u *notificationUsecase) GetNotifications(ctx context.Context) (*dto.NotificationListResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	notifications, err := u.notificationRepo.FindByUser(ctx, caller.ID, notificationListLimit)
	if err != nil {
		u.log.Warnf("Failed to find notifications for user %s: %+v", caller.ID, err)
		return nil, storeError(err)
	}
	unread, err := u.notificationRepo.CountUnread(ctx, caller.ID)
	if err != nil {
		u.log.Warnf("Failed to count unread notifications for user %s: %+v", caller.ID, err)
		return nil, storeError(err)
	}

	return &dto.NotificationListResponse{
		Notifications: converter.NotificationsToResponses(notifications),
		UnreadCount:   unread,
		Total:         len(notifications),
	}, nil
}

func (u *notificationUsecase) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	caller, err := currentActor(ctx)
	if err != nil {
		return err
	}

	affected, err := u.notificationRepo.MarkRead(ctx, id, caller.ID)
	if err != nil {
		u.log.Warnf("Failed to mark notification %s as read: %+v", id, err)
		return storeError(err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (u *notificationUsecase) MarkAllAsRead(ctx context.Context) (*dto.BulkUpdateResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	affected, err := u.notificationRepo.MarkAllRead(ctx, caller.ID)
	if err != nil {
		u.log.Warnf("Failed to mark notifications as read for user %s: %+v", caller.ID, err)
		return nil, storeError(err)
	}
	return &dto.BulkUpdateResponse{Affected: affected}, nil
}

func (u *notificationUsecase) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	caller, err := currentActor(ctx)
	if err != nil {
		return err
	}

	affected, err := u.notificationRepo.Delete(ctx, id, caller.ID)
	if err != nil {
		u.log.Warnf("Failed to delete notification %s: %+v", id, err)
		return storeError(err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (u *notificationUsecase) DeleteAllNotifications(ctx context.Context) (*dto.BulkUpdateResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	affected, err := u.notificationRepo.DeleteAll(ctx, caller.ID)
	if err != nil {
		u.log.Warnf("Failed to delete notifications for user %s: %+v", caller.ID, err)
		return nil, storeError(err)
	}
	return &dto.BulkUpdateResponse{Affected: affected}, nil
}

