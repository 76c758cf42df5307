package handler

import (
	"errors"
	"net/http"

	"ayurveda-clinic-backend/internal/usecase"
	"ayurveda-clinic-backend/pkg/response"
)

type NotificationHandler struct {
	notificationUsecase usecase.NotificationUsecase
}

func NewNotificationHandler(notificationUsecase usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{
		notificationUsecase: notificationUsecase,
	}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationUsecase.GetNotifications(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get notifications")
		return
	}

	response.Success(w, http.StatusOK, "Notifications retrieved successfully", notifications)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid notification ID", nil)
		return
	}

	if err := h.notificationUsecase.MarkAsRead(r.Context(), id); err != nil {
		h.writeError(w, err, "Failed to mark notification as read")
		return
	}

	response.Success(w, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	res, err := h.notificationUsecase.MarkAllAsRead(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to mark notifications as read")
		return
	}

	response.Success(w, http.StatusOK, "All notifications marked as read", res)
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid notification ID", nil)
		return
	}

	if err := h.notificationUsecase.DeleteNotification(r.Context(), id); err != nil {
		h.writeError(w, err, "Failed to delete notification")
		return
	}

	response.Success(w, http.StatusOK, "Notification deleted successfully", nil)
}

func (h *NotificationHandler) DeleteAllNotifications(w http.ResponseWriter, r *http.Request) {
	res, err := h.notificationUsecase.DeleteAllNotifications(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to delete notifications")
		return
	}

	response.Success(w, http.StatusOK, "All notifications deleted", res)
}

func (h *NotificationHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if writeCommonError(w, err) {
		return
	}
	if errors.Is(err, usecase.ErrNotificationNotFound) {
		response.NotFound(w, "Notification not found")
		return
	}
	response.InternalServerError(w, fallback)
}
