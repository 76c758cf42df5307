package converter

import (
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
)

func NotificationsToResponses(notifications []entity.Notification) []dto.NotificationResponse {
	responses := make([]dto.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = dto.NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			RelatedID: n.RelatedID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	return responses
}
