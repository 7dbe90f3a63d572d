package dto

import (
	"time"

	"github.com/spec-kit/parking-service/internal/domain"
)

// NotificationResponse represents a user notification.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

// NewNotificationResponses maps a slice of domain notifications.
func NewNotificationResponses(notifications []domain.Notification) []NotificationResponse {
	items := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return items
}
