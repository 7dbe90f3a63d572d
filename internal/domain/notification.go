package domain

import "time"

// NotificationType categorizes user-facing notifications.
type NotificationType string

const (
	NotificationTypeBookingExpiry       NotificationType = "BOOKING_EXPIRY"
	NotificationTypePaymentConfirmation NotificationType = "PAYMENT_CONFIRMATION"
	NotificationTypeFine                NotificationType = "FINE"
	NotificationTypeSystem              NotificationType = "SYSTEM"
)

// Notification is a persisted message for a user. Read notifications past
// the retention window are hard-deleted by the expiry worker; nothing else
// in the system deletes records.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}
