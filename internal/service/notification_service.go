package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// NotificationService persists user notifications. It subscribes to domain
// events and converts them into inbox rows; delivery failures are logged and
// swallowed so they never break the operation that emitted the event.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationService constructs the service and registers its event
// subscriptions.
func NewNotificationService(repo repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{notifications: repo, logger: logger}

	if dispatcher != nil {
		dispatcher.Subscribe(events.EventBookingCreated, s.onBookingCreated)
		dispatcher.Subscribe(events.EventBookingExtended, s.onBookingExtended)
		dispatcher.Subscribe(events.EventBookingCancelled, s.onBookingCancelled)
		dispatcher.Subscribe(events.EventBookingExpiryWarning, s.onExpiryWarning)
		dispatcher.Subscribe(events.EventPaymentConfirmed, s.onPaymentConfirmed)
		dispatcher.Subscribe(events.EventFineIssued, s.onFineIssued)
	}
	return s
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly)
}

// MarkRead flags one notification read, scoped to its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	updated, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

// Notify persists an arbitrary notification for a user.
func (s *NotificationService) Notify(ctx context.Context, userID, title, message string, kind domain.NotificationType) error {
	return s.notifications.Create(ctx, &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	})
}

func (s *NotificationService) onBookingCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BookingCreatedPayload)
	if !ok {
		return nil
	}
	return s.deliver(ctx, event.UserID, "Booking created",
		fmt.Sprintf("Slot %s is reserved for %s from %s to %s. Amount due: %s.",
			payload.SlotNumber, payload.LicensePlate,
			payload.StartTime.Format("2006-01-02 15:04"),
			payload.EndTime.Format("2006-01-02 15:04"),
			payload.TotalAmount.StringFixed(2)),
		domain.NotificationTypeSystem)
}

func (s *NotificationService) onBookingExtended(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BookingExtendedPayload)
	if !ok {
		return nil
	}
	return s.deliver(ctx, event.UserID, "Booking extended",
		fmt.Sprintf("Your booking now ends at %s. Additional amount due: %s.",
			payload.NewEndTime.Format("2006-01-02 15:04"),
			payload.AdditionalCost.StringFixed(2)),
		domain.NotificationTypeSystem)
}

func (s *NotificationService) onBookingCancelled(ctx context.Context, event events.Event) error {
	return s.deliver(ctx, event.UserID, "Booking cancelled",
		"Your booking has been cancelled.", domain.NotificationTypeSystem)
}

func (s *NotificationService) onExpiryWarning(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ExpiryWarningPayload)
	if !ok {
		return nil
	}
	return s.deliver(ctx, event.UserID, "Booking expiring soon",
		fmt.Sprintf("Your booking on slot %s ends at %s, in about %d minutes. Extend it if you need more time.",
			payload.SlotNumber,
			payload.EndTime.Format("15:04"),
			payload.MinutesRemaining),
		domain.NotificationTypeBookingExpiry)
}

func (s *NotificationService) onPaymentConfirmed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PaymentConfirmedPayload)
	if !ok {
		return nil
	}
	return s.deliver(ctx, event.UserID, "Payment confirmed",
		fmt.Sprintf("Payment of %s for slot %s received. Transaction %s.",
			payload.Amount.StringFixed(2), payload.SlotNumber, payload.TransactionID),
		domain.NotificationTypePaymentConfirmation)
}

func (s *NotificationService) onFineIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FineIssuedPayload)
	if !ok {
		return nil
	}
	if event.UserID == "" {
		// Unregistered plate; nobody to notify.
		return nil
	}
	return s.deliver(ctx, event.UserID, "Fine issued",
		fmt.Sprintf("A fine of %s was issued against plate %s: %s.",
			payload.Amount.StringFixed(2), payload.LicensePlate, payload.Reason),
		domain.NotificationTypeFine)
}

func (s *NotificationService) deliver(ctx context.Context, userID, title, message string, kind domain.NotificationType) error {
	if userID == "" {
		return nil
	}
	if err := s.Notify(ctx, userID, title, message, kind); err != nil {
		s.logger.Error("notification delivery failed",
			zap.String("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
	}
	return nil
}
