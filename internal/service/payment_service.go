package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// PaymentService settles booking payments. There is no real gateway; the
// transaction identifier is generated locally and settlement always
// succeeds, matching the simulated processor the rest of the system expects.
type PaymentService struct {
	payments   repository.PaymentRepository
	bookings   repository.BookingRepository
	slots      repository.SlotRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// PaymentDependencies bundles collaborators for the payment service.
type PaymentDependencies struct {
	PaymentRepo repository.PaymentRepository
	BookingRepo repository.BookingRepository
	SlotRepo    repository.SlotRepository
	Dispatcher  events.Dispatcher
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments:   deps.PaymentRepo,
		bookings:   deps.BookingRepo,
		slots:      deps.SlotRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// Process settles the outstanding amount on the user's booking. The booking
// activates on confirmation: PENDING and EXTENDED both become ACTIVE.
func (s *PaymentService) Process(ctx context.Context, userID, bookingID string, method domain.PaymentMethod) (*domain.Payment, error) {
	booking, err := s.bookings.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking", map[string]any{"booking_id": bookingID})
		}
		return nil, err
	}
	if booking.IsTerminal() {
		return nil, apperrors.NewInvalidState("cannot pay for a completed or cancelled booking",
			map[string]any{"status": booking.Status})
	}
	if booking.PaymentStatus == domain.PaymentStateCompleted {
		return nil, apperrors.NewConflict("booking is already paid",
			map[string]any{"booking_id": booking.ID})
	}

	slot, err := s.slots.GetByID(ctx, booking.ParkingSlotID)
	if err != nil {
		return nil, err
	}

	paidAt := s.now()
	payment := &domain.Payment{
		BookingID:     booking.ID,
		Method:        method,
		Amount:        booking.TotalAmount,
		Status:        domain.PaymentStateCompleted,
		TransactionID: fmt.Sprintf("TXN-%s", uuid.NewString()),
		Details:       fmt.Sprintf("payment for slot %s", slot.SlotNumber),
		PaidAt:        &paidAt,
	}

	booking.Status = domain.BookingStatusActive
	booking.PaymentStatus = domain.PaymentStateCompleted
	if err := s.payments.SettleWithBooking(ctx, payment, booking); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventPaymentConfirmed,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Payload: events.PaymentConfirmedPayload{
			PaymentID:     payment.ID,
			TransactionID: payment.TransactionID,
			Amount:        payment.Amount,
			SlotNumber:    slot.SlotNumber,
		},
	})
	return payment, nil
}

// ListForBooking returns the payment history of the user's booking.
func (s *PaymentService) ListForBooking(ctx context.Context, userID, bookingID string) ([]domain.Payment, error) {
	if _, err := s.bookings.GetByIDForUser(ctx, bookingID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking", map[string]any{"booking_id": bookingID})
		}
		return nil, err
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

// Get fetches one payment. Staff only.
func (s *PaymentService) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("payment", map[string]any{"payment_id": paymentID})
		}
		return nil, err
	}
	return payment, nil
}

// Confirm settles a payment that was recorded but not completed, such as a
// cash payment awaiting the attendant. The booking activates with it.
func (s *PaymentService) Confirm(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatePending {
		return nil, apperrors.NewInvalidState("only pending payments can be confirmed",
			map[string]any{"status": payment.Status})
	}

	paidAt := s.now()
	payment.Status = domain.PaymentStateCompleted
	payment.PaidAt = &paidAt
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsTerminal() {
		booking.Status = domain.BookingStatusActive
		booking.PaymentStatus = domain.PaymentStateCompleted
		if err := s.bookings.Update(ctx, booking); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

// Refund marks a completed payment refunded. Staff only; the booking's
// payment axis is reset so the amount shows as outstanding again.
func (s *PaymentService) Refund(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("payment", map[string]any{"payment_id": paymentID})
		}
		return nil, err
	}
	if payment.Status != domain.PaymentStateCompleted {
		return nil, apperrors.NewInvalidState("only completed payments can be refunded",
			map[string]any{"status": payment.Status})
	}

	payment.Status = domain.PaymentStateRefunded
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err == nil && !booking.IsTerminal() {
		booking.PaymentStatus = domain.PaymentStateRefunded
		if err := s.bookings.Update(ctx, booking); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

func (s *PaymentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
