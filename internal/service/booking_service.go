package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

const (
	minDurationHours = 1
	maxDurationHours = 24
)

// BookingService owns the booking lifecycle: availability checks, creation,
// extension, cancellation and completion.
type BookingService struct {
	bookings   repository.BookingRepository
	slots      repository.SlotRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	BookingRepo repository.BookingRepository
	SlotRepo    repository.SlotRepository
	Dispatcher  events.Dispatcher
}

// BookingCreateInput describes a booking request.
type BookingCreateInput struct {
	ParkingSlotID string
	LicensePlate  string
	StartTime     time.Time
	DurationHours int
}

// AvailabilityResult reports whether a slot can host a window. Estimated
// cost is populated whenever the slot exists, including on conflict, so
// callers can still display pricing.
type AvailabilityResult struct {
	Available     bool
	Message       string
	Conflicting   *domain.Booking
	EstimatedCost decimal.Decimal
}

// ExtensionCheck reports whether a booking can be pushed out and at what
// additional cost. Read-only.
type ExtensionCheck struct {
	CanExtend       bool
	Message         string
	AdditionalHours int
	AdditionalCost  decimal.Decimal
	Booking         *domain.Booking
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	return &BookingService{
		bookings:   deps.BookingRepo,
		slots:      deps.SlotRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// CheckAvailability determines whether the slot is free for the half-open
// window [start, start+durationHours). Side-effect free.
func (s *BookingService) CheckAvailability(ctx context.Context, slotID string, start time.Time, durationHours int, excludeBookingID *string) (*AvailabilityResult, error) {
	if durationHours < minDurationHours || durationHours > maxDurationHours {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("duration must be between %d and %d hours", minDurationHours, maxDurationHours), nil)
	}

	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &AvailabilityResult{
				Available:     false,
				Message:       "parking slot not found or inactive",
				EstimatedCost: decimal.Zero,
			}, nil
		}
		return nil, err
	}
	if !slot.IsActive {
		return &AvailabilityResult{
			Available:     false,
			Message:       "parking slot not found or inactive",
			EstimatedCost: decimal.Zero,
		}, nil
	}

	end := start.Add(time.Duration(durationHours) * time.Hour)
	estimatedCost := slot.HourlyRate.Mul(decimal.NewFromInt(int64(durationHours)))

	conflict, err := s.bookings.FindConflicting(ctx, slotID, start, end, excludeBookingID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return &AvailabilityResult{
			Available:     false,
			Message:       "slot is already booked for the selected time period",
			Conflicting:   conflict,
			EstimatedCost: estimatedCost,
		}, nil
	}

	return &AvailabilityResult{
		Available:     true,
		Message:       "slot is available",
		EstimatedCost: estimatedCost,
	}, nil
}

// Create books the slot for the user. The availability check is re-run
// inside the store transaction, so two concurrent calls on the same slot
// cannot both commit overlapping windows.
func (s *BookingService) Create(ctx context.Context, userID string, input BookingCreateInput) (*domain.Booking, error) {
	availability, err := s.CheckAvailability(ctx, input.ParkingSlotID, input.StartTime, input.DurationHours, nil)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, apperrors.NewConflict(availability.Message, conflictDetails(availability.Conflicting, availability.EstimatedCost))
	}

	slot, err := s.slots.GetByID(ctx, input.ParkingSlotID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		UserID:        userID,
		ParkingSlotID: input.ParkingSlotID,
		LicensePlate:  strings.ToUpper(strings.TrimSpace(input.LicensePlate)),
		StartTime:     input.StartTime,
		EndTime:       input.StartTime.Add(time.Duration(input.DurationHours) * time.Hour),
		DurationHours: input.DurationHours,
		TotalAmount:   slot.HourlyRate.Mul(decimal.NewFromInt(int64(input.DurationHours))),
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatePending,
	}

	conflict, err := s.bookings.CreateIfSlotFree(ctx, booking)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, apperrors.NewConflict("slot is already booked for the selected time period",
			conflictDetails(conflict, availability.EstimatedCost))
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventBookingCreated,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Payload: events.BookingCreatedPayload{
			ParkingSlotID: slot.ID,
			SlotNumber:    slot.SlotNumber,
			LicensePlate:  booking.LicensePlate,
			StartTime:     booking.StartTime,
			EndTime:       booking.EndTime,
			TotalAmount:   booking.TotalAmount,
		},
	})
	return booking, nil
}

// GetForUser fetches a booking ensuring ownership.
func (s *BookingService) GetForUser(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking", map[string]any{"booking_id": bookingID})
		}
		return nil, err
	}
	return booking, nil
}

// ListForUser returns the user's bookings, optionally filtered by status.
func (s *BookingService) ListForUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, status)
}

// ListAll returns every booking, optionally filtered by status.
func (s *BookingService) ListAll(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookings.ListAll(ctx, status)
}

// CheckExtension determines whether the booking can be pushed out by
// additionalHours. Only the added segment [currentEnd, currentEnd+add) is
// checked for conflicts; the booking's own window is excluded.
func (s *BookingService) CheckExtension(ctx context.Context, bookingID string, additionalHours int, userID string) (*ExtensionCheck, error) {
	if additionalHours < minDurationHours || additionalHours > maxDurationHours {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("additional hours must be between %d and %d", minDurationHours, maxDurationHours), nil)
	}

	booking, err := s.bookings.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking", map[string]any{"booking_id": bookingID})
		}
		return nil, err
	}
	if booking.IsTerminal() {
		return nil, apperrors.NewInvalidState("cannot extend a completed or cancelled booking",
			map[string]any{"status": booking.Status})
	}

	slot, err := s.slots.GetByID(ctx, booking.ParkingSlotID)
	if err != nil {
		return nil, err
	}
	additionalCost := slot.HourlyRate.Mul(decimal.NewFromInt(int64(additionalHours)))
	newEnd := booking.EndTime.Add(time.Duration(additionalHours) * time.Hour)

	conflict, err := s.bookings.FindConflicting(ctx, booking.ParkingSlotID, booking.EndTime, newEnd, &booking.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return &ExtensionCheck{
			CanExtend:       false,
			Message:         "cannot extend due to conflicting booking",
			AdditionalHours: additionalHours,
			AdditionalCost:  additionalCost,
			Booking:         booking,
		}, nil
	}

	return &ExtensionCheck{
		CanExtend:       true,
		Message:         "booking can be extended",
		AdditionalHours: additionalHours,
		AdditionalCost:  additionalCost,
		Booking:         booking,
	}, nil
}

// Extend pushes the booking's end time out. The conflict check is re-run
// inside the store transaction. The increment resets payment status: the
// added hours must be paid.
func (s *BookingService) Extend(ctx context.Context, bookingID string, additionalHours int, userID string) (*domain.Booking, error) {
	check, err := s.CheckExtension(ctx, bookingID, additionalHours, userID)
	if err != nil {
		return nil, err
	}
	if !check.CanExtend {
		return nil, apperrors.NewConflict(check.Message, conflictDetails(nil, check.AdditionalCost))
	}

	booking := check.Booking
	conflict, err := s.bookings.ExtendIfSlotFree(ctx, booking, additionalHours, check.AdditionalCost)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, apperrors.NewConflict("cannot extend due to conflicting booking",
			conflictDetails(conflict, check.AdditionalCost))
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventBookingExtended,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Payload: events.BookingExtendedPayload{
			AdditionalHours: additionalHours,
			AdditionalCost:  check.AdditionalCost,
			NewEndTime:      booking.EndTime,
			TotalAmount:     booking.TotalAmount,
		},
	})
	return booking, nil
}

// Cancel withdraws the booking. Returns false, without error, when the
// booking is absent or already terminal; a second cancel never touches the
// row again.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID string) (bool, error) {
	booking, err := s.bookings.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if booking.IsTerminal() {
		return false, nil
	}

	oldStatus := booking.Status
	booking.Status = domain.BookingStatusCancelled
	if err := s.bookings.Update(ctx, booking); err != nil {
		return false, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventBookingCancelled,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Payload: events.BookingStatusPayload{
			OldStatus: oldStatus,
			NewStatus: domain.BookingStatusCancelled,
		},
	})
	return true, nil
}

// Complete force-closes the booking. Returns false when absent or already
// cancelled; any other state completes unconditionally, including PENDING,
// so an operator can close a booking regardless of payment state.
func (s *BookingService) Complete(ctx context.Context, bookingID string) (bool, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if booking.Status == domain.BookingStatusCancelled {
		return false, nil
	}

	oldStatus := booking.Status
	booking.Status = domain.BookingStatusCompleted
	if err := s.bookings.Update(ctx, booking); err != nil {
		return false, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventBookingCompleted,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Payload: events.BookingStatusPayload{
			OldStatus: oldStatus,
			NewStatus: domain.BookingStatusCompleted,
			Forced:    oldStatus != domain.BookingStatusActive,
		},
	})
	return true, nil
}

// MarkNotificationSent flips the one-shot expiry warning flag. No-op when
// the booking is absent.
func (s *BookingService) MarkNotificationSent(ctx context.Context, bookingID string) error {
	return s.bookings.MarkNotificationSent(ctx, bookingID)
}

// ListExpiring returns ACTIVE bookings ending within warningMinutes that
// have not been warned yet.
func (s *BookingService) ListExpiring(ctx context.Context, warningMinutes int) ([]domain.Booking, error) {
	if warningMinutes <= 0 {
		return nil, apperrors.NewValidationError("warning minutes must be positive", nil)
	}
	return s.bookings.ListExpiring(ctx, s.now(), time.Duration(warningMinutes)*time.Minute)
}

func conflictDetails(conflict *domain.Booking, estimatedCost decimal.Decimal) map[string]any {
	details := map[string]any{
		"estimated_cost": estimatedCost,
	}
	if conflict != nil {
		details["conflicting_booking_id"] = conflict.ID
		details["conflicting_start"] = conflict.StartTime
		details["conflicting_end"] = conflict.EndTime
	}
	return details
}

func (s *BookingService) publishEvent(ctx context.Context, event events.Event) {
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
