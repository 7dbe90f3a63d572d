package service

import (
	"context"
	"errors"
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

// FineService handles fines issued by security staff against license plates.
type FineService struct {
	fines      repository.FineRepository
	bookings   repository.BookingRepository
	slots      repository.SlotRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// FineDependencies bundles collaborators for the fine service.
type FineDependencies struct {
	FineRepo    repository.FineRepository
	BookingRepo repository.BookingRepository
	SlotRepo    repository.SlotRepository
	Dispatcher  events.Dispatcher
}

// FineIssueInput describes a new fine.
type FineIssueInput struct {
	ParkingSlotID string
	LicensePlate  string
	Amount        decimal.Decimal
	Reason        string
	Description   string
}

// NewFineService constructs the service.
func NewFineService(deps FineDependencies) *FineService {
	return &FineService{
		fines:      deps.FineRepo,
		bookings:   deps.BookingRepo,
		slots:      deps.SlotRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// Issue records a fine against a plate. When the plate matches a known
// booking, the fine is attached to that booking and its owner so it shows in
// the owner's history.
func (s *FineService) Issue(ctx context.Context, issuerID string, input FineIssueInput) (*domain.Fine, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidationError("fine amount must be positive", nil)
	}

	if _, err := s.slots.GetByID(ctx, input.ParkingSlotID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("parking slot", map[string]any{"slot_id": input.ParkingSlotID})
		}
		return nil, err
	}

	plate := strings.ToUpper(strings.TrimSpace(input.LicensePlate))

	fine := &domain.Fine{
		IssuedByUserID: issuerID,
		ParkingSlotID:  input.ParkingSlotID,
		LicensePlate:   plate,
		Amount:         input.Amount,
		Reason:         input.Reason,
		Description:    input.Description,
		Status:         domain.FineStatusIssued,
	}

	booking, err := s.bookings.FindLatestByLicensePlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	if booking != nil {
		fine.UserID = &booking.UserID
		fine.BookingID = &booking.ID
	}

	if err := s.fines.Create(ctx, fine); err != nil {
		return nil, err
	}

	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventFineIssued,
		Timestamp: s.now(),
		Payload: events.FineIssuedPayload{
			FineID:       fine.ID,
			LicensePlate: fine.LicensePlate,
			Amount:       fine.Amount,
			Reason:       fine.Reason,
		},
	}
	if fine.UserID != nil {
		event.UserID = *fine.UserID
	}
	if fine.BookingID != nil {
		event.BookingID = *fine.BookingID
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, event)
	}
	return fine, nil
}

// Pay settles an issued or disputed fine.
func (s *FineService) Pay(ctx context.Context, fineID string) (*domain.Fine, error) {
	fine, err := s.get(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if fine.Status == domain.FineStatusPaid || fine.Status == domain.FineStatusCancelled {
		return nil, apperrors.NewInvalidState("fine is already settled",
			map[string]any{"status": fine.Status})
	}

	paidAt := s.now()
	fine.Status = domain.FineStatusPaid
	fine.PaidAt = &paidAt
	if err := s.fines.Update(ctx, fine); err != nil {
		return nil, err
	}
	return fine, nil
}

// Dispute moves an issued fine into the disputed state.
func (s *FineService) Dispute(ctx context.Context, fineID, reason string) (*domain.Fine, error) {
	fine, err := s.get(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if fine.Status != domain.FineStatusIssued {
		return nil, apperrors.NewInvalidState("only issued fines can be disputed",
			map[string]any{"status": fine.Status})
	}

	fine.Status = domain.FineStatusDisputed
	if reason != "" {
		fine.Description = reason
	}
	if err := s.fines.Update(ctx, fine); err != nil {
		return nil, err
	}
	return fine, nil
}

// Cancel voids a fine that has not been paid.
func (s *FineService) Cancel(ctx context.Context, fineID string) (*domain.Fine, error) {
	fine, err := s.get(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if fine.Status == domain.FineStatusPaid {
		return nil, apperrors.NewInvalidState("paid fines cannot be cancelled",
			map[string]any{"status": fine.Status})
	}

	fine.Status = domain.FineStatusCancelled
	if err := s.fines.Update(ctx, fine); err != nil {
		return nil, err
	}
	return fine, nil
}

// Get fetches one fine.
func (s *FineService) Get(ctx context.Context, fineID string) (*domain.Fine, error) {
	return s.get(ctx, fineID)
}

// ListAll returns every fine, newest first.
func (s *FineService) ListAll(ctx context.Context) ([]domain.Fine, error) {
	return s.fines.ListAll(ctx)
}

// ListForUser returns the fines attached to the user.
func (s *FineService) ListForUser(ctx context.Context, userID string) ([]domain.Fine, error) {
	return s.fines.ListByUser(ctx, userID)
}

func (s *FineService) get(ctx context.Context, fineID string) (*domain.Fine, error) {
	fine, err := s.fines.GetByID(ctx, fineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("fine", map[string]any{"fine_id": fineID})
		}
		return nil, err
	}
	return fine, nil
}
