package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/cache"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// SlotService manages the parking slot catalog. Administrative writes
// invalidate the Redis catalog cache; reads fall back to Postgres on miss.
type SlotService struct {
	slots    repository.SlotRepository
	bookings repository.BookingRepository
	catalog  *cache.SlotCache
	logger   *zap.Logger
	now      func() time.Time
}

// SlotDependencies bundles collaborators for the slot service.
type SlotDependencies struct {
	SlotRepo    repository.SlotRepository
	BookingRepo repository.BookingRepository
	Catalog     *cache.SlotCache
	Logger      *zap.Logger
}

// SlotStatus pairs a slot with its live occupancy.
type SlotStatus struct {
	Slot           domain.ParkingSlot
	Occupied       bool
	CurrentBooking *domain.Booking
}

// NewSlotService constructs the service.
func NewSlotService(deps SlotDependencies) *SlotService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{
		slots:    deps.SlotRepo,
		bookings: deps.BookingRepo,
		catalog:  deps.Catalog,
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a new slot. Slot numbers are unique.
func (s *SlotService) Create(ctx context.Context, slot *domain.ParkingSlot) error {
	existing, err := s.slots.GetBySlotNumber(ctx, slot.SlotNumber)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if existing != nil {
		return apperrors.NewConflict("slot number already exists",
			map[string]any{"slot_number": slot.SlotNumber})
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// Update modifies an existing slot.
func (s *SlotService) Update(ctx context.Context, slot *domain.ParkingSlot) error {
	existing, err := s.slots.GetBySlotNumber(ctx, slot.SlotNumber)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if existing != nil && existing.ID != slot.ID {
		return apperrors.NewConflict("slot number already exists",
			map[string]any{"slot_number": slot.SlotNumber})
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("parking slot", map[string]any{"slot_id": slot.ID})
		}
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// Delete removes a slot. Slots with non-terminal bookings cannot be removed;
// deactivate them instead.
func (s *SlotService) Delete(ctx context.Context, id string) error {
	inUse, err := s.bookings.HasNonTerminalForSlot(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.NewConflict("slot has active bookings and cannot be deleted",
			map[string]any{"slot_id": id})
	}

	if err := s.slots.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("parking slot", map[string]any{"slot_id": id})
		}
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// Get fetches one slot.
func (s *SlotService) Get(ctx context.Context, id string) (*domain.ParkingSlot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("parking slot", map[string]any{"slot_id": id})
		}
		return nil, err
	}
	return slot, nil
}

// ListCatalog returns every slot, served from cache when warm.
func (s *SlotService) ListCatalog(ctx context.Context) ([]domain.ParkingSlot, error) {
	if slots, err := s.catalog.GetCatalog(ctx); err == nil {
		return slots, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("slot catalog cache read failed", zap.Error(err))
	}

	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.SetCatalog(ctx, slots); err != nil {
		s.logger.Warn("slot catalog cache write failed", zap.Error(err))
	}
	return slots, nil
}

// ListActiveWithStatus returns active slots annotated with live occupancy.
func (s *SlotService) ListActiveWithStatus(ctx context.Context) ([]SlotStatus, error) {
	slots, err := s.slots.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]SlotStatus, 0, len(slots))
	for _, slot := range slots {
		current, err := s.bookings.FindCurrentForSlot(ctx, slot.ID, now)
		if err != nil {
			return nil, err
		}
		result = append(result, SlotStatus{
			Slot:           slot,
			Occupied:       current != nil,
			CurrentBooking: current,
		})
	}
	return result, nil
}

// CurrentBooking returns the booking occupying the slot right now, nil when
// the slot is free.
func (s *SlotService) CurrentBooking(ctx context.Context, slotID string) (*domain.Booking, error) {
	if _, err := s.Get(ctx, slotID); err != nil {
		return nil, err
	}
	return s.bookings.FindCurrentForSlot(ctx, slotID, s.now())
}

func (s *SlotService) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logger.Warn("slot catalog cache invalidation failed", zap.Error(err))
	}
}
