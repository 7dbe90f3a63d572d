package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// SlotsHandler manages the parking slot catalog.
type SlotsHandler struct {
	slots *service.SlotService
}

// NewSlotsHandler constructs handler.
func NewSlotsHandler(slotService *service.SlotService) *SlotsHandler {
	return &SlotsHandler{slots: slotService}
}

// List GET /slots.
func (h *SlotsHandler) List(c *fiber.Ctx) error {
	slots, err := h.slots.ListCatalog(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSlotResponses(slots)})
}

// ListWithStatus GET /slots/status.
func (h *SlotsHandler) ListWithStatus(c *fiber.Ctx) error {
	statuses, err := h.slots.ListActiveWithStatus(c.UserContext())
	if err != nil {
		return err
	}

	items := make([]dto.SlotStatusResponse, 0, len(statuses))
	for i := range statuses {
		item := dto.SlotStatusResponse{
			SlotResponse: dto.NewSlotResponse(&statuses[i].Slot),
			Occupied:     statuses[i].Occupied,
		}
		if statuses[i].CurrentBooking != nil {
			current := dto.NewBookingResponse(statuses[i].CurrentBooking)
			item.CurrentBooking = &current
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAvailable GET /slots/available. Active slots not occupied right now.
func (h *SlotsHandler) ListAvailable(c *fiber.Ctx) error {
	statuses, err := h.slots.ListActiveWithStatus(c.UserContext())
	if err != nil {
		return err
	}

	free := make([]dto.SlotResponse, 0, len(statuses))
	for i := range statuses {
		if !statuses[i].Occupied {
			free = append(free, dto.NewSlotResponse(&statuses[i].Slot))
		}
	}
	return c.JSON(fiber.Map{"data": free})
}

// Get GET /slots/:id.
func (h *SlotsHandler) Get(c *fiber.Ctx) error {
	slot, err := h.slots.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSlotResponse(slot)})
}

// CurrentBooking GET /slots/:id/current-booking. The booking occupying the
// slot right now; data is null when the slot is free.
func (h *SlotsHandler) CurrentBooking(c *fiber.Ctx) error {
	current, err := h.slots.CurrentBooking(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if current == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponse(current)})
}

// Create POST /admin/slots. Admin only.
func (h *SlotsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}
	rate, err := parseRate(req.HourlyRate)
	if err != nil {
		return err
	}

	slot := &domain.ParkingSlot{
		SlotNumber:  req.SlotNumber,
		Zone:        req.Zone,
		SlotType:    domain.SlotType(req.SlotType),
		HourlyRate:  rate,
		IsActive:    true,
		Description: req.Description,
	}
	if err := h.slots.Create(c.UserContext(), slot); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSlotResponse(slot)})
}

// Update PUT /admin/slots/:id. Admin only.
func (h *SlotsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}
	rate, err := parseRate(req.HourlyRate)
	if err != nil {
		return err
	}

	slot := &domain.ParkingSlot{
		ID:          c.Params("id"),
		SlotNumber:  req.SlotNumber,
		Zone:        req.Zone,
		SlotType:    domain.SlotType(req.SlotType),
		HourlyRate:  rate,
		IsActive:    *req.IsActive,
		Description: req.Description,
	}
	if err := h.slots.Update(c.UserContext(), slot); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSlotResponse(slot)})
}

// Delete DELETE /admin/slots/:id. Admin only.
func (h *SlotsHandler) Delete(c *fiber.Ctx) error {
	if err := h.slots.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("invalid hourly_rate", nil)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, apperrors.NewValidationError("hourly_rate must be positive", nil)
	}
	return rate, nil
}
