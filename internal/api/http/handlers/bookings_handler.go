package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// BookingsHandler manages booking lifecycle endpoints.
type BookingsHandler struct {
	bookings *service.BookingService
}

// NewBookingsHandler constructs handler.
func NewBookingsHandler(bookingService *service.BookingService) *BookingsHandler {
	return &BookingsHandler{bookings: bookingService}
}

// CheckAvailability POST /bookings/check-availability.
func (h *BookingsHandler) CheckAvailability(c *fiber.Ctx) error {
	var req dto.CheckAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}

	result, err := h.bookings.CheckAvailability(c.UserContext(), req.ParkingSlotID, req.StartTime, req.DurationHours, nil)
	if err != nil {
		return err
	}

	resp := dto.AvailabilityResponse{
		Available:     result.Available,
		Message:       result.Message,
		EstimatedCost: result.EstimatedCost,
	}
	if result.Conflicting != nil {
		conflict := dto.NewBookingResponse(result.Conflicting)
		resp.Conflicting = &conflict
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Create POST /bookings.
func (h *BookingsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}

	booking, err := h.bookings.Create(c.UserContext(), principal.User.ID, service.BookingCreateInput{
		ParkingSlotID: req.ParkingSlotID,
		LicensePlate:  req.LicensePlate,
		StartTime:     req.StartTime,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewBookingResponse(booking)})
}

// List GET /bookings.
func (h *BookingsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	bookings, err := h.bookings.ListForUser(c.UserContext(), principal.User.ID, parseStatusFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponses(bookings)})
}

// ListAll GET /admin/bookings.
func (h *BookingsHandler) ListAll(c *fiber.Ctx) error {
	bookings, err := h.bookings.ListAll(c.UserContext(), parseStatusFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponses(bookings)})
}

// ListExpiring GET /admin/bookings/expiring?minutes=N. Staff only.
func (h *BookingsHandler) ListExpiring(c *fiber.Ctx) error {
	minutes, err := strconv.Atoi(c.Query("minutes", "15"))
	if err != nil {
		return apperrors.NewValidationError("invalid minutes parameter", nil)
	}

	bookings, err := h.bookings.ListExpiring(c.UserContext(), minutes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponses(bookings)})
}

// Get GET /bookings/:id.
func (h *BookingsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	booking, err := h.bookings.GetForUser(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponse(booking)})
}

// CheckExtension GET /bookings/:id/check-extension?hours=N.
func (h *BookingsHandler) CheckExtension(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	hours, err := strconv.Atoi(c.Query("hours", "1"))
	if err != nil {
		return apperrors.NewValidationError("invalid hours parameter", nil)
	}

	check, err := h.bookings.CheckExtension(c.UserContext(), c.Params("id"), hours, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ExtensionCheckResponse{
		CanExtend:       check.CanExtend,
		Message:         check.Message,
		AdditionalHours: check.AdditionalHours,
		AdditionalCost:  check.AdditionalCost,
		NewEndTime:      check.Booking.EndTime.Add(time.Duration(check.AdditionalHours) * time.Hour),
	}})
}

// Extend POST /bookings/:id/extend.
func (h *BookingsHandler) Extend(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ExtendBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}

	booking, err := h.bookings.Extend(c.UserContext(), c.Params("id"), req.AdditionalHours, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBookingResponse(booking)})
}

// Cancel POST /bookings/:id/cancel.
func (h *BookingsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	cancelled, err := h.bookings.Cancel(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"cancelled": cancelled}})
}

// Complete POST /admin/bookings/:id/complete. Staff only.
func (h *BookingsHandler) Complete(c *fiber.Ctx) error {
	completed, err := h.bookings.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"completed": completed}})
}

func parseStatusFilter(c *fiber.Ctx) *domain.BookingStatus {
	if raw := c.Query("status"); raw != "" {
		status := domain.BookingStatus(raw)
		return &status
	}
	return nil
}
