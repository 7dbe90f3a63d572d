package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// FinesHandler manages fine endpoints.
type FinesHandler struct {
	fines *service.FineService
}

// NewFinesHandler constructs handler.
func NewFinesHandler(fineService *service.FineService) *FinesHandler {
	return &FinesHandler{fines: fineService}
}

// Issue POST /staff/fines. Security or admin.
func (h *FinesHandler) Issue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.IssueFineRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return apperrors.NewValidationError("invalid amount", nil)
	}

	fine, err := h.fines.Issue(c.UserContext(), principal.User.ID, service.FineIssueInput{
		ParkingSlotID: req.ParkingSlotID,
		LicensePlate:  req.LicensePlate,
		Amount:        amount,
		Reason:        req.Reason,
		Description:   req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFineResponse(fine)})
}

// ListAll GET /staff/fines. Security or admin.
func (h *FinesHandler) ListAll(c *fiber.Ctx) error {
	fines, err := h.fines.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFineResponses(fines)})
}

// ListMine GET /fines.
func (h *FinesHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	fines, err := h.fines.ListForUser(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFineResponses(fines)})
}

// Get GET /staff/fines/:id.
func (h *FinesHandler) Get(c *fiber.Ctx) error {
	fine, err := h.fines.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFineResponse(fine)})
}

// Pay POST /fines/:id/pay.
func (h *FinesHandler) Pay(c *fiber.Ctx) error {
	fine, err := h.fines.Pay(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFineResponse(fine)})
}

// Dispute POST /fines/:id/dispute.
func (h *FinesHandler) Dispute(c *fiber.Ctx) error {
	var req dto.DisputeFineRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}

	fine, err := h.fines.Dispute(c.UserContext(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFineResponse(fine)})
}

// Cancel POST /staff/fines/:id/cancel. Security or admin.
func (h *FinesHandler) Cancel(c *fiber.Ctx) error {
	fine, err := h.fines.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFineResponse(fine)})
}
