package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// PaymentsHandler manages payment endpoints.
type PaymentsHandler struct {
	payments *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: paymentService}
}

// Process POST /payments.
func (h *PaymentsHandler) Process(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProcessPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := apperrors.ValidateStruct(req); fields != nil {
		return apperrors.NewValidationError("validation failed", validationDetails(fields))
	}

	payment, err := h.payments.Process(c.UserContext(), principal.User.ID, req.BookingID, domain.PaymentMethod(req.Method))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPaymentResponse(payment)})
}

// ListForBooking GET /bookings/:id/payments.
func (h *PaymentsHandler) ListForBooking(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	payments, err := h.payments.ListForBooking(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentResponses(payments)})
}

// Get GET /staff/payments/:id. Staff only.
func (h *PaymentsHandler) Get(c *fiber.Ctx) error {
	payment, err := h.payments.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentResponse(payment)})
}

// Confirm POST /staff/payments/:id/confirm. Staff only.
func (h *PaymentsHandler) Confirm(c *fiber.Ctx) error {
	payment, err := h.payments.Confirm(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentResponse(payment)})
}

// Refund POST /admin/payments/:id/refund. Admin only.
func (h *PaymentsHandler) Refund(c *fiber.Ctx) error {
	payment, err := h.payments.Refund(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentResponse(payment)})
}
