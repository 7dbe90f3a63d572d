package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// StatsHandler exposes read-only statistics endpoints.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: statsService}
}

// Dashboard GET /admin/stats/dashboard. Staff only.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.stats.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(stats)})
}

// Revenue GET /admin/stats/revenue?from=&to=. Staff only. Dates are RFC 3339;
// `from` defaults to the start of the current UTC day, `to` to now.
func (h *StatsHandler) Revenue(c *fiber.Ctx) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var to time.Time

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("from must be an RFC 3339 timestamp",
				map[string]any{"from": raw})
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("to must be an RFC 3339 timestamp",
				map[string]any{"to": raw})
		}
		to = parsed
	}

	report, err := h.stats.Revenue(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRevenueResponse(report)})
}

// Mine GET /users/me/stats.
func (h *StatsHandler) Mine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.stats.ForUser(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserStatsResponse(stats)})
}
