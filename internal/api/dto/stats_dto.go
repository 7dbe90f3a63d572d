package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/service"
)

// ZoneOccupancyResponse summarizes one zone.
type ZoneOccupancyResponse struct {
	Zone          string `json:"zone"`
	TotalSlots    int    `json:"total_slots"`
	OccupiedSlots int    `json:"occupied_slots"`
}

// DashboardResponse is the admin overview.
type DashboardResponse struct {
	TotalActiveSlots int                     `json:"total_active_slots"`
	OccupiedSlots    int                     `json:"occupied_slots"`
	AvailableSlots   int                     `json:"available_slots"`
	OccupancyPercent float64                 `json:"occupancy_percent"`
	BookingsToday    int                     `json:"bookings_today"`
	PendingPayments  int                     `json:"pending_payments"`
	RevenueToday     decimal.Decimal         `json:"revenue_today"`
	Zones            []ZoneOccupancyResponse `json:"zones"`
}

// UserStatsResponse is the per-user summary.
type UserStatsResponse struct {
	TotalBookings     int             `json:"total_bookings"`
	ActiveBookings    int             `json:"active_bookings"`
	CompletedBookings int             `json:"completed_bookings"`
	TotalAmountPaid   decimal.Decimal `json:"total_amount_paid"`
}

// RevenueResponse reports completed payment revenue over a range.
type RevenueResponse struct {
	From  time.Time       `json:"from"`
	To    time.Time       `json:"to"`
	Total decimal.Decimal `json:"total"`
}

// NewRevenueResponse maps a revenue report.
func NewRevenueResponse(report *service.RevenueReport) RevenueResponse {
	return RevenueResponse{From: report.From, To: report.To, Total: report.Total}
}

// NewDashboardResponse maps dashboard stats.
func NewDashboardResponse(stats *service.DashboardStats) DashboardResponse {
	zones := make([]ZoneOccupancyResponse, 0, len(stats.Zones))
	for _, z := range stats.Zones {
		zones = append(zones, ZoneOccupancyResponse{
			Zone:          z.Zone,
			TotalSlots:    z.TotalSlots,
			OccupiedSlots: z.OccupiedSlots,
		})
	}
	return DashboardResponse{
		TotalActiveSlots: stats.TotalActiveSlots,
		OccupiedSlots:    stats.OccupiedSlots,
		AvailableSlots:   stats.AvailableSlots,
		OccupancyPercent: stats.OccupancyPercent,
		BookingsToday:    stats.BookingsToday,
		PendingPayments:  stats.PendingPayments,
		RevenueToday:     stats.RevenueToday,
		Zones:            zones,
	}
}

// NewUserStatsResponse maps user stats.
func NewUserStatsResponse(stats *service.UserStats) UserStatsResponse {
	return UserStatsResponse{
		TotalBookings:     stats.TotalBookings,
		ActiveBookings:    stats.ActiveBookings,
		CompletedBookings: stats.CompletedBookings,
		TotalAmountPaid:   stats.TotalAmountPaid,
	}
}
