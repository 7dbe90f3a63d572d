package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util"
)

// StatsService serves read-only dashboards for staff.
type StatsService struct {
	stats repository.StatsRepository
	now   func() time.Time
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalActiveSlots int
	OccupiedSlots    int
	AvailableSlots   int
	OccupancyPercent float64
	BookingsToday    int
	PendingPayments  int
	RevenueToday     decimal.Decimal
	Zones            []repository.ZoneOccupancy
}

// UserStats is the per-user booking summary.
type UserStats struct {
	TotalBookings     int
	ActiveBookings    int
	CompletedBookings int
	TotalAmountPaid   decimal.Decimal
}

// NewStatsService constructs the service.
func NewStatsService(stats repository.StatsRepository) *StatsService {
	return &StatsService{stats: stats, now: time.Now}
}

// Dashboard aggregates the fleet-wide numbers for today (UTC day boundary).
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	totalActive, err := s.stats.CountActiveSlots(ctx)
	if err != nil {
		return nil, err
	}
	occupied, err := s.stats.CountOccupiedSlots(ctx, now)
	if err != nil {
		return nil, err
	}
	bookingsToday, err := s.stats.CountBookingsCreatedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	pendingPayments, err := s.stats.CountPendingPayments(ctx)
	if err != nil {
		return nil, err
	}
	revenueToday, err := s.stats.SumCompletedPaymentsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	zones, err := s.stats.ZoneOccupancies(ctx, now)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalActiveSlots: totalActive,
		OccupiedSlots:    occupied,
		AvailableSlots:   totalActive - occupied,
		BookingsToday:    bookingsToday,
		PendingPayments:  pendingPayments,
		RevenueToday:     revenueToday,
		Zones:            zones,
	}
	if totalActive > 0 {
		stats.OccupancyPercent = float64(occupied) / float64(totalActive) * 100
	}
	return stats, nil
}

// RevenueReport sums completed payments over a date range.
type RevenueReport struct {
	From  time.Time
	To    time.Time
	Total decimal.Decimal
}

// Revenue reports completed payment revenue over [from, to). A zero `to`
// defaults to now.
func (s *StatsService) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	if to.IsZero() {
		to = s.now()
	}
	if !to.After(from) {
		return nil, apperrors.NewValidationError("revenue range end must be after start",
			map[string]any{"from": from, "to": to})
	}
	total, err := s.stats.SumCompletedPaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &RevenueReport{From: from, To: to, Total: total}, nil
}

// ForUser aggregates the user's booking figures.
func (s *StatsService) ForUser(ctx context.Context, userID string) (*UserStats, error) {
	counts, err := s.stats.UserCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		TotalBookings:     counts.Total,
		ActiveBookings:    counts.Active,
		CompletedBookings: counts.Completed,
		TotalAmountPaid:   counts.AmountPaid,
	}, nil
}
