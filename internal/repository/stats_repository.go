package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// ZoneOccupancy aggregates slot usage per zone.
type ZoneOccupancy struct {
	Zone          string
	TotalSlots    int
	OccupiedSlots int
}

// UserBookingCounts aggregates per-user booking figures.
type UserBookingCounts struct {
	Total      int
	Active     int
	Completed  int
	AmountPaid decimal.Decimal
}

// StatsRepository provides the fixed aggregate queries behind the statistics
// endpoints. Read-only.
type StatsRepository interface {
	CountActiveSlots(ctx context.Context) (int, error)
	CountOccupiedSlots(ctx context.Context, now time.Time) (int, error)
	CountBookingsCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	CountPendingPayments(ctx context.Context) (int, error)
	SumCompletedPaymentsBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	ZoneOccupancies(ctx context.Context, now time.Time) ([]ZoneOccupancy, error)
	UserCounts(ctx context.Context, userID string) (*UserBookingCounts, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository instantiates repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) CountActiveSlots(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM parking_slots WHERE is_active`).Scan(&count)
	return count, err
}

func (r *statsRepository) CountOccupiedSlots(ctx context.Context, now time.Time) (int, error) {
	const query = `
        SELECT COUNT(DISTINCT parking_slot_id) FROM bookings
        WHERE status=$1 AND start_time <= $2 AND end_time > $2`
	var count int
	err := r.pool.QueryRow(ctx, query, domain.BookingStatusActive, now).Scan(&count)
	return count, err
}

func (r *statsRepository) CountBookingsCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE created_at >= $1 AND created_at < $2`, from, to).Scan(&count)
	return count, err
}

func (r *statsRepository) CountPendingPayments(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE payment_status=$1`, domain.PaymentStatePending).Scan(&count)
	return count, err
}

func (r *statsRepository) SumCompletedPaymentsBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	const query = `
        SELECT COALESCE(SUM(amount), 0) FROM payments
        WHERE status=$1 AND paid_at >= $2 AND paid_at < $3`
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, query, domain.PaymentStateCompleted, from, to).Scan(&total)
	return total, err
}

func (r *statsRepository) ZoneOccupancies(ctx context.Context, now time.Time) ([]ZoneOccupancy, error) {
	const query = `
        SELECT s.zone,
               COUNT(*) AS total_slots,
               COUNT(b.id) AS occupied_slots
        FROM parking_slots s
        LEFT JOIN bookings b
          ON b.parking_slot_id = s.id
         AND b.status = $1
         AND b.start_time <= $2
         AND b.end_time > $2
        WHERE s.is_active
        GROUP BY s.zone
        ORDER BY s.zone`
	rows, err := r.pool.Query(ctx, query, domain.BookingStatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ZoneOccupancy
	for rows.Next() {
		var zone ZoneOccupancy
		if err := rows.Scan(&zone.Zone, &zone.TotalSlots, &zone.OccupiedSlots); err != nil {
			return nil, err
		}
		result = append(result, zone)
	}
	return result, rows.Err()
}

func (r *statsRepository) UserCounts(ctx context.Context, userID string) (*UserBookingCounts, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status=$2),
               COUNT(*) FILTER (WHERE status=$3),
               COALESCE(SUM(total_amount) FILTER (WHERE payment_status=$4), 0)
        FROM bookings WHERE user_id=$1`
	var counts UserBookingCounts
	if err := r.pool.QueryRow(ctx, query,
		userID,
		domain.BookingStatusActive,
		domain.BookingStatusCompleted,
		domain.PaymentStateCompleted,
	).Scan(&counts.Total, &counts.Active, &counts.Completed, &counts.AmountPaid); err != nil {
		return nil, err
	}
	return &counts, nil
}
