package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

const bookingColumns = `id, user_id, parking_slot_id, license_plate, start_time, end_time,
               duration_hours, total_amount, status, payment_status, notification_sent,
               created_at, updated_at`

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so conflict queries can
// run inside or outside a transaction.
type dbtx interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BookingRepository encapsulates booking persistence. The queries are fixed
// and named rather than composed from predicates; create and extend run
// inside a transaction that locks the slot row and re-checks conflicts, so
// two concurrent writers on the same slot serialize at the store.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error)
	ListAll(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error)

	// FindConflicting returns the first booking on the slot whose half-open
	// window intersects [start, end) and whose status still occupies the
	// slot. Read-only; used by availability checks.
	FindConflicting(ctx context.Context, slotID string, start, end time.Time, excludeID *string) (*domain.Booking, error)

	// CreateIfSlotFree inserts the booking unless a conflicting booking
	// exists; the returned booking is the conflict (nil means inserted).
	CreateIfSlotFree(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)

	// ExtendIfSlotFree pushes the booking's end time out by additionalHours
	// unless the [currentEnd, newEnd) segment conflicts; the returned booking
	// is the conflict (nil means extended). On success the passed struct is
	// refreshed with the new end, duration, amount and statuses.
	ExtendIfSlotFree(ctx context.Context, booking *domain.Booking, additionalHours int, additionalCost decimal.Decimal) (*domain.Booking, error)

	Update(ctx context.Context, booking *domain.Booking) error
	MarkNotificationSent(ctx context.Context, id string) error

	// ListExpiring returns ACTIVE bookings ending within the warning window
	// that have not been warned yet.
	ListExpiring(ctx context.Context, now time.Time, warningWindow time.Duration) ([]domain.Booking, error)

	// CompleteOverdue force-completes ACTIVE bookings whose end time has
	// passed, in one statement, and returns the affected rows.
	CompleteOverdue(ctx context.Context, now time.Time) ([]domain.Booking, error)

	HasNonTerminalForSlot(ctx context.Context, slotID string) (bool, error)
	FindCurrentForSlot(ctx context.Context, slotID string, now time.Time) (*domain.Booking, error)
	FindLatestByLicensePlate(ctx context.Context, licensePlate string) (*domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository instantiates repository.
func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	return fetchBooking(ctx, r.pool, query, id)
}

func (r *bookingRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1 AND user_id=$2`
	return fetchBooking(ctx, r.pool, query, id, userID)
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string, status *domain.BookingStatus) ([]domain.Booking, error) {
	if status != nil {
		query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id=$1 AND status=$2 ORDER BY created_at DESC`
		return fetchBookings(ctx, r.pool, query, userID, *status)
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`
	return fetchBookings(ctx, r.pool, query, userID)
}

func (r *bookingRepository) ListAll(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	if status != nil {
		query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status=$1 ORDER BY created_at DESC`
		return fetchBookings(ctx, r.pool, query, *status)
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	return fetchBookings(ctx, r.pool, query)
}

func (r *bookingRepository) FindConflicting(ctx context.Context, slotID string, start, end time.Time, excludeID *string) (*domain.Booking, error) {
	return findConflicting(ctx, r.pool, slotID, start, end, excludeID)
}

func findConflicting(ctx context.Context, q dbtx, slotID string, start, end time.Time, excludeID *string) (*domain.Booking, error) {
	// Half-open interval intersection: existing.start < end AND start < existing.end.
	query := `SELECT ` + bookingColumns + `
        FROM bookings
        WHERE parking_slot_id=$1
          AND status = ANY($2)
          AND start_time < $3
          AND end_time > $4
          AND ($5::uuid IS NULL OR id <> $5)
        ORDER BY start_time
        LIMIT 1`

	booking, err := fetchBooking(ctx, q, query, slotID, statusStrings(domain.NonTerminalStatuses), end, start, excludeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepository) CreateIfSlotFree(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialize concurrent writers on the same slot.
	if _, err := tx.Exec(ctx, `SELECT id FROM parking_slots WHERE id=$1 FOR UPDATE`, booking.ParkingSlotID); err != nil {
		return nil, err
	}

	conflict, err := findConflicting(ctx, tx, booking.ParkingSlotID, booking.StartTime, booking.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return conflict, nil
	}

	const query = `
        INSERT INTO bookings (user_id, parking_slot_id, license_plate, start_time, end_time,
                              duration_hours, total_amount, status, payment_status, notification_sent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		booking.UserID,
		booking.ParkingSlotID,
		booking.LicensePlate,
		booking.StartTime,
		booking.EndTime,
		booking.DurationHours,
		booking.TotalAmount,
		booking.Status,
		booking.PaymentStatus,
		booking.NotificationSent,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return nil, err
	}

	return nil, tx.Commit(ctx)
}

func (r *bookingRepository) ExtendIfSlotFree(ctx context.Context, booking *domain.Booking, additionalHours int, additionalCost decimal.Decimal) (*domain.Booking, error) {
	newEnd := booking.EndTime.Add(time.Duration(additionalHours) * time.Hour)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT id FROM parking_slots WHERE id=$1 FOR UPDATE`, booking.ParkingSlotID); err != nil {
		return nil, err
	}

	// Only the added segment is checked; the booking keeps its own window.
	conflict, err := findConflicting(ctx, tx, booking.ParkingSlotID, booking.EndTime, newEnd, &booking.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return conflict, nil
	}

	const query = `
        UPDATE bookings SET end_time=$1, duration_hours=duration_hours+$2, total_amount=total_amount+$3,
            status=$4, payment_status=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING end_time, duration_hours, total_amount, updated_at`
	if err := tx.QueryRow(ctx, query,
		newEnd,
		additionalHours,
		additionalCost,
		domain.BookingStatusExtended,
		domain.PaymentStatePending,
		booking.ID,
	).Scan(&booking.EndTime, &booking.DurationHours, &booking.TotalAmount, &booking.UpdatedAt); err != nil {
		return nil, err
	}
	booking.Status = domain.BookingStatusExtended
	booking.PaymentStatus = domain.PaymentStatePending

	return nil, tx.Commit(ctx)
}

func (r *bookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	const query = `
        UPDATE bookings SET status=$1, payment_status=$2, notification_sent=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		booking.Status,
		booking.PaymentStatus,
		booking.NotificationSent,
		booking.ID,
	).Scan(&booking.UpdatedAt)
}

func (r *bookingRepository) MarkNotificationSent(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE bookings SET notification_sent=TRUE WHERE id=$1`, id)
	return err
}

func (r *bookingRepository) ListExpiring(ctx context.Context, now time.Time, warningWindow time.Duration) ([]domain.Booking, error) {
	cutoff := now.Add(warningWindow)
	query := `SELECT ` + bookingColumns + `
        FROM bookings
        WHERE status=$1 AND end_time <= $2 AND end_time > $3 AND NOT notification_sent
        ORDER BY end_time`
	return fetchBookings(ctx, r.pool, query, domain.BookingStatusActive, cutoff, now)
}

func (r *bookingRepository) CompleteOverdue(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	query := `
        UPDATE bookings SET status=$1, updated_at=NOW()
        WHERE status=$2 AND end_time < $3
        RETURNING ` + bookingColumns
	return fetchBookings(ctx, r.pool, query, domain.BookingStatusCompleted, domain.BookingStatusActive, now)
}

func (r *bookingRepository) HasNonTerminalForSlot(ctx context.Context, slotID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bookings WHERE parking_slot_id=$1 AND status = ANY($2))`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, slotID, statusStrings(domain.NonTerminalStatuses)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *bookingRepository) FindCurrentForSlot(ctx context.Context, slotID string, now time.Time) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
        FROM bookings
        WHERE parking_slot_id=$1 AND status=$2 AND start_time <= $3 AND end_time > $3
        LIMIT 1`
	booking, err := fetchBooking(ctx, r.pool, query, slotID, domain.BookingStatusActive, now)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepository) FindLatestByLicensePlate(ctx context.Context, licensePlate string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
        FROM bookings WHERE license_plate=$1 ORDER BY created_at DESC LIMIT 1`
	booking, err := fetchBooking(ctx, r.pool, query, licensePlate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func fetchBooking(ctx context.Context, q dbtx, query string, args ...any) (*domain.Booking, error) {
	var booking domain.Booking
	if err := scanBooking(q.QueryRow(ctx, query, args...), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func fetchBookings(ctx context.Context, q dbtx, query string, args ...any) ([]domain.Booking, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Booking
	for rows.Next() {
		var booking domain.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		result = append(result, booking)
	}
	return result, rows.Err()
}

func scanBooking(row pgx.Row, booking *domain.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ParkingSlotID,
		&booking.LicensePlate,
		&booking.StartTime,
		&booking.EndTime,
		&booking.DurationHours,
		&booking.TotalAmount,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.NotificationSent,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
}
