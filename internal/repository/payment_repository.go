package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/parking-service/internal/domain"
)

const paymentColumns = `id, booking_id, method, amount, status, transaction_id, details, paid_at, created_at`

// PaymentRepository encapsulates payment persistence.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error)

	// SettleWithBooking persists the completed payment together with the
	// booking's payment confirmation in a single transaction, so readers
	// never observe one without the other.
	SettleWithBooking(ctx context.Context, payment *domain.Payment, booking *domain.Booking) error
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (booking_id, method, amount, status, transaction_id, details, paid_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		payment.BookingID,
		payment.Method,
		payment.Amount,
		payment.Status,
		payment.TransactionID,
		payment.Details,
		payment.PaidAt,
	).Scan(&payment.ID, &payment.CreatedAt)
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	const query = `
        UPDATE payments SET status=$1, transaction_id=$2, details=$3, paid_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		payment.Status,
		payment.TransactionID,
		payment.Details,
		payment.PaidAt,
		payment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	var payment domain.Payment
	if err := scanPayment(r.pool.QueryRow(ctx, query, id), &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := scanPayment(rows, &payment); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}

func (r *paymentRepository) SettleWithBooking(ctx context.Context, payment *domain.Payment, booking *domain.Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertPayment = `
        INSERT INTO payments (booking_id, method, amount, status, transaction_id, details, paid_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertPayment,
		payment.BookingID,
		payment.Method,
		payment.Amount,
		payment.Status,
		payment.TransactionID,
		payment.Details,
		payment.PaidAt,
	).Scan(&payment.ID, &payment.CreatedAt); err != nil {
		return err
	}

	const updateBooking = `
        UPDATE bookings SET status=$1, payment_status=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateBooking,
		booking.Status,
		booking.PaymentStatus,
		booking.ID,
	).Scan(&booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanPayment(row pgx.Row, payment *domain.Payment) error {
	return row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Method,
		&payment.Amount,
		&payment.Status,
		&payment.TransactionID,
		&payment.Details,
		&payment.PaidAt,
		&payment.CreatedAt,
	)
}
