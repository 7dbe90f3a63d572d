package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/parking-service/internal/domain"
)

const fineColumns = `id, issued_by_user_id, user_id, parking_slot_id, booking_id, license_plate,
               amount, reason, description, status, issued_at, paid_at`

// FineRepository encapsulates fine persistence.
type FineRepository interface {
	Create(ctx context.Context, fine *domain.Fine) error
	Update(ctx context.Context, fine *domain.Fine) error
	GetByID(ctx context.Context, id string) (*domain.Fine, error)
	ListAll(ctx context.Context) ([]domain.Fine, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Fine, error)
}

type fineRepository struct {
	pool *pgxpool.Pool
}

// NewFineRepository instantiates repository.
func NewFineRepository(pool *pgxpool.Pool) FineRepository {
	return &fineRepository{pool: pool}
}

func (r *fineRepository) Create(ctx context.Context, fine *domain.Fine) error {
	const query = `
        INSERT INTO fines (issued_by_user_id, user_id, parking_slot_id, booking_id, license_plate,
                           amount, reason, description, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, issued_at`
	return r.pool.QueryRow(ctx, query,
		fine.IssuedByUserID,
		fine.UserID,
		fine.ParkingSlotID,
		fine.BookingID,
		fine.LicensePlate,
		fine.Amount,
		fine.Reason,
		fine.Description,
		fine.Status,
	).Scan(&fine.ID, &fine.IssuedAt)
}

func (r *fineRepository) Update(ctx context.Context, fine *domain.Fine) error {
	const query = `
        UPDATE fines SET status=$1, description=$2, paid_at=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		fine.Status,
		fine.Description,
		fine.PaidAt,
		fine.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *fineRepository) GetByID(ctx context.Context, id string) (*domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE id=$1`
	var fine domain.Fine
	if err := scanFine(r.pool.QueryRow(ctx, query, id), &fine); err != nil {
		return nil, err
	}
	return &fine, nil
}

func (r *fineRepository) ListAll(ctx context.Context) ([]domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines ORDER BY issued_at DESC`
	return r.fetchMany(ctx, query)
}

func (r *fineRepository) ListByUser(ctx context.Context, userID string) ([]domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE user_id=$1 ORDER BY issued_at DESC`
	return r.fetchMany(ctx, query, userID)
}

func (r *fineRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Fine, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Fine
	for rows.Next() {
		var fine domain.Fine
		if err := scanFine(rows, &fine); err != nil {
			return nil, err
		}
		result = append(result, fine)
	}
	return result, rows.Err()
}

func scanFine(row pgx.Row, fine *domain.Fine) error {
	return row.Scan(
		&fine.ID,
		&fine.IssuedByUserID,
		&fine.UserID,
		&fine.ParkingSlotID,
		&fine.BookingID,
		&fine.LicensePlate,
		&fine.Amount,
		&fine.Reason,
		&fine.Description,
		&fine.Status,
		&fine.IssuedAt,
		&fine.PaidAt,
	)
}
