package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/parking-service/internal/domain"
)

// SlotRepository encapsulates parking slot persistence.
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.ParkingSlot) error
	Update(ctx context.Context, slot *domain.ParkingSlot) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.ParkingSlot, error)
	GetBySlotNumber(ctx context.Context, slotNumber string) (*domain.ParkingSlot, error)
	ListAll(ctx context.Context) ([]domain.ParkingSlot, error)
	ListActive(ctx context.Context) ([]domain.ParkingSlot, error)
}

type slotRepository struct {
	pool *pgxpool.Pool
}

// NewSlotRepository instantiates repository.
func NewSlotRepository(pool *pgxpool.Pool) SlotRepository {
	return &slotRepository{pool: pool}
}

func (r *slotRepository) Create(ctx context.Context, slot *domain.ParkingSlot) error {
	const query = `
        INSERT INTO parking_slots (slot_number, zone, slot_type, hourly_rate, is_active, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		slot.SlotNumber,
		slot.Zone,
		slot.SlotType,
		slot.HourlyRate,
		slot.IsActive,
		slot.Description,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)
}

func (r *slotRepository) Update(ctx context.Context, slot *domain.ParkingSlot) error {
	const query = `
        UPDATE parking_slots SET slot_number=$1, zone=$2, slot_type=$3, hourly_rate=$4,
            is_active=$5, description=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		slot.SlotNumber,
		slot.Zone,
		slot.SlotType,
		slot.HourlyRate,
		slot.IsActive,
		slot.Description,
		slot.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slotRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM parking_slots WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.ParkingSlot, error) {
	const query = `
        SELECT id, slot_number, zone, slot_type, hourly_rate, is_active, description, created_at, updated_at
        FROM parking_slots WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *slotRepository) GetBySlotNumber(ctx context.Context, slotNumber string) (*domain.ParkingSlot, error) {
	const query = `
        SELECT id, slot_number, zone, slot_type, hourly_rate, is_active, description, created_at, updated_at
        FROM parking_slots WHERE slot_number=$1`
	return r.fetchSingle(ctx, query, slotNumber)
}

func (r *slotRepository) ListAll(ctx context.Context) ([]domain.ParkingSlot, error) {
	const query = `
        SELECT id, slot_number, zone, slot_type, hourly_rate, is_active, description, created_at, updated_at
        FROM parking_slots ORDER BY slot_number`
	return r.fetchMany(ctx, query)
}

func (r *slotRepository) ListActive(ctx context.Context) ([]domain.ParkingSlot, error) {
	const query = `
        SELECT id, slot_number, zone, slot_type, hourly_rate, is_active, description, created_at, updated_at
        FROM parking_slots WHERE is_active ORDER BY slot_number`
	return r.fetchMany(ctx, query)
}

func (r *slotRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ParkingSlot, error) {
	var slot domain.ParkingSlot
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&slot.ID,
		&slot.SlotNumber,
		&slot.Zone,
		&slot.SlotType,
		&slot.HourlyRate,
		&slot.IsActive,
		&slot.Description,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.ParkingSlot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ParkingSlot
	for rows.Next() {
		var slot domain.ParkingSlot
		if err := rows.Scan(
			&slot.ID,
			&slot.SlotNumber,
			&slot.Zone,
			&slot.SlotType,
			&slot.HourlyRate,
			&slot.IsActive,
			&slot.Description,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, slot)
	}
	return result, rows.Err()
}
