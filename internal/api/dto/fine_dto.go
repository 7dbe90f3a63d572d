package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// IssueFineRequest payload.
type IssueFineRequest struct {
	ParkingSlotID string `json:"parking_slot_id" validate:"required,uuid4"`
	LicensePlate  string `json:"license_plate" validate:"required,max=20"`
	Amount        string `json:"amount" validate:"required"`
	Reason        string `json:"reason" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=1000"`
}

// DisputeFineRequest payload.
type DisputeFineRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// FineResponse represents a fine.
type FineResponse struct {
	ID             string            `json:"id"`
	IssuedByUserID string            `json:"issued_by_user_id"`
	UserID         *string           `json:"user_id,omitempty"`
	ParkingSlotID  string            `json:"parking_slot_id"`
	BookingID      *string           `json:"booking_id,omitempty"`
	LicensePlate   string            `json:"license_plate"`
	Amount         decimal.Decimal   `json:"amount"`
	Reason         string            `json:"reason"`
	Description    string            `json:"description,omitempty"`
	Status         domain.FineStatus `json:"status"`
	IssuedAt       time.Time         `json:"issued_at"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
}

// NewFineResponse maps a domain fine.
func NewFineResponse(fine *domain.Fine) FineResponse {
	return FineResponse{
		ID:             fine.ID,
		IssuedByUserID: fine.IssuedByUserID,
		UserID:         fine.UserID,
		ParkingSlotID:  fine.ParkingSlotID,
		BookingID:      fine.BookingID,
		LicensePlate:   fine.LicensePlate,
		Amount:         fine.Amount,
		Reason:         fine.Reason,
		Description:    fine.Description,
		Status:         fine.Status,
		IssuedAt:       fine.IssuedAt,
		PaidAt:         fine.PaidAt,
	}
}

// NewFineResponses maps a slice of domain fines.
func NewFineResponses(fines []domain.Fine) []FineResponse {
	items := make([]FineResponse, 0, len(fines))
	for i := range fines {
		items = append(items, NewFineResponse(&fines[i]))
	}
	return items
}
