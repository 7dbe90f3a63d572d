package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// CreateSlotRequest payload.
type CreateSlotRequest struct {
	SlotNumber  string `json:"slot_number" validate:"required,max=20"`
	Zone        string `json:"zone" validate:"required,max=50"`
	SlotType    string `json:"slot_type" validate:"required,oneof=REGULAR DISABLED ELECTRIC VIP"`
	HourlyRate  string `json:"hourly_rate" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateSlotRequest payload.
type UpdateSlotRequest struct {
	SlotNumber  string `json:"slot_number" validate:"required,max=20"`
	Zone        string `json:"zone" validate:"required,max=50"`
	SlotType    string `json:"slot_type" validate:"required,oneof=REGULAR DISABLED ELECTRIC VIP"`
	HourlyRate  string `json:"hourly_rate" validate:"required"`
	IsActive    *bool  `json:"is_active" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

// SlotResponse represents a parking slot.
type SlotResponse struct {
	ID          string          `json:"id"`
	SlotNumber  string          `json:"slot_number"`
	Zone        string          `json:"zone"`
	SlotType    domain.SlotType `json:"slot_type"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	IsActive    bool            `json:"is_active"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SlotStatusResponse pairs a slot with live occupancy.
type SlotStatusResponse struct {
	SlotResponse
	Occupied       bool             `json:"occupied"`
	CurrentBooking *BookingResponse `json:"current_booking,omitempty"`
}

// NewSlotResponse maps a domain slot.
func NewSlotResponse(slot *domain.ParkingSlot) SlotResponse {
	return SlotResponse{
		ID:          slot.ID,
		SlotNumber:  slot.SlotNumber,
		Zone:        slot.Zone,
		SlotType:    slot.SlotType,
		HourlyRate:  slot.HourlyRate,
		IsActive:    slot.IsActive,
		Description: slot.Description,
		CreatedAt:   slot.CreatedAt,
		UpdatedAt:   slot.UpdatedAt,
	}
}

// NewSlotResponses maps a slice of domain slots.
func NewSlotResponses(slots []domain.ParkingSlot) []SlotResponse {
	items := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		items = append(items, NewSlotResponse(&slots[i]))
	}
	return items
}
