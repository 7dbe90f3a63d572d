package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotType enumerates the physical categories of parking slots.
type SlotType string

const (
	SlotTypeRegular  SlotType = "REGULAR"
	SlotTypeDisabled SlotType = "DISABLED"
	SlotTypeElectric SlotType = "ELECTRIC"
	SlotTypeVIP      SlotType = "VIP"
)

// ParkingSlot is a reservable physical resource with capacity one.
type ParkingSlot struct {
	ID          string
	SlotNumber  string
	Zone        string
	SlotType    SlotType
	HourlyRate  decimal.Decimal
	IsActive    bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
