package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FineStatus enumerates the states of an issued fine.
type FineStatus string

const (
	FineStatusIssued    FineStatus = "ISSUED"
	FineStatusPaid      FineStatus = "PAID"
	FineStatusDisputed  FineStatus = "DISPUTED"
	FineStatusCancelled FineStatus = "CANCELLED"
)

// Fine is a penalty issued by security or admin staff against a license
// plate. UserID and BookingID are nullable: the offending vehicle may not
// belong to a registered user or an existing booking.
type Fine struct {
	ID             string
	IssuedByUserID string
	UserID         *string
	ParkingSlotID  string
	BookingID      *string
	LicensePlate   string
	Amount         decimal.Decimal
	Reason         string
	Description    string
	Status         FineStatus
	IssuedAt       time.Time
	PaidAt         *time.Time
}
