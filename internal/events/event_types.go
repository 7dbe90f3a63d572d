package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBookingCreated       EventType = "booking_created"
	EventBookingExtended      EventType = "booking_extended"
	EventBookingCancelled     EventType = "booking_cancelled"
	EventBookingCompleted     EventType = "booking_completed"
	EventBookingExpiryWarning EventType = "booking_expiry_warning"
	EventPaymentConfirmed     EventType = "payment_confirmed"
	EventFineIssued           EventType = "fine_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	BookingID string      `json:"booking_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BookingCreatedPayload payload.
type BookingCreatedPayload struct {
	ParkingSlotID string          `json:"parking_slot_id"`
	SlotNumber    string          `json:"slot_number"`
	LicensePlate  string          `json:"license_plate"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// BookingExtendedPayload payload.
type BookingExtendedPayload struct {
	AdditionalHours int             `json:"additional_hours"`
	AdditionalCost  decimal.Decimal `json:"additional_cost"`
	NewEndTime      time.Time       `json:"new_end_time"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// BookingStatusPayload carries terminal transitions (cancel/complete).
type BookingStatusPayload struct {
	OldStatus domain.BookingStatus `json:"old_status"`
	NewStatus domain.BookingStatus `json:"new_status"`
	Forced    bool                 `json:"forced,omitempty"`
}

// ExpiryWarningPayload payload.
type ExpiryWarningPayload struct {
	SlotNumber       string    `json:"slot_number"`
	EndTime          time.Time `json:"end_time"`
	MinutesRemaining int       `json:"minutes_remaining"`
}

// PaymentConfirmedPayload payload.
type PaymentConfirmedPayload struct {
	PaymentID     string          `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	SlotNumber    string          `json:"slot_number"`
}

// FineIssuedPayload payload.
type FineIssuedPayload struct {
	FineID       string          `json:"fine_id"`
	LicensePlate string          `json:"license_plate"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
}
