package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus enumerates lifecycle states for bookings.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusExtended  BookingStatus = "EXTENDED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// PaymentState tracks the payment axis of a booking, independent of its
// lifecycle status.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "PENDING"
	PaymentStateCompleted PaymentState = "COMPLETED"
	PaymentStateFailed    PaymentState = "FAILED"
	PaymentStateRefunded  PaymentState = "REFUNDED"
)

// NonTerminalStatuses are the statuses that occupy a slot for overlap checks.
var NonTerminalStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusActive,
	BookingStatusExtended,
}

// Booking is a time-bounded claim on one parking slot by one user.
// EndTime is always derived as StartTime + DurationHours; windows are
// half-open [start, end).
type Booking struct {
	ID               string
	UserID           string
	ParkingSlotID    string
	LicensePlate     string
	StartTime        time.Time
	EndTime          time.Time
	DurationHours    int
	TotalAmount      decimal.Decimal
	Status           BookingStatus
	PaymentStatus    PaymentState
	NotificationSent bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTerminal reports whether the booking can never transition again.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCompleted || b.Status == BookingStatusCancelled
}

// Overlaps reports whether the booking window intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}
