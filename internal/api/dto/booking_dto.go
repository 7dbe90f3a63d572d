package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// CreateBookingRequest payload.
type CreateBookingRequest struct {
	ParkingSlotID string    `json:"parking_slot_id" validate:"required,uuid4"`
	LicensePlate  string    `json:"license_plate" validate:"required,max=20"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	DurationHours int       `json:"duration_hours" validate:"required,min=1,max=24"`
}

// CheckAvailabilityRequest payload.
type CheckAvailabilityRequest struct {
	ParkingSlotID string    `json:"parking_slot_id" validate:"required,uuid4"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	DurationHours int       `json:"duration_hours" validate:"required,min=1,max=24"`
}

// ExtendBookingRequest payload.
type ExtendBookingRequest struct {
	AdditionalHours int `json:"additional_hours" validate:"required,min=1,max=24"`
}

// BookingResponse represents a booking.
type BookingResponse struct {
	ID               string               `json:"id"`
	UserID           string               `json:"user_id"`
	ParkingSlotID    string               `json:"parking_slot_id"`
	LicensePlate     string               `json:"license_plate"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
	DurationHours    int                  `json:"duration_hours"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	Status           domain.BookingStatus `json:"status"`
	PaymentStatus    domain.PaymentState  `json:"payment_status"`
	NotificationSent bool                 `json:"notification_sent"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// AvailabilityResponse reports slot availability for a window.
type AvailabilityResponse struct {
	Available     bool             `json:"available"`
	Message       string           `json:"message"`
	EstimatedCost decimal.Decimal  `json:"estimated_cost"`
	Conflicting   *BookingResponse `json:"conflicting_booking,omitempty"`
}

// ExtensionCheckResponse reports whether a booking can be extended.
type ExtensionCheckResponse struct {
	CanExtend       bool            `json:"can_extend"`
	Message         string          `json:"message"`
	AdditionalHours int             `json:"additional_hours"`
	AdditionalCost  decimal.Decimal `json:"additional_cost"`
	NewEndTime      time.Time       `json:"new_end_time"`
}

// NewBookingResponse maps a domain booking.
func NewBookingResponse(booking *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:               booking.ID,
		UserID:           booking.UserID,
		ParkingSlotID:    booking.ParkingSlotID,
		LicensePlate:     booking.LicensePlate,
		StartTime:        booking.StartTime,
		EndTime:          booking.EndTime,
		DurationHours:    booking.DurationHours,
		TotalAmount:      booking.TotalAmount,
		Status:           booking.Status,
		PaymentStatus:    booking.PaymentStatus,
		NotificationSent: booking.NotificationSent,
		CreatedAt:        booking.CreatedAt,
		UpdatedAt:        booking.UpdatedAt,
	}
}

// NewBookingResponses maps a slice of domain bookings.
func NewBookingResponses(bookings []domain.Booking) []BookingResponse {
	items := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, NewBookingResponse(&bookings[i]))
	}
	return items
}
