package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// ProcessPaymentRequest payload.
type ProcessPaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid4"`
	Method    string `json:"method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD CASH ONLINE"`
}

// PaymentResponse represents a payment.
type PaymentResponse struct {
	ID            string               `json:"id"`
	BookingID     string               `json:"booking_id"`
	Method        domain.PaymentMethod `json:"method"`
	Amount        decimal.Decimal      `json:"amount"`
	Status        domain.PaymentState  `json:"status"`
	TransactionID string               `json:"transaction_id"`
	Details       string               `json:"details,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// NewPaymentResponse maps a domain payment.
func NewPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID,
		BookingID:     payment.BookingID,
		Method:        payment.Method,
		Amount:        payment.Amount,
		Status:        payment.Status,
		TransactionID: payment.TransactionID,
		Details:       payment.Details,
		PaidAt:        payment.PaidAt,
		CreatedAt:     payment.CreatedAt,
	}
}

// NewPaymentResponses maps a slice of domain payments.
func NewPaymentResponses(payments []domain.Payment) []PaymentResponse {
	items := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, NewPaymentResponse(&payments[i]))
	}
	return items
}
