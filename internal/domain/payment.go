package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted payment instruments.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodOnline     PaymentMethod = "ONLINE"
)

// Payment records a single settlement attempt against a booking.
type Payment struct {
	ID            string
	BookingID     string
	Method        PaymentMethod
	Amount        decimal.Decimal
	Status        PaymentState
	TransactionID string
	Details       string
	PaidAt        *time.Time
	CreatedAt     time.Time
}
