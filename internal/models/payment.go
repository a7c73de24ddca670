package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment records a Stripe payment intent raised against a pending order.
type Payment struct {
	ID        string          `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreatePaymentRequest struct {
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	Currency string    `json:"currency,omitempty" validate:"omitempty,iso4217"`
}

type PaymentResponse struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret"`
}
