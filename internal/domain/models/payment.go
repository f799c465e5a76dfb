package models

import "time"

const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type Payment struct {
	ID        int64  `json:"id"`
	BookingID int64  `json:"bookingId"`
	UserEmail string `json:"userEmail"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Status    string `json:"status"`

	CardID *int64 `json:"cardId,omitempty"`

	RefundAmount int64      `json:"refundAmount,omitempty"`
	RefundedAt   *time.Time `json:"refundedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

type CreditCard struct {
	ID        int64  `json:"id"`
	UserEmail string `json:"userEmail"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4"`
	Balance   int64  `json:"balance"`
	IsDefault bool   `json:"isDefault"`
}
