package orders

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var ErrNotFound = errors.New("order not found")

// Order is a customer's currency order.
type Order struct {
	ID             uuid.UUID `json:"id"`
	UserEmail      string    `json:"userEmail"`
	Currency       string    `json:"currency"`
	Amount         float64   `json:"amount"`
	Status         Status    `json:"status"`
	PaymentMethod  string    `json:"paymentMethod"`
	TrackingNumber string    `json:"trackingNumber"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Currency       *string  `json:"currency" validate:"omitempty,len=3,uppercase"`
	Amount         *float64 `json:"amount" validate:"omitempty,gte=0"`
	Status         *Status  `json:"status" validate:"omitempty,oneof=pending processing shipped completed cancelled"`
	PaymentMethod  *string  `json:"paymentMethod" validate:"omitempty,max=64"`
	TrackingNumber *string  `json:"trackingNumber" validate:"omitempty,max=128"`
	Notes          *string  `json:"notes" validate:"omitempty,max=2000"`
}

func (p Patch) Empty() bool {
	return p.Currency == nil && p.Amount == nil && p.Status == nil &&
		p.PaymentMethod == nil && p.TrackingNumber == nil && p.Notes == nil
}
