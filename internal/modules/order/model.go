package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/dpkpaswan/canteenqr/internal/modules/token"
)

// Status represents the lifecycle state of an order. Statuses only ever
// advance; there is no transition back to an earlier state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted:
		return true
	}
	return false
}

// Order is a paid canteen order awaiting pickup.
type Order struct {
	ID              uuid.UUID    `json:"id"`
	Token           string       `json:"token"`
	TokenKind       token.Kind   `json:"token_kind"`
	DayKey          string       `json:"day_key"` // civil date the order belongs to
	Status          Status       `json:"status"`
	TotalAmount     float64      `json:"total_amount"`
	Currency        string       `json:"currency"`
	CustomerSubject string       `json:"customer_subject"`
	CustomerEmail   string       `json:"customer_email"`
	CustomerName    string       `json:"customer_name"`
	PaymentRef      string       `json:"payment_ref"`
	PaymentSig      string       `json:"-"` // stored for audit, never served
	Items           []*OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// OrderItem is a frozen line-item snapshot captured at order time. It is
// independent of any live menu catalog: later price or name changes never
// touch existing orders.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal float64   `json:"line_total"`
}

// Draft is the validated input for creating an order, assembled by the
// payment-completion handler from a verified gateway receipt.
type Draft struct {
	PaymentRef      string
	PaymentSig      string
	TotalAmount     float64
	Currency        string
	CustomerSubject string
	CustomerEmail   string
	CustomerName    string
	Items           []DraftItem
}

// DraftItem mirrors OrderItem before persistence.
type DraftItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// RedeemRequest is the payload for the pickup-scan endpoint.
type RedeemRequest struct {
	Token string `json:"token"`
}
