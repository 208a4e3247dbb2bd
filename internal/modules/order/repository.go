package order

import "context"

// Repository defines data access for orders. Implementations must push all
// mutual exclusion into the store: the service layer holds no locks.
type Repository interface {
	// Create persists a new order and its items atomically in a
	// transaction. Returns ErrDuplicateToken if (day, token) is taken.
	Create(ctx context.Context, o *Order) error

	// GetByID retrieves an order with its items by UUID.
	GetByID(ctx context.Context, id string) (*Order, error)

	// GetByDayToken retrieves the order holding a token on a specific civil
	// day. Token scope is per-day: the same literal string on another day
	// is a different order.
	GetByDayToken(ctx context.Context, dayKey, tokenValue string) (*Order, error)

	// GetLatestByToken retrieves the most recently created order holding a
	// token on any day. Used to tell an expired token from an unknown one.
	GetLatestByToken(ctx context.Context, tokenValue string) (*Order, error)

	// GetByPaymentRef retrieves the order created for a payment reference,
	// for webhook idempotency.
	GetByPaymentRef(ctx context.Context, paymentRef string) (*Order, error)

	// UpdateStatusIf advances the order's status only if it still equals
	// from. Returns false when another writer got there first, so racing
	// transitions serialize in the store and exactly one wins.
	UpdateStatusIf(ctx context.Context, id string, from, to Status) (bool, error)

	// ListByDay returns a civil day's orders, optionally filtered by status.
	ListByDay(ctx context.Context, dayKey string, status Status) ([]*Order, error)
}
