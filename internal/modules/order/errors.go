package order

import "errors"

var (
	// ErrNotFound means the id or token resolved to no order.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition means the requested status edge does not exist
	// in the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStaleOrder means a completion was attempted on an order created on
	// an earlier civil day. Closure is same-day only.
	ErrStaleOrder = errors.New("order is from a previous day and can no longer be completed")

	// ErrTokenExpired means the presented token belongs to a previous civil
	// day and is never redeemable.
	ErrTokenExpired = errors.New("token is from a previous day")

	// ErrAlreadyRedeemed means the order is already completed.
	ErrAlreadyRedeemed = errors.New("token already redeemed")

	// ErrNotReady means the order has not reached the ready status yet.
	ErrNotReady = errors.New("order is not ready for pickup")

	// ErrDuplicateToken is reported by the repository when an insert
	// collides on (day, token). Only the synthetic fallback path can hit
	// this in practice.
	ErrDuplicateToken = errors.New("token already in use for this day")

	// ErrDuplicatePayment is reported when an insert collides on the
	// payment reference: two webhook deliveries raced past the idempotency
	// read.
	ErrDuplicatePayment = errors.New("an order already exists for this payment")
)
