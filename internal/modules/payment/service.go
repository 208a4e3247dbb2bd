package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpkpaswan/canteenqr/internal/modules/order"
)

// Service turns verified payment completions into orders.
type Service interface {
	// HandleCompletion verifies the receipt signature, then creates the
	// order (allocating its pickup token). Replayed webhooks for a payment
	// already handled return the existing order unchanged.
	HandleCompletion(ctx context.Context, r Receipt, now time.Time) (*order.Order, error)
}

type service struct {
	verifier *Verifier
	orders   order.Service
}

func NewService(verifier *Verifier, orders order.Service) Service {
	return &service{verifier: verifier, orders: orders}
}

func (s *service) HandleCompletion(ctx context.Context, r Receipt, now time.Time) (*order.Order, error) {
	if err := s.verifier.Verify(r); err != nil {
		return nil, err
	}
	if r.PaymentID == "" {
		return nil, fmt.Errorf("payment_id is required")
	}
	if r.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	if len(r.Items) == 0 {
		return nil, fmt.Errorf("receipt must contain at least one item")
	}

	// Gateways redeliver webhooks; the payment reference makes creation
	// idempotent.
	existing, err := s.orders.GetByPaymentRef(ctx, r.PaymentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, order.ErrNotFound) {
		return nil, err
	}

	items := make([]order.DraftItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, order.DraftItem{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	o, err := s.orders.Create(ctx, order.Draft{
		PaymentRef:      r.PaymentID,
		PaymentSig:      r.Signature,
		TotalAmount:     r.Amount,
		Currency:        r.Currency,
		CustomerSubject: r.Customer.Subject,
		CustomerEmail:   r.Customer.Email,
		CustomerName:    r.Customer.Name,
		Items:           items,
	}, now)
	if errors.Is(err, order.ErrDuplicatePayment) {
		// Two deliveries raced past the idempotency read; the store kept
		// exactly one order.
		return s.orders.GetByPaymentRef(ctx, r.PaymentID)
	}
	return o, err
}
