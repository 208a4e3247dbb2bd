package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpkpaswan/canteenqr/internal/modules/order"
)

// fakeOrders records Create calls and serves idempotency lookups.
type fakeOrders struct {
	byPaymentRef map[string]*order.Order
	created      []order.Draft
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byPaymentRef: make(map[string]*order.Order)}
}

func (f *fakeOrders) Create(ctx context.Context, draft order.Draft, now time.Time) (*order.Order, error) {
	f.created = append(f.created, draft)
	o := &order.Order{
		ID:          uuid.New(),
		Token:       "T-001",
		Status:      order.StatusPending,
		TotalAmount: draft.TotalAmount,
		PaymentRef:  draft.PaymentRef,
		CreatedAt:   now,
	}
	f.byPaymentRef[draft.PaymentRef] = o
	return o, nil
}

func (f *fakeOrders) Get(ctx context.Context, id string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (f *fakeOrders) GetByPaymentRef(ctx context.Context, ref string) (*order.Order, error) {
	if o, ok := f.byPaymentRef[ref]; ok {
		return o, nil
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrders) Transition(ctx context.Context, id string, target order.Status, now time.Time) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (f *fakeOrders) RedeemByToken(ctx context.Context, tokenValue string, now time.Time) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (f *fakeOrders) ListDay(ctx context.Context, now time.Time, status string) ([]*order.Order, error) {
	return nil, nil
}

func TestHandleCompletionCreatesOrder(t *testing.T) {
	v := NewVerifier("gateway-secret")
	orders := newFakeOrders()
	svc := NewService(v, orders)

	r := sampleReceipt()
	r.Signature = v.Sign(r)

	o, err := svc.HandleCompletion(context.Background(), r, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "pay_9f31", o.PaymentRef)
	require.Len(t, orders.created, 1)
	assert.Equal(t, "oauth|12345", orders.created[0].CustomerSubject)
	assert.Len(t, orders.created[0].Items, 1)
}

func TestHandleCompletionRejectsBadSignature(t *testing.T) {
	v := NewVerifier("gateway-secret")
	orders := newFakeOrders()
	svc := NewService(v, orders)

	r := sampleReceipt()
	r.Signature = v.Sign(r)
	r.Amount = 9999 // invalidates the signature

	_, err := svc.HandleCompletion(context.Background(), r, time.Now())
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Empty(t, orders.created, "no order may be created from an unverified receipt")
}

func TestHandleCompletionIsIdempotent(t *testing.T) {
	v := NewVerifier("gateway-secret")
	orders := newFakeOrders()
	svc := NewService(v, orders)

	r := sampleReceipt()
	r.Signature = v.Sign(r)

	first, err := svc.HandleCompletion(context.Background(), r, time.Now())
	require.NoError(t, err)

	// Redelivered webhook: same payment, same order, no second create.
	second, err := svc.HandleCompletion(context.Background(), r, time.Now())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, orders.created, 1)
}

func TestHandleCompletionValidatesPayload(t *testing.T) {
	v := NewVerifier("gateway-secret")
	svc := NewService(v, newFakeOrders())

	r := sampleReceipt()
	r.Items = nil
	r.Signature = v.Sign(r)
	_, err := svc.HandleCompletion(context.Background(), r, time.Now())
	assert.Error(t, err)

	r = sampleReceipt()
	r.Amount = 0
	r.Signature = v.Sign(r)
	_, err = svc.HandleCompletion(context.Background(), r, time.Now())
	assert.Error(t, err)
}
