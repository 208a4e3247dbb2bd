package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dpkpaswan/canteenqr/internal/civil"
	"github.com/dpkpaswan/canteenqr/internal/modules/notify"
	"github.com/dpkpaswan/canteenqr/internal/modules/token"
	"github.com/dpkpaswan/canteenqr/pkg/metrics"
)

// Service is the order lifecycle guard. Every status change goes through
// it; no other code writes order rows.
type Service interface {
	// Create allocates a pickup token and persists the order as pending.
	// Called once per verified payment completion. Nothing is persisted if
	// allocation fails.
	Create(ctx context.Context, draft Draft, now time.Time) (*Order, error)

	// Get retrieves a full order with its items by UUID.
	Get(ctx context.Context, id string) (*Order, error)

	// GetByPaymentRef retrieves the order created for a payment reference.
	GetByPaymentRef(ctx context.Context, paymentRef string) (*Order, error)

	// Transition advances an order along the state machine. Completion-bound
	// edges additionally require the order to be from the current civil day.
	Transition(ctx context.Context, id string, target Status, now time.Time) (*Order, error)

	// RedeemByToken resolves today's order for the token, requires it to be
	// ready, and completes it atomically. The returned snapshot feeds the
	// pickup receipt.
	RedeemByToken(ctx context.Context, tokenValue string, now time.Time) (*Order, error)

	// ListDay returns the current civil day's orders for the staff board.
	ListDay(ctx context.Context, now time.Time, status string) ([]*Order, error)
}

type service struct {
	repo      Repository
	allocator token.Allocator
	zone      civil.Zone
	notifier  *notify.Dispatcher
	metrics   *metrics.CanteenMetrics
}

// NewService creates the lifecycle guard with its collaborators injected.
func NewService(repo Repository, allocator token.Allocator, zone civil.Zone,
	notifier *notify.Dispatcher, m *metrics.CanteenMetrics) Service {
	return &service{repo: repo, allocator: allocator, zone: zone, notifier: notifier, metrics: m}
}

// validTransitions defines the allowed status state machine. Statuses only
// advance; completed is terminal.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCompleted},
	StatusPreparing: {StatusReady, StatusCompleted},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
}

func edgeAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *service) Create(ctx context.Context, draft Draft, now time.Time) (*Order, error) {
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	if draft.TotalAmount <= 0 {
		return nil, fmt.Errorf("total amount must be greater than 0")
	}
	if draft.PaymentRef == "" {
		return nil, fmt.Errorf("payment reference is required")
	}

	items := make([]*OrderItem, 0, len(draft.Items))
	for _, di := range draft.Items {
		if di.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be > 0 for item %q", di.Name)
		}
		items = append(items, &OrderItem{
			ID:        uuid.New(),
			Name:      di.Name,
			UnitPrice: di.UnitPrice,
			Quantity:  di.Quantity,
			LineTotal: di.UnitPrice * float64(di.Quantity),
		})
	}

	currency := draft.Currency
	if currency == "" {
		currency = "INR"
	}

	// The synthetic fallback path has a nonzero (tiny) collision chance, so
	// a duplicate-token insert gets one fresh allocation before giving up.
	// The sequential path cannot collide.
	var o *Order
	for attempt := 0; attempt < 2; attempt++ {
		tok, err := s.allocator.Allocate(ctx, now)
		if err != nil {
			return nil, err
		}

		o = &Order{
			ID:              uuid.New(),
			Token:           tok.Value,
			TokenKind:       tok.Kind,
			DayKey:          s.zone.DateKey(now),
			Status:          StatusPending,
			TotalAmount:     draft.TotalAmount,
			Currency:        currency,
			CustomerSubject: draft.CustomerSubject,
			CustomerEmail:   draft.CustomerEmail,
			CustomerName:    draft.CustomerName,
			PaymentRef:      draft.PaymentRef,
			PaymentSig:      draft.PaymentSig,
			Items:           items,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		for _, item := range items {
			item.OrderID = o.ID
		}

		err = s.repo.Create(ctx, o)
		if err == nil {
			if s.notifier != nil && o.CustomerEmail != "" {
				s.notifier.OrderCreated(o.CustomerEmail, o.CustomerName, o.Token, o.TotalAmount)
			}
			return o, nil
		}
		if errors.Is(err, ErrDuplicateToken) && tok.Kind == token.KindSynthetic {
			continue
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	return nil, fmt.Errorf("%w: synthetic token collided twice", token.ErrAllocationFailed)
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByPaymentRef(ctx context.Context, paymentRef string) (*Order, error) {
	return s.repo.GetByPaymentRef(ctx, paymentRef)
}

func (s *service) Transition(ctx context.Context, id string, target Status, now time.Time) (*Order, error) {
	if !target.Valid() || target == StatusPending {
		return nil, fmt.Errorf("%w: unknown or initial target status %q", ErrInvalidTransition, target)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	// A conditional update keyed on the previously-read status serializes
	// racing writers; the loser re-reads and reports against the
	// post-update state.
	for attempt := 0; attempt < 3; attempt++ {
		o, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if !edgeAllowed(o.Status, target) {
			if o.Status == StatusCompleted {
				return nil, ErrAlreadyRedeemed
			}
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
		}
		if target == StatusCompleted && !s.zone.SameDay(o.CreatedAt, now) {
			return nil, ErrStaleOrder
		}

		applied, err := s.repo.UpdateStatusIf(ctx, id, o.Status, target)
		if err != nil {
			return nil, err
		}
		if !applied {
			continue
		}

		s.metrics.Transitions.WithLabelValues(string(target)).Inc()
		if target == StatusReady && s.notifier != nil && o.CustomerEmail != "" {
			s.notifier.OrderReady(o.CustomerEmail, o.CustomerName, o.Token)
		}
		o.Status = target
		o.UpdatedAt = now
		return o, nil
	}
	return nil, fmt.Errorf("%w: order is changing concurrently", ErrInvalidTransition)
}

func (s *service) RedeemByToken(ctx context.Context, tokenValue string, now time.Time) (*Order, error) {
	dayKey := s.zone.DateKey(now)

	o, err := s.repo.GetByDayToken(ctx, dayKey, tokenValue)
	if errors.Is(err, ErrNotFound) {
		// No order holds this token today. If one held it on a prior day
		// the token has expired; a token from a prior day is never
		// redeemable, whatever status that order is stuck in.
		if prior, perr := s.repo.GetLatestByToken(ctx, tokenValue); perr == nil && prior != nil {
			s.metrics.Redemptions.WithLabelValues("expired").Inc()
			return nil, ErrTokenExpired
		}
		s.metrics.Redemptions.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case StatusCompleted:
		s.metrics.Redemptions.WithLabelValues("already_redeemed").Inc()
		return nil, ErrAlreadyRedeemed
	case StatusPending, StatusPreparing:
		s.metrics.Redemptions.WithLabelValues("not_ready").Inc()
		return nil, ErrNotReady
	}

	applied, err := s.repo.UpdateStatusIf(ctx, o.ID.String(), StatusReady, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race. Exactly one redemption wins; report the state the
		// winner left behind.
		fresh, ferr := s.repo.GetByID(ctx, o.ID.String())
		if ferr != nil {
			return nil, ferr
		}
		if fresh.Status == StatusCompleted {
			s.metrics.Redemptions.WithLabelValues("already_redeemed").Inc()
			return nil, ErrAlreadyRedeemed
		}
		s.metrics.Redemptions.WithLabelValues("not_ready").Inc()
		return nil, ErrNotReady
	}

	s.metrics.Redemptions.WithLabelValues("ok").Inc()
	s.metrics.Transitions.WithLabelValues(string(StatusCompleted)).Inc()
	o.Status = StatusCompleted
	o.UpdatedAt = now
	return o, nil
}

func (s *service) ListDay(ctx context.Context, now time.Time, status string) ([]*Order, error) {
	st := Status(status)
	if status != "" && !st.Valid() {
		return nil, fmt.Errorf("unknown status filter %q", status)
	}
	return s.repo.ListByDay(ctx, s.zone.DateKey(now), st)
}
