package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dpkpaswan/canteenqr/internal/civil"
	"github.com/dpkpaswan/canteenqr/pkg/metrics"
)

// ErrAllocationFailed means both the counter store and the synthetic
// fallback failed. Order creation must abort: no order is ever persisted
// without a token.
var ErrAllocationFailed = errors.New("token allocation failed")

// Allocator produces pickup tokens that are collision-free among all
// orders created the same civil day, under arbitrary concurrency.
type Allocator interface {
	// Allocate mints a token for the civil day containing now.
	Allocate(ctx context.Context, now time.Time) (Token, error)
}

type allocator struct {
	store   CounterStore
	zone    civil.Zone
	prefix  string
	metrics *metrics.CanteenMetrics

	// overridable in tests
	randSuffix func() (string, error)
}

// NewAllocator creates a token allocator. prefix defaults to "T" when empty.
func NewAllocator(store CounterStore, zone civil.Zone, prefix string, m *metrics.CanteenMetrics) Allocator {
	if prefix == "" {
		prefix = "T"
	}
	return &allocator{
		store:      store,
		zone:       zone,
		prefix:     prefix,
		metrics:    m,
		randSuffix: randomHex2,
	}
}

func (a *allocator) Allocate(ctx context.Context, now time.Time) (Token, error) {
	dateKey := a.zone.DateKey(now)

	seq, err := a.store.IncrementDailyCounter(ctx, dateKey)
	if err == nil {
		a.metrics.TokensAllocated.WithLabelValues("sequential").Inc()
		return Token{
			Value: fmt.Sprintf("%s-%03d", a.prefix, seq),
			Kind:  KindSequential,
			Seq:   seq,
		}, nil
	}

	// Degraded mode: the counter primitive is unavailable. Synthesize a
	// token from a nanosecond fragment plus a random suffix. Unique, but
	// not sequential.
	log.Printf("token allocator: counter store unavailable, using synthetic fallback: %v", err)

	suffix, rerr := a.randSuffix()
	if rerr != nil {
		return Token{}, fmt.Errorf("%w: %v (fallback: %v)", ErrAllocationFailed, err, rerr)
	}
	a.metrics.TokensAllocated.WithLabelValues("synthetic").Inc()
	return Token{
		Value: fmt.Sprintf("%s-%d%s", a.prefix, now.UnixNano()%1_000_000_000, suffix),
		Kind:  KindSynthetic,
	}, nil
}

func randomHex2() (string, error) {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
