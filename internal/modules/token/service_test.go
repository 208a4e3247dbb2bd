package token

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpkpaswan/canteenqr/internal/civil"
	"github.com/dpkpaswan/canteenqr/pkg/metrics"
)

// fakeCounterStore implements CounterStore with the same
// increment-or-insert semantics as the Postgres upsert.
type fakeCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
	failWith error
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counters: make(map[string]int64)}
}

func (f *fakeCounterStore) IncrementDailyCounter(ctx context.Context, dateKey string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.counters[dateKey]++
	return f.counters[dateKey], nil
}

func newTestAllocator(store CounterStore) *allocator {
	return NewAllocator(store, civil.Default(), "T", metrics.NewUnregistered("test")).(*allocator)
}

func TestAllocateSequential(t *testing.T) {
	a := newTestAllocator(newFakeCounterStore())
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, civil.Default().Location())

	tok, err := a.Allocate(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "T-001", tok.Value)
	assert.Equal(t, KindSequential, tok.Kind)
	assert.EqualValues(t, 1, tok.Seq)

	tok, err = a.Allocate(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "T-002", tok.Value)
}

func TestAllocateCustomPrefix(t *testing.T) {
	a := NewAllocator(newFakeCounterStore(), civil.Default(), "LUNCH", metrics.NewUnregistered("test"))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, civil.Default().Location())

	tok, err := a.Allocate(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "LUNCH-001", tok.Value)
}

func TestAllocateConcurrentDistinctAndGapless(t *testing.T) {
	const n = 100
	a := newTestAllocator(newFakeCounterStore())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, civil.Default().Location())

	var wg sync.WaitGroup
	results := make(chan Token, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := a.Allocate(context.Background(), now)
			if err != nil {
				t.Error(err)
				return
			}
			results <- tok
		}()
	}
	wg.Wait()
	close(results)

	seqs := make([]int64, 0, n)
	values := make(map[string]bool, n)
	for tok := range results {
		assert.Equal(t, KindSequential, tok.Kind)
		assert.False(t, values[tok.Value], "duplicate token %s", tok.Value)
		values[tok.Value] = true
		seqs = append(seqs, tok.Seq)
	}
	require.Len(t, seqs, n)

	// Commit order may differ from arrival order, but the sequence must be
	// exactly 1..n with no gaps.
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for i, s := range seqs {
		assert.EqualValues(t, i+1, s)
	}
}

func TestAllocateDailyReset(t *testing.T) {
	a := newTestAllocator(newFakeCounterStore())
	loc := civil.Default().Location()

	lastNight := time.Date(2024, 3, 1, 23, 59, 59, 999_000_000, loc)
	nextMorning := time.Date(2024, 3, 2, 0, 0, 0, 0, loc)

	tok1, err := a.Allocate(context.Background(), lastNight)
	require.NoError(t, err)
	tok2, err := a.Allocate(context.Background(), nextMorning)
	require.NoError(t, err)

	// Different day buckets: both are legitimately the first token of
	// their day.
	assert.Equal(t, "T-001", tok1.Value)
	assert.Equal(t, "T-001", tok2.Value)
}

func TestAllocateFallbackSynthetic(t *testing.T) {
	store := newFakeCounterStore()
	store.failWith = errors.New("connection refused")
	a := newTestAllocator(store)
	now := time.Date(2024, 3, 1, 9, 0, 0, 123_456_789, civil.Default().Location())

	tok, err := a.Allocate(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, KindSynthetic, tok.Kind)
	assert.Zero(t, tok.Seq)
	assert.Contains(t, tok.Value, "T-")

	// Distinct from a second fallback allocation a moment later.
	tok2, err := a.Allocate(context.Background(), now.Add(time.Microsecond))
	require.NoError(t, err)
	assert.NotEqual(t, tok.Value, tok2.Value)
}

func TestAllocateFailsWhenFallbackExhausted(t *testing.T) {
	store := newFakeCounterStore()
	store.failWith = errors.New("connection refused")
	a := newTestAllocator(store)
	a.randSuffix = func() (string, error) { return "", fmt.Errorf("entropy unavailable") }

	_, err := a.Allocate(context.Background(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocationFailed)
}
