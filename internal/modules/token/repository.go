package token

import "context"

// CounterStore is the single atomic primitive the allocator relies on.
type CounterStore interface {
	// IncrementDailyCounter bumps (or creates at 1) the counter row for the
	// given civil date key and returns the new value. Concurrent calls for
	// the same key are linearized by the store; the allocator holds no
	// counter state in memory.
	IncrementDailyCounter(ctx context.Context, dateKey string) (int64, error)
}
