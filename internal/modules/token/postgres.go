package token

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresCounterStore struct{ db *sql.DB }

// NewPostgresCounterStore returns a CounterStore backed by the
// daily_token_counters table.
func NewPostgresCounterStore(db *sql.DB) CounterStore { return &postgresCounterStore{db: db} }

// IncrementDailyCounter performs the increment-or-insert in one statement so
// concurrent allocations for the same day can never read the same value.
// A read-max-then-insert approach on the orders table would let two racing
// transactions mint the same number.
func (s *postgresCounterStore) IncrementDailyCounter(ctx context.Context, dateKey string) (int64, error) {
	var counter int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_token_counters (day, counter)
		VALUES ($1, 1)
		ON CONFLICT (day)
		DO UPDATE SET counter = daily_token_counters.counter + 1
		RETURNING counter`, dateKey).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("increment daily counter: %w", err)
	}
	return counter, nil
}
