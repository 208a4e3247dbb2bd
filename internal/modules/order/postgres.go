package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, token, token_kind, day_key, status, total_amount, currency,
	       customer_subject, customer_email, customer_name, payment_ref, payment_sig,
	       created_at, updated_at`

// Create inserts the order and all its items inside a single transaction.
func (r *postgresRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, token, token_kind, day_key, status, total_amount, currency,
		   customer_subject, customer_email, customer_name, payment_ref, payment_sig,
		   created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.ID, o.Token, o.TokenKind, o.DayKey, o.Status, o.TotalAmount, o.Currency,
		o.CustomerSubject, o.CustomerEmail, o.CustomerName, o.PaymentRef, o.PaymentSig,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "payment_ref") {
				return ErrDuplicatePayment
			}
			return ErrDuplicateToken
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items
			  (id, order_id, name, unit_price, quantity, line_total)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, o.ID, item.Name, item.UnitPrice, item.Quantity, item.LineTotal)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.loadOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *postgresRepo) GetByDayToken(ctx context.Context, dayKey, tokenValue string) (*Order, error) {
	return r.loadOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE day_key=$1 AND token=$2`,
		dayKey, tokenValue)
}

func (r *postgresRepo) GetLatestByToken(ctx context.Context, tokenValue string) (*Order, error) {
	return r.loadOne(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE token=$1 ORDER BY created_at DESC LIMIT 1`, tokenValue)
}

func (r *postgresRepo) GetByPaymentRef(ctx context.Context, paymentRef string) (*Order, error) {
	return r.loadOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_ref=$1`, paymentRef)
}

// UpdateStatusIf is a conditional update keyed on the previously-read
// status. When two writers race, the row-level update serializes them and
// the loser sees applied=false.
func (r *postgresRepo) UpdateStatusIf(ctx context.Context, id string, from, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postgresRepo) ListByDay(ctx context.Context, dayKey string, status Status) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE day_key=$1`
	args := []interface{}{dayKey}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`
	return r.queryOrders(ctx, query, args...)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) loadOne(ctx context.Context, query string, args ...interface{}) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID.String())
	return o, err
}

func scanOrder(row *sql.Row) (*Order, error) {
	o := &Order{}
	err := row.Scan(
		&o.ID, &o.Token, &o.TokenKind, &o.DayKey, &o.Status, &o.TotalAmount, &o.Currency,
		&o.CustomerSubject, &o.CustomerEmail, &o.CustomerName, &o.PaymentRef, &o.PaymentSig,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(
			&o.ID, &o.Token, &o.TokenKind, &o.DayKey, &o.Status, &o.TotalAmount, &o.Currency,
			&o.CustomerSubject, &o.CustomerEmail, &o.CustomerName, &o.PaymentRef, &o.PaymentSig,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) listItems(ctx context.Context, orderID string) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, name, unit_price, quantity, line_total
		FROM order_items WHERE order_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
