package postgres

import (
	"context"
	"errors"
	"fmt"

	"payment-webhook-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const (
	orderColumns = `order_no, customer_no, status, payment_status, confirmation_status, created_at, updated_at`

	paymentTransactionColumns = `id, order_no, merchant_reference, processor_transaction_id, amount, currency,
	status, is_cancellable, is_refundable, last_processed_sort_key, updated_at`
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// GetByNumber fetches an order with its payment transactions (non-locking read).
func (r *OrderRepo) GetByNumber(ctx context.Context, orderNo string) (*domain.Order, error) {
	return r.get(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE order_no = $1`, orderNo)
}

// GetByNumberForUpdate fetches an order and locks its row until tx ends.
// This MUST be called within a transaction.
func (r *OrderRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNo string) (*domain.Order, error) {
	return r.get(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE order_no = $1 FOR UPDATE`, orderNo)
}

func (r *OrderRepo) get(ctx context.Context, q querier, query, orderNo string) (*domain.Order, error) {
	o := &domain.Order{}
	err := q.QueryRow(ctx, query, orderNo).Scan(
		&o.OrderNo, &o.CustomerNo, &o.Status, &o.PaymentStatus,
		&o.ConfirmationStatus, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	pts, err := listPaymentTransactions(ctx, q, orderNo)
	if err != nil {
		return nil, err
	}
	o.PaymentTransactions = pts
	return o, nil
}

func listPaymentTransactions(ctx context.Context, q querier, orderNo string) ([]domain.PaymentTransaction, error) {
	query := `SELECT ` + paymentTransactionColumns + `
		FROM payment_transactions WHERE order_no = $1 ORDER BY merchant_reference`

	rows, err := q.Query(ctx, query, orderNo)
	if err != nil {
		return nil, fmt.Errorf("list payment transactions: %w", err)
	}
	defer rows.Close()

	var pts []domain.PaymentTransaction
	for rows.Next() {
		var pt domain.PaymentTransaction
		if err := rows.Scan(
			&pt.ID, &pt.OrderNo, &pt.MerchantReference, &pt.ProcessorTransactionID, &pt.Amount, &pt.Currency,
			&pt.Status, &pt.IsCancellable, &pt.IsRefundable, &pt.LastProcessedSortKey, &pt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment transaction: %w", err)
		}
		pts = append(pts, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment transactions: %w", err)
	}
	return pts, nil
}

// UpdateStatus writes the order's lifecycle fields within tx.
func (r *OrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `UPDATE orders
		SET status = $1, payment_status = $2, confirmation_status = $3, updated_at = $4
		WHERE order_no = $5`

	tag, err := tx.Exec(ctx, query,
		string(o.Status), string(o.PaymentStatus), string(o.ConfirmationStatus), o.UpdatedAt, o.OrderNo,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", o.OrderNo)
	}
	return nil
}

// UpdatePaymentTransaction writes processor fields and the last processed
// sort key within tx.
func (r *OrderRepo) UpdatePaymentTransaction(ctx context.Context, tx pgx.Tx, pt *domain.PaymentTransaction) error {
	query := `UPDATE payment_transactions
		SET processor_transaction_id = $1, amount = $2, currency = $3, status = $4,
			is_cancellable = $5, is_refundable = $6, last_processed_sort_key = $7, updated_at = $8
		WHERE id = $9`

	tag, err := tx.Exec(ctx, query,
		pt.ProcessorTransactionID, pt.Amount, pt.Currency, pt.Status,
		pt.IsCancellable, pt.IsRefundable, pt.LastProcessedSortKey, pt.UpdatedAt, pt.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment transaction not found: %s", pt.ID)
	}
	return nil
}

// AddNote appends to the order's change history within tx.
func (r *OrderRepo) AddNote(ctx context.Context, tx pgx.Tx, note *domain.OrderNote) error {
	query := `INSERT INTO order_notes (id, order_no, text, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := tx.Exec(ctx, query, note.ID, note.OrderNo, note.Text, note.CreatedAt); err != nil {
		return fmt.Errorf("insert order note: %w", err)
	}
	return nil
}
