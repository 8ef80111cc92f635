package postgres

import (
	"context"
	"fmt"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, merchant_id, type, transaction_id, order_number, reference,
	merchant_reference, customer_id, create_time, sort_key, processed, payload,
	payload_encrypted, received_at`

// NotificationRepo implements ports.NotificationRepository. The table is a
// mailbox: rows are deleted once processed.
type NotificationRepo struct {
	pool Pool
}

func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Insert stores n. The primary key on id makes check and insert a single
// atomic statement; a conflicting row yields ErrDuplicateWebhook.
func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		n.ID, n.MerchantID, n.Type, n.TransactionID, n.OrderNumber, n.Reference,
		n.MerchantReference, n.CustomerID, n.CreateTime, n.SortKey, n.Processed, n.Payload,
		n.PayloadEncrypted, n.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrDuplicateWebhook(n.ID)
	}
	return nil
}

// ListOrdered returns all notifications ordered by reference, then sort key.
// Byte-wise collation keeps sort key order chronological.
func (r *NotificationRepo) ListOrdered(ctx context.Context) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		ORDER BY reference COLLATE "C", sort_key COLLATE "C"`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.MerchantID, &n.Type, &n.TransactionID, &n.OrderNumber, &n.Reference,
			&n.MerchantReference, &n.CustomerID, &n.CreateTime, &n.SortKey, &n.Processed, &n.Payload,
			&n.PayloadEncrypted, &n.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// MarkProcessed flags a notification within tx.
func (r *NotificationRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `UPDATE notifications SET processed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}
	return nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
