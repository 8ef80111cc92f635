package postgres

import (
	"context"
	"fmt"

	"payment-webhook-gateway/internal/core/domain"
)

// ReceiptRepo implements ports.ReceiptRepository.
type ReceiptRepo struct {
	pool Pool
}

func NewReceiptRepo(pool Pool) *ReceiptRepo {
	return &ReceiptRepo{pool: pool}
}

func (r *ReceiptRepo) Create(ctx context.Context, rc *domain.WebhookReceipt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO webhook_receipts (id, event_id, event_type, outcome, error_kind, remote_ip, http_status, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rc.ID, rc.EventID, rc.EventType, string(rc.Outcome), rc.ErrorKind,
		rc.RemoteIP, rc.HTTPStatus, rc.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook receipt: %w", err)
	}
	return nil
}
