package service

import (
	"context"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.ReceiptRepository
	log  zerolog.Logger
}

// NewAuditService creates the webhook receipt recorder.
// If repo is nil, receipts are only written to the logger.
func NewAuditService(repo ports.ReceiptRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record stores a webhook receipt asynchronously (fire-and-forget). The
// request context is not used: the response may be written before the
// insert runs.
func (s *auditService) Record(_ context.Context, receipt *domain.WebhookReceipt) {
	go func() {
		s.log.Info().
			Str("event_id", receipt.EventID).
			Str("event_type", receipt.EventType).
			Str("outcome", string(receipt.Outcome)).
			Str("error_kind", receipt.ErrorKind).
			Int("http_status", receipt.HTTPStatus).
			Str("ip", receipt.RemoteIP).
			Msg("webhook receipt")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), receipt); err != nil {
				s.log.Warn().Err(err).Str("event_id", receipt.EventID).Msg("failed to persist webhook receipt")
			}
		}
	}()
}
