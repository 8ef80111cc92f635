package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// WebhookServiceImpl implements ports.WebhookService.
type WebhookServiceImpl struct {
	verifier   ports.SignatureVerifier
	repo       ports.NotificationRepository
	seen       ports.SeenEventCache    // nil = database dedup only
	encSvc     ports.EncryptionService // nil = payloads stored in clear
	merchantID string
	dedupTTL   time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewWebhookService creates the webhook ingestion service.
func NewWebhookService(
	cfg config.WebhookConfig,
	verifier ports.SignatureVerifier,
	repo ports.NotificationRepository,
	seen ports.SeenEventCache,
	encSvc ports.EncryptionService,
	log zerolog.Logger,
) *WebhookServiceImpl {
	return &WebhookServiceImpl{
		verifier:   verifier,
		repo:       repo,
		seen:       seen,
		encSvc:     encSvc,
		merchantID: cfg.MerchantID,
		dedupTTL:   cfg.DedupTTL,
		now:        time.Now,
		log:        log,
	}
}

// Parse authenticates body and converts it into a notification.
func (s *WebhookServiceImpl) Parse(body []byte, signature string) (*domain.Notification, error) {
	if err := s.verifier.Verify(body, signature); err != nil {
		return nil, err
	}

	n, err := ParseWebhook(body, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if s.merchantID != "" && n.MerchantID != s.merchantID {
		return nil, apperror.ErrInvalidPayload(fmt.Errorf("event %s is addressed to merchant %q", n.ID, n.MerchantID))
	}
	return n, nil
}

// Persist stores n exactly once. A redelivery returns ErrDuplicateWebhook.
func (s *WebhookServiceImpl) Persist(ctx context.Context, n *domain.Notification) error {
	if s.seen != nil {
		seen, err := s.seen.Seen(ctx, n.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("event_id", n.ID).Msg("seen-event cache lookup failed, falling through to DB")
		} else if seen {
			s.log.Debug().Str("event_id", n.ID).Msg("duplicate webhook (cache)")
			return apperror.ErrDuplicateWebhook(n.ID)
		}
	}

	stored := *n
	if s.encSvc != nil {
		enc, err := s.encSvc.Encrypt(n.Payload)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("encrypt payload: %w", err))
		}
		stored.Payload = enc
		stored.PayloadEncrypted = true
	}

	err := s.repo.Insert(ctx, &stored)
	switch {
	case errors.Is(err, apperror.ErrDuplicateWebhook(n.ID)):
		s.log.Debug().Str("event_id", n.ID).Msg("duplicate webhook")
		s.remember(ctx, n.ID)
		return err
	case err != nil:
		return apperror.InternalError(fmt.Errorf("insert notification: %w", err))
	}

	s.remember(ctx, n.ID)

	s.log.Info().
		Str("event_id", n.ID).
		Str("type", n.Type).
		Str("reference", n.Reference).
		Str("create_time", n.CreateTime).
		Msg("webhook stored")
	return nil
}

func (s *WebhookServiceImpl) remember(ctx context.Context, eventID string) {
	if s.seen == nil || s.dedupTTL <= 0 {
		return
	}
	if err := s.seen.Remember(ctx, eventID, s.dedupTTL); err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to cache seen event")
	}
}
