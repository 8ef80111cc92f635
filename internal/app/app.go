// Package app wires adapters and services from configuration. The entry
// points under cmd/ share it so the API and the one-shot reconciler run the
// same pipeline.
package app

import (
	"fmt"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/adapter/processor"
	pgStorage "payment-webhook-gateway/internal/adapter/storage/postgres"
	redisStorage "payment-webhook-gateway/internal/adapter/storage/redis"
	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/internal/service"
	"payment-webhook-gateway/internal/worker"
	"payment-webhook-gateway/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Components holds the wired services.
type Components struct {
	WebhookSvc     *service.WebhookServiceImpl
	CheckoutSvc    *service.CheckoutServiceImpl
	Reconciler     *worker.Reconciler
	TokenSvc       *service.JWTTokenService
	AuditSvc       ports.AuditService
	RateLimitStore *redisStorage.RateLimitStore
	HealthCheckers []ports.HealthChecker
}

// Build wires every component on top of an open pool and Redis client.
func Build(cfg *config.Config, pool pgStorage.Pool, rdb goredis.Cmdable, log zerolog.Logger) (*Components, error) {
	notifRepo := pgStorage.NewNotificationRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	customerRepo := pgStorage.NewCustomerRepo(pool)
	receiptRepo := pgStorage.NewReceiptRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	publisher := redisStorage.NewEventPublisher(rdb, cfg.Webhook.EventStream, cfg.Webhook.EventSource)

	var encSvc ports.EncryptionService
	if cfg.AES.Key != "" {
		c, err := service.NewPayloadCipher(cfg.AES.Key)
		if err != nil {
			return nil, fmt.Errorf("payload cipher: %w", err)
		}
		encSvc = c
	}

	var statusClient ports.StatusClient
	sc, err := processor.NewStatusClient(cfg.Processor)
	if err != nil {
		return nil, err
	}
	if sc != nil {
		statusClient = sc
	}

	verifier := service.NewHMACSignatureService(cfg.Webhook.Secret, cfg.Webhook.SignatureHeader)
	webhookSvc := service.NewWebhookService(
		cfg.Webhook,
		verifier,
		notifRepo,
		redisStorage.NewSeenEventCache(rdb),
		encSvc,
		logger.Component(log, "webhook"),
	)

	hookLog := logger.Component(log, "order_hooks")
	hooks := service.NewHookRegistry()
	hooks.Register(domain.EventCategoryPayment, service.NewPaymentHook(orderRepo, transactor, publisher, hookLog))
	// The parser does not accept refund webhooks yet, so nothing reaches this
	// hook until the refund category is admitted there.
	hooks.Register(domain.EventCategoryRefund, service.NewRefundHook(hookLog))

	reconcileLog := logger.Component(log, "reconciler")
	tokens := service.NewTokenProcessor(customerRepo, notifRepo, transactor, reconcileLog)
	reconcileSvc := service.NewReconciliationService(
		cfg.Reconciler, notifRepo, orderRepo, transactor, tokens, hooks, encSvc, reconcileLog,
	)

	checkoutSvc := service.NewCheckoutService(orderRepo, transactor, statusClient, publisher, logger.Component(log, "checkout"))

	return &Components{
		WebhookSvc:     webhookSvc,
		CheckoutSvc:    checkoutSvc,
		Reconciler:     worker.NewReconciler(cfg.Reconciler, reconcileSvc, redisStorage.NewJobLock(rdb), reconcileLog),
		TokenSvc:       service.NewJWTTokenService(cfg.Admin.JWTSecret, cfg.Admin.Expiry, cfg.Admin.Issuer),
		AuditSvc:       service.NewAuditService(receiptRepo, logger.Component(log, "audit")),
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
	}, nil
}
