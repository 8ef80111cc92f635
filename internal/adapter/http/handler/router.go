package handler

import (
	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/adapter/http/middleware"
	"payment-webhook-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds webhook and API request bodies.
const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WebhookSvc     ports.WebhookService
	CheckoutSvc    ports.CheckoutService
	Trigger        ports.ReconcileTrigger // nil = admin trigger disabled
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService        // nil = receipts not recorded
	RateLimitStore middleware.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Webhook        config.WebhookConfig
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	webhookHandler := NewWebhookHandler(deps.WebhookSvc, deps.Webhook, deps.Logger)
	webhook := r.Group("/webhook")
	if deps.AuditSvc != nil {
		webhook.Use(middleware.ReceiptAudit(deps.AuditSvc))
	}
	{
		webhook.GET("", webhookHandler.Verify)
		webhook.POST("", webhookHandler.Receive)
	}

	checkoutHandler := NewCheckoutHandler(deps.CheckoutSvc)
	r.GET("/checkout/return", rl("checkout_return"), checkoutHandler.Return)

	if deps.Trigger != nil {
		adminHandler := NewAdminHandler(deps.Trigger, deps.Logger)
		admin := r.Group("/admin", rl("admin"), middleware.JWTAuth(deps.TokenSvc, deps.Logger))
		{
			admin.POST("/reconcile", adminHandler.Reconcile)
		}
	}

	return r
}
