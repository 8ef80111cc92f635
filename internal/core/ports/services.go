package ports

import (
	"context"
	"encoding/json"
	"time"

	"payment-webhook-gateway/internal/core/domain"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureVerifier authenticates webhook bodies.
type SignatureVerifier interface {
	Sign(body []byte) (string, error)
	// Verify returns MissingSecret, MissingSignature or InvalidSignature
	// app errors.
	Verify(body []byte, signature string) error
}

// TokenService handles JWT token operations for the admin API.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
}

// SeenEventCache is the Redis fast path of webhook deduplication.
type SeenEventCache interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string, ttl time.Duration) error
}

// JobLock is a cross-process mutex with a TTL.
type JobLock interface {
	// Acquire returns a token when the lock was taken, "" and false when it
	// is held by someone else.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Refresh extends the TTL while token still owns the lock. It returns
	// false once the lock expired or passed to another holder.
	Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// EventPublisher forwards committed order transitions downstream.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

// StatusClient queries the payment processor for a payment's current state.
type StatusClient interface {
	GetPayment(ctx context.Context, paymentID string) (*domain.PaymentPayload, error)
}

// --- Service Ports (Business Logic) ---

// WebhookService turns verified HTTP deliveries into stored notifications.
type WebhookService interface {
	Parse(body []byte, signature string) (*domain.Notification, error)
	Persist(ctx context.Context, n *domain.Notification) error
}

// ReconciliationService runs one pass over the notification mailbox.
type ReconciliationService interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
}

// ReconcileTrigger runs a single locked reconciliation pass on demand.
type ReconcileTrigger interface {
	RunOnce(ctx context.Context) (*domain.RunSummary, error)
}

// HookInput is what the reconciler hands to a category hook after a
// notification has been applied.
type HookInput struct {
	Type        domain.EventType
	OrderNo     string
	Transaction *domain.PaymentTransaction
	Payload     json.RawMessage
}

// TransactionHook reacts to an applied notification of one category.
type TransactionHook interface {
	Handle(ctx context.Context, in HookInput) error
}

// CheckoutService checks a payment synchronously when the shopper returns
// from the processor.
type CheckoutService interface {
	HandleReturn(ctx context.Context, orderNo, paymentID string) (*CheckoutResult, error)
}

// CheckoutResult is the outcome of a checkout-return status check.
type CheckoutResult struct {
	OrderNo         string                `json:"order_no"`
	Category        domain.StatusCategory `json:"category"`
	ProcessorStatus string                `json:"processor_status"`
	OrderStatus     domain.OrderStatus    `json:"order_status"`
}

// AuditService records webhook receipts.
type AuditService interface {
	Record(ctx context.Context, receipt *domain.WebhookReceipt)
}

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}
