package ports

import (
	"context"

	"payment-webhook-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// NotificationRepository is the durable mailbox of received webhooks.
type NotificationRepository interface {
	// Insert stores n unless a notification with the same id exists, in
	// which case it returns apperror.ErrDuplicateWebhook. Check and insert
	// are one atomic statement.
	Insert(ctx context.Context, n *domain.Notification) error
	// ListOrdered returns every stored notification ordered by reference
	// then sort key.
	ListOrdered(ctx context.Context) ([]domain.Notification, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, id string) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository reads and mutates orders and their payment transactions.
// Methods accepting pgx.Tx are used inside transaction blocks; the ForUpdate
// variant locks the order row.
type OrderRepository interface {
	GetByNumber(ctx context.Context, orderNo string) (*domain.Order, error)
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNo string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	UpdatePaymentTransaction(ctx context.Context, tx pgx.Tx, pt *domain.PaymentTransaction) error
	AddNote(ctx context.Context, tx pgx.Tx, note *domain.OrderNote) error
}

// CustomerRepository reads customers and their stored payment instruments.
type CustomerRepository interface {
	GetByNumber(ctx context.Context, customerNo string) (*domain.Customer, error)
	AddInstrument(ctx context.Context, tx pgx.Tx, pi *domain.PaymentInstrument) error
}

// ReceiptRepository persists webhook delivery receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, r *domain.WebhookReceipt) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
