package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentTransaction is the order-owned record of one processor payment.
// LastProcessedSortKey is the sort key of the newest notification applied.
type PaymentTransaction struct {
	ID                     uuid.UUID `json:"id"`
	OrderNo                string    `json:"order_no"`
	MerchantReference      string    `json:"merchant_reference"`
	ProcessorTransactionID string    `json:"processor_transaction_id,omitempty"`
	Amount                 int64     `json:"amount"` // minor units
	Currency               string    `json:"currency,omitempty"`
	Status                 string    `json:"status,omitempty"`
	IsCancellable          bool      `json:"is_cancellable"`
	IsRefundable           bool      `json:"is_refundable"`
	LastProcessedSortKey   *string   `json:"last_processed_sort_key,omitempty"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// IsNotificationMoreRecent reports whether sortKey is strictly newer than
// the last applied one. An unset value accepts anything.
func (t *PaymentTransaction) IsNotificationMoreRecent(sortKey string) bool {
	if t.LastProcessedSortKey == nil || *t.LastProcessedSortKey == "" {
		return true
	}
	return *t.LastProcessedSortKey < sortKey
}

// ApplyPaymentUpdate copies the processor's view of the payment onto t.
func (t *PaymentTransaction) ApplyPaymentUpdate(p *PaymentPayload) {
	t.Amount = p.PaymentOutput.AmountOfMoney.Amount
	if p.PaymentOutput.AmountOfMoney.CurrencyCode != "" {
		t.Currency = p.PaymentOutput.AmountOfMoney.CurrencyCode
	}
	t.ProcessorTransactionID = p.ID
	t.Status = p.Status
	t.IsCancellable = p.StatusOutput.IsCancellable
	t.IsRefundable = p.StatusOutput.IsRefundable
}

// MarkApplied records sortKey as the newest applied notification.
func (t *PaymentTransaction) MarkApplied(sortKey string) {
	t.LastProcessedSortKey = &sortKey
}
