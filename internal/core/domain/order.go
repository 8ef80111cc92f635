package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

type PaymentStatus string

const (
	PaymentStatusNotPaid PaymentStatus = "NOT_PAID"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type ConfirmationStatus string

const (
	ConfirmationStatusNotConfirmed ConfirmationStatus = "NOT_CONFIRMED"
	ConfirmationStatusConfirmed    ConfirmationStatus = "CONFIRMED"
)

// Order is the storefront order as seen by the reconciliation pipeline.
type Order struct {
	OrderNo             string               `json:"order_no"`
	CustomerNo          *string              `json:"customer_no,omitempty"`
	Status              OrderStatus          `json:"status"`
	PaymentStatus       PaymentStatus        `json:"payment_status"`
	ConfirmationStatus  ConfirmationStatus   `json:"confirmation_status"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	PaymentTransactions []PaymentTransaction `json:"payment_transactions,omitempty"`
}

// PaymentTransaction finds the transaction carrying merchantReference.
func (o *Order) PaymentTransaction(merchantReference string) *PaymentTransaction {
	for i := range o.PaymentTransactions {
		if o.PaymentTransactions[i].MerchantReference == merchantReference {
			return &o.PaymentTransactions[i]
		}
	}
	return nil
}

// LatestPaymentTransaction returns the most recently created transaction.
// Merchant references end in a creation timestamp so the lexicographically
// greatest one wins.
func (o *Order) LatestPaymentTransaction() *PaymentTransaction {
	var latest *PaymentTransaction
	for i := range o.PaymentTransactions {
		if latest == nil || o.PaymentTransactions[i].MerchantReference > latest.MerchantReference {
			latest = &o.PaymentTransactions[i]
		}
	}
	return latest
}

// Place moves a CREATED order to NEW.
func (o *Order) Place() error {
	if o.Status != OrderStatusCreated {
		return fmt.Errorf("cannot place order %s in status %s", o.OrderNo, o.Status)
	}
	o.Status = OrderStatusNew
	return nil
}

// Fail moves a CREATED order to FAILED.
func (o *Order) Fail() error {
	if o.Status != OrderStatusCreated {
		return fmt.Errorf("cannot fail order %s in status %s", o.OrderNo, o.Status)
	}
	o.Status = OrderStatusFailed
	return nil
}

// Cancel moves a NEW or OPEN order to CANCELLED.
func (o *Order) Cancel() error {
	if o.Status != OrderStatusNew && o.Status != OrderStatusOpen {
		return fmt.Errorf("cannot cancel order %s in status %s", o.OrderNo, o.Status)
	}
	o.Status = OrderStatusCancelled
	return nil
}

// Confirm marks the order confirmed. It reports false if it already was.
func (o *Order) Confirm() bool {
	if o.ConfirmationStatus == ConfirmationStatusConfirmed {
		return false
	}
	o.ConfirmationStatus = ConfirmationStatusConfirmed
	return true
}

// OrderNumberFromReference returns the part of a merchant reference before
// the first underscore.
func OrderNumberFromReference(merchantReference string) string {
	orderNo, _, _ := strings.Cut(merchantReference, "_")
	return orderNo
}

// OrderNote is an entry in an order's change history.
type OrderNote struct {
	ID        uuid.UUID `json:"id"`
	OrderNo   string    `json:"order_no"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewOrderNote builds a note stamped with now.
func NewOrderNote(orderNo, text string, now time.Time) *OrderNote {
	return &OrderNote{ID: uuid.New(), OrderNo: orderNo, Text: text, CreatedAt: now}
}

// UpdateNoteText is the history entry for an applied notification.
func UpdateNoteText(category EventCategory, transactionID, status string) string {
	return fmt.Sprintf("Payment processor %s update for transaction with ID %s, status changed to %s.",
		category, transactionID, status)
}

// IgnoredNoteText is the history entry for a superseded notification.
func IgnoredNoteText(transactionID, status string) string {
	return fmt.Sprintf("The webhook of transaction with ID %s and status %s has been ignored since a more recent webhook has been received.",
		transactionID, status)
}
