package domain

import "time"

// OrderEventType names a state change published to downstream consumers.
type OrderEventType string

const (
	OrderEventPlaced               OrderEventType = "order.placed"
	OrderEventFailed               OrderEventType = "order.failed"
	OrderEventCancelled            OrderEventType = "order.cancelled"
	OrderEventPaymentStatusChanged OrderEventType = "order.payment_status_changed"
	OrderEventConfirmationRequired OrderEventType = "order.confirmation_required"
	OrderEventConfirmed            OrderEventType = "order.confirmed"
)

// OrderEvent is emitted after an order transition has been committed.
type OrderEvent struct {
	Type            OrderEventType `json:"type"`
	OrderNo         string         `json:"order_no"`
	Status          OrderStatus    `json:"status"`
	PaymentStatus   PaymentStatus  `json:"payment_status"`
	ProcessorStatus string         `json:"processor_status,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// NewOrderEvent snapshots order into an event of type t.
func NewOrderEvent(t OrderEventType, order *Order, processorStatus string, now time.Time) OrderEvent {
	return OrderEvent{
		Type:            t,
		OrderNo:         order.OrderNo,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		ProcessorStatus: processorStatus,
		OccurredAt:      now,
	}
}
