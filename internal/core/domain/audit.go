package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptOutcome is how the webhook endpoint answered a delivery.
type ReceiptOutcome string

const (
	ReceiptAccepted  ReceiptOutcome = "ACCEPTED"
	ReceiptDuplicate ReceiptOutcome = "DUPLICATE"
	ReceiptRejected  ReceiptOutcome = "REJECTED"
	ReceiptFailed    ReceiptOutcome = "FAILED"
)

// WebhookReceipt records one webhook delivery for operators.
type WebhookReceipt struct {
	ID         uuid.UUID      `json:"id"`
	EventID    string         `json:"event_id,omitempty"`
	EventType  string         `json:"event_type,omitempty"`
	Outcome    ReceiptOutcome `json:"outcome"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	RemoteIP   string         `json:"remote_ip"`
	HTTPStatus int            `json:"http_status"`
	ReceivedAt time.Time      `json:"received_at"`
}
