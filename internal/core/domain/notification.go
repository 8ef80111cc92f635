package domain

import (
	"strings"
	"time"
)

// createTimeLayout is the ISO-8601 UTC form stored in CreateTime.
// Fixed millisecond width keeps sort keys lexicographically ordered.
const createTimeLayout = "2006-01-02T15:04:05.000Z"

// sortKeyLayout is createTimeLayout without the zone suffix.
const sortKeyLayout = "2006-01-02T15:04:05.000"

// Notification is a stored webhook waiting for reconciliation. ID is the
// processor's event id and the only idempotency boundary.
type Notification struct {
	ID                string    `json:"id"`
	MerchantID        string    `json:"merchant_id"`
	Type              string    `json:"type"`
	TransactionID     string    `json:"transaction_id"`
	OrderNumber       string    `json:"order_number,omitempty"`
	Reference         string    `json:"reference"`
	MerchantReference string    `json:"merchant_reference,omitempty"`
	CustomerID        string    `json:"customer_id,omitempty"`
	CreateTime        string    `json:"create_time"`
	SortKey           string    `json:"sort_key"`
	Processed         bool      `json:"processed"`
	Payload           string    `json:"-"`
	PayloadEncrypted  bool      `json:"-"`
	ReceivedAt        time.Time `json:"received_at"`
}

// EventType returns the parsed type of the notification.
func (n *Notification) EventType() EventType {
	return ParseEventType(n.Type)
}

// Category returns the category part of the notification type.
func (n *Notification) Category() EventCategory {
	return n.EventType().Category
}

// FormatCreateTime renders t as the canonical UTC create time.
func FormatCreateTime(t time.Time) string {
	return t.UTC().Format(createTimeLayout)
}

// SortKeyOf strips the trailing zone marker from a create time.
func SortKeyOf(createTime string) string {
	return strings.TrimSuffix(createTime, "Z")
}

// SortKeyAt returns the sort key a notification created at t would carry.
func SortKeyAt(t time.Time) string {
	return t.UTC().Format(sortKeyLayout)
}

// ParseCreated parses the processor's "created" timestamp. Both RFC 3339
// and the numeric zone offset form ("2020-01-01T00:00:00.000+0100") are
// accepted.
func ParseCreated(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.000-0700", raw)
}

// ProcessMode is the per-notification decision taken by the reconciler.
type ProcessMode int

const (
	ModeProcess ProcessMode = iota
	ModeIgnore
	ModeSkip
)

func (m ProcessMode) String() string {
	switch m {
	case ModeProcess:
		return "PROCESS"
	case ModeIgnore:
		return "IGNORE"
	case ModeSkip:
		return "SKIP"
	}
	return "UNKNOWN"
}

// NotificationGroup holds every stored notification sharing a reference,
// in ascending sort key order.
type NotificationGroup struct {
	Reference     string
	Notifications []Notification
}

// Last returns the newest notification of the group.
func (g NotificationGroup) Last() *Notification {
	if len(g.Notifications) == 0 {
		return nil
	}
	return &g.Notifications[len(g.Notifications)-1]
}

// TransactionIDs lists the transaction ids present in the group.
func (g NotificationGroup) TransactionIDs() []string {
	ids := make([]string, 0, len(g.Notifications))
	for _, n := range g.Notifications {
		ids = append(ids, n.TransactionID)
	}
	return ids
}

// RunSummary counts the outcomes of one reconciliation pass.
type RunSummary struct {
	Groups    int `json:"groups"`
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Deleted   int `json:"deleted"`
}
