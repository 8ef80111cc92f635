package domain

import (
	"encoding/json"
	"strings"
)

// EventCategory is the part of a webhook type before the first dot.
type EventCategory string

const (
	EventCategoryPayment EventCategory = "payment"
	EventCategoryToken   EventCategory = "token"
	EventCategoryRefund  EventCategory = "refund"
)

// Known event types the reconciler treats specially.
const (
	EventTypePaymentCancelled = "payment.cancelled"
	EventTypeTokenDeleted     = "token.deleted"
)

// EventType is a parsed "category.subtype" webhook type.
type EventType struct {
	Category EventCategory
	Subtype  string
}

// ParseEventType splits raw on the first dot. A type without a dot has an
// empty subtype.
func ParseEventType(raw string) EventType {
	category, subtype, _ := strings.Cut(raw, ".")
	return EventType{Category: EventCategory(category), Subtype: subtype}
}

func (t EventType) String() string {
	if t.Subtype == "" {
		return string(t.Category)
	}
	return string(t.Category) + "." + t.Subtype
}

// WebhookEvent is the body of a webhook POST as sent by the processor.
type WebhookEvent struct {
	APIVersion string          `json:"apiVersion"`
	ID         string          `json:"id"`
	Created    string          `json:"created"`
	MerchantID string          `json:"merchantId"`
	Type       string          `json:"type"`
	Payment    json.RawMessage `json:"payment,omitempty"`
	Token      json.RawMessage `json:"token,omitempty"`
	Refund     json.RawMessage `json:"refund,omitempty"`
}

// PaymentPayload is the payment object carried by payment.* webhooks and
// returned by the processor's status API.
type PaymentPayload struct {
	ID            string        `json:"id"`
	Status        string        `json:"status"`
	PaymentOutput PaymentOutput `json:"paymentOutput"`
	StatusOutput  StatusOutput  `json:"statusOutput"`
}

type PaymentOutput struct {
	AmountOfMoney AmountOfMoney     `json:"amountOfMoney"`
	References    PaymentReferences `json:"references"`
}

type AmountOfMoney struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type PaymentReferences struct {
	MerchantReference string `json:"merchantReference"`
}

type StatusOutput struct {
	IsCancellable  bool   `json:"isCancellable"`
	IsRefundable   bool   `json:"isRefundable"`
	StatusCategory string `json:"statusCategory,omitempty"`
	StatusCode     int    `json:"statusCode,omitempty"`
}

// TokenPayload is the token object carried by token.* webhooks.
type TokenPayload struct {
	ID               string    `json:"id"`
	PaymentProductID int       `json:"paymentProductId"`
	Card             TokenCard `json:"card"`
}

type TokenCard struct {
	Customer TokenCustomer `json:"customer"`
	Data     TokenCardData `json:"data"`
}

type TokenCustomer struct {
	MerchantCustomerID string `json:"merchantCustomerId"`
}

type TokenCardData struct {
	CardWithoutCvv CardWithoutCvv `json:"cardWithoutCvv"`
}

type CardWithoutCvv struct {
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"` // MMYY
}
