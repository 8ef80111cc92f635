package service

import (
	"encoding/json"
	"fmt"
	"time"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/pkg/apperror"
)

// ParseWebhook turns a verified webhook body into a notification ready to
// be stored. It has no side effects.
func ParseWebhook(body []byte, receivedAt time.Time) (*domain.Notification, error) {
	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperror.ErrInvalidPayload(err)
	}
	if event.ID == "" {
		return nil, apperror.ErrInvalidPayload(fmt.Errorf("missing event id"))
	}

	n := &domain.Notification{
		ID:         event.ID,
		MerchantID: event.MerchantID,
		Type:       event.Type,
		ReceivedAt: receivedAt,
	}

	eventType := domain.ParseEventType(event.Type)
	var payload json.RawMessage
	switch eventType.Category {
	case domain.EventCategoryPayment:
		var p domain.PaymentPayload
		if err := decodePayload(event.Payment, &p); err != nil {
			return nil, err
		}
		ref := p.PaymentOutput.References.MerchantReference
		if ref == "" {
			return nil, apperror.ErrInvalidPayload(fmt.Errorf("payment %s has no merchant reference", p.ID))
		}
		n.TransactionID = p.ID
		n.Reference = ref
		n.MerchantReference = ref
		n.OrderNumber = domain.OrderNumberFromReference(ref)
		payload = event.Payment

	case domain.EventCategoryToken:
		var tok domain.TokenPayload
		if err := decodePayload(event.Token, &tok); err != nil {
			return nil, err
		}
		n.TransactionID = tok.ID
		n.Reference = tok.ID
		if eventType.Subtype != "deleted" {
			n.CustomerID = tok.Card.Customer.MerchantCustomerID
		}
		payload = event.Token

	default:
		return nil, apperror.ErrInvalidEventType(string(eventType.Category))
	}

	created, err := domain.ParseCreated(event.Created)
	if err != nil {
		return nil, apperror.ErrInvalidPayload(fmt.Errorf("created %q: %w", event.Created, err))
	}
	n.CreateTime = domain.FormatCreateTime(created)
	n.SortKey = domain.SortKeyOf(n.CreateTime)
	n.Payload = string(payload)

	return n, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return apperror.ErrInvalidPayload(fmt.Errorf("missing payload object"))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperror.ErrInvalidPayload(err)
	}
	return nil
}
