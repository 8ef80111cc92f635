package service

import (
	"encoding/json"
	"testing"
	"time"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhook_Payment(t *testing.T) {
	body := paymentWebhookBody(t, paymentEvent{
		ID:                "evt-1",
		Type:              "payment.captured",
		Created:           "2020-01-01T01:00:05.000+0100",
		TransactionID:     "000000850010000188180000200001",
		MerchantReference: "ORD123_1690000000000",
		Status:            domain.PaymentCaptured,
		Amount:            2980,
	})
	received := time.Date(2020, 1, 1, 0, 0, 6, 0, time.UTC)

	n, err := ParseWebhook(body, received)
	require.NoError(t, err)

	assert.Equal(t, "evt-1", n.ID)
	assert.Equal(t, "1234", n.MerchantID)
	assert.Equal(t, "payment.captured", n.Type)
	assert.Equal(t, "ORD123", n.OrderNumber)
	assert.Equal(t, "ORD123_1690000000000", n.Reference)
	assert.Equal(t, "ORD123_1690000000000", n.MerchantReference)
	assert.Equal(t, "000000850010000188180000200001", n.TransactionID)
	assert.Empty(t, n.CustomerID)
	assert.Equal(t, "2020-01-01T00:00:05.000Z", n.CreateTime)
	assert.Equal(t, "2020-01-01T00:00:05.000", n.SortKey)
	assert.False(t, n.Processed)
	assert.Equal(t, received, n.ReceivedAt)

	var p domain.PaymentPayload
	require.NoError(t, json.Unmarshal([]byte(n.Payload), &p))
	assert.Equal(t, int64(2980), p.PaymentOutput.AmountOfMoney.Amount)
}

func TestParseWebhook_TokenCreated(t *testing.T) {
	n, err := ParseWebhook(tokenWebhookBody(t, "evt-t1", "token.created", "tok-1", "C001"), time.Now())
	require.NoError(t, err)

	assert.Equal(t, "tok-1", n.Reference)
	assert.Equal(t, "tok-1", n.TransactionID)
	assert.Equal(t, "C001", n.CustomerID)
	assert.Empty(t, n.OrderNumber)
	assert.Equal(t, domain.EventCategoryToken, n.Category())
}

func TestParseWebhook_TokenDeletedHasNoCustomer(t *testing.T) {
	n, err := ParseWebhook(tokenWebhookBody(t, "evt-t2", "token.deleted", "tok-1", "C001"), time.Now())
	require.NoError(t, err)
	assert.Empty(t, n.CustomerID)
	assert.Equal(t, "tok-1", n.Reference)
}

func TestParseWebhook_UnknownCategory(t *testing.T) {
	body := []byte(`{"id":"evt-x","type":"foo.bar","created":"2020-01-01T00:00:00.000+0000"}`)
	_, err := ParseWebhook(body, time.Now())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindInvalidEventType, appErr.Kind)
	assert.Equal(t, 400, appErr.HTTPStatus)
}

func TestParseWebhook_RefundIsNotAccepted(t *testing.T) {
	body := []byte(`{"id":"evt-r","type":"refund.refund_requested","created":"2020-01-01T00:00:00.000+0000","refund":{"id":"r1"}}`)
	_, err := ParseWebhook(body, time.Now())
	assert.Equal(t, apperror.KindInvalidEventType, apperror.KindOf(err))
}

func TestParseWebhook_InvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"id":`},
		{"missing id", `{"type":"payment.created"}`},
		{"missing payment object", `{"id":"e","type":"payment.created","created":"2020-01-01T00:00:00.000+0000"}`},
		{"missing merchant reference", `{"id":"e","type":"payment.created","created":"2020-01-01T00:00:00.000+0000","payment":{"id":"p"}}`},
		{"bad created", `{"id":"e","type":"payment.created","created":"yesterday","payment":{"id":"p","paymentOutput":{"references":{"merchantReference":"O_1"}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWebhook([]byte(tt.body), time.Now())
			assert.Equal(t, apperror.KindInvalidPayload, apperror.KindOf(err))
		})
	}
}
