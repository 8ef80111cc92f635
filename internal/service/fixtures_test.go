package service

import (
	"encoding/json"
	"io"
	"testing"

	"payment-webhook-gateway/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type paymentEvent struct {
	ID                string
	Type              string
	Created           string
	TransactionID     string
	MerchantReference string
	Status            string
	Amount            int64
}

func paymentWebhookBody(t *testing.T, e paymentEvent) []byte {
	t.Helper()
	body := map[string]any{
		"apiVersion": "v1",
		"id":         e.ID,
		"created":    e.Created,
		"merchantId": "1234",
		"type":       e.Type,
		"payment":    paymentPayloadJSON(e.TransactionID, e.MerchantReference, e.Status, e.Amount),
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return b
}

func paymentPayloadJSON(id, merchantReference, status string, amount int64) map[string]any {
	return map[string]any{
		"id":     id,
		"status": status,
		"paymentOutput": map[string]any{
			"amountOfMoney": map[string]any{"amount": amount, "currencyCode": "EUR"},
			"references":    map[string]any{"merchantReference": merchantReference},
		},
		"statusOutput": map[string]any{
			"isCancellable": status == domain.PaymentPendingApproval,
			"isRefundable":  status == domain.PaymentCaptured,
		},
	}
}

func tokenWebhookBody(t *testing.T, id, eventType, tokenID, customerID string) []byte {
	t.Helper()
	body := map[string]any{
		"id":         id,
		"created":    "2020-01-01T00:00:00.000+0000",
		"merchantId": "1234",
		"type":       eventType,
		"token": map[string]any{
			"id":               tokenID,
			"paymentProductId": 1,
			"card": map[string]any{
				"customer": map[string]any{"merchantCustomerId": customerID},
				"data": map[string]any{
					"cardWithoutCvv": map[string]any{
						"cardholderName": "Jane Doe",
						"cardNumber":     "************1111",
						"expiryDate":     "1230",
					},
				},
			},
		},
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return b
}
