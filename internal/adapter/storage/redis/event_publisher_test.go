package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"payment-webhook-gateway/internal/core/domain"

	ceevent "github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrderEvent() domain.OrderEvent {
	return domain.OrderEvent{
		Type:            domain.OrderEventPlaced,
		OrderNo:         "ORD123",
		Status:          domain.OrderStatusNew,
		PaymentStatus:   domain.PaymentStatusPaid,
		ProcessorStatus: "CAPTURED",
		OccurredAt:      time.Date(2020, 1, 1, 0, 0, 5, 0, time.UTC),
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	s, client := newTestClient(t)
	pub := NewEventPublisher(client, "orders:events", "payment-webhook-gateway")

	require.NoError(t, pub.Publish(context.Background(), sampleOrderEvent()))

	entries, err := s.Stream("orders:events")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := map[string]string{}
	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		values[entries[0].Values[i]] = entries[0].Values[i+1]
	}
	assert.Equal(t, "order.placed", values["type"])
	assert.Equal(t, "ORD123", values["order_no"])

	var ce ceevent.Event
	require.NoError(t, json.Unmarshal([]byte(values["event"]), &ce))
	assert.Equal(t, "order.placed", ce.Type())
	assert.Equal(t, "ORD123", ce.Subject())
	assert.Equal(t, "payment-webhook-gateway", ce.Source())

	var got domain.OrderEvent
	require.NoError(t, ce.DataAs(&got))
	assert.Equal(t, sampleOrderEvent(), got)
}

func TestNewCloudEvent_RequiresSource(t *testing.T) {
	_, err := NewCloudEvent(sampleOrderEvent(), "")
	assert.Error(t, err)
}

func TestEventPublisher_Unavailable(t *testing.T) {
	s, client := newTestClient(t)
	pub := NewEventPublisher(client, "orders:events", "payment-webhook-gateway")
	s.Close()

	assert.Error(t, pub.Publish(context.Background(), sampleOrderEvent()))
}
