package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"payment-webhook-gateway/internal/core/domain"

	ceevent "github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// EventPublisher implements ports.EventPublisher. Order events are encoded
// as structured CloudEvents and appended to a Redis stream.
type EventPublisher struct {
	client goredis.Cmdable
	stream string
	source string
}

func NewEventPublisher(client goredis.Cmdable, stream, source string) *EventPublisher {
	return &EventPublisher{client: client, stream: stream, source: source}
}

// Publish appends event to the stream under the "event" field.
func (p *EventPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	ce, err := NewCloudEvent(event, p.source)
	if err != nil {
		return err
	}

	body, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("encode cloudevent: %w", err)
	}

	err = p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":     string(event.Type),
			"order_no": event.OrderNo,
			"event":    string(body),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd %s: %w", p.stream, err)
	}
	return nil
}

// NewCloudEvent wraps an order event. The order number is the subject.
func NewCloudEvent(event domain.OrderEvent, source string) (ceevent.Event, error) {
	ce := ceevent.New()
	ce.SetID(uuid.NewString())
	ce.SetSource(source)
	ce.SetType(string(event.Type))
	ce.SetSubject(event.OrderNo)
	ce.SetTime(event.OccurredAt)
	if err := ce.SetData(ceevent.ApplicationJSON, event); err != nil {
		return ce, fmt.Errorf("set cloudevent data: %w", err)
	}
	if err := ce.Validate(); err != nil {
		return ce, fmt.Errorf("invalid cloudevent: %w", err)
	}
	return ce, nil
}
