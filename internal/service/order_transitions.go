package service

import (
	"context"
	"fmt"
	"time"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// orderTransitionFunc mutates a locked order and returns the events the
// change should produce. No events means nothing is written.
type orderTransitionFunc func(order *domain.Order) ([]domain.OrderEventType, error)

// orderTransitioner applies order state changes under a row lock and
// publishes the resulting events once the transaction has committed.
type orderTransitioner struct {
	orders     ports.OrderRepository
	transactor ports.DBTransactor
	publisher  ports.EventPublisher // nil = events are only logged
	now        func() time.Time
	log        zerolog.Logger
}

func (t *orderTransitioner) apply(ctx context.Context, orderNo, processorStatus string, fn orderTransitionFunc) (*domain.Order, error) {
	dbTx, err := t.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := t.orders.GetByNumberForUpdate(ctx, dbTx, orderNo)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound(orderNo)
	}

	events, err := fn(order)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return order, nil
	}

	now := t.now().UTC()
	order.UpdatedAt = now
	if err := t.orders.UpdateStatus(ctx, dbTx, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update order: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	for _, et := range events {
		t.publish(ctx, domain.NewOrderEvent(et, order, processorStatus, now))
	}
	return order, nil
}

func (t *orderTransitioner) publish(ctx context.Context, event domain.OrderEvent) {
	t.log.Info().
		Str("event", string(event.Type)).
		Str("order_no", event.OrderNo).
		Str("status", string(event.Status)).
		Str("payment_status", string(event.PaymentStatus)).
		Msg("order transition")

	if t.publisher == nil {
		return
	}
	if err := t.publisher.Publish(ctx, event); err != nil {
		t.log.Warn().Err(err).Str("event", string(event.Type)).Str("order_no", event.OrderNo).Msg("failed to publish order event")
	}
}

// markPaid places a CREATED order and flags it PAID.
func markPaid(order *domain.Order) ([]domain.OrderEventType, error) {
	var events []domain.OrderEventType
	if order.Status == domain.OrderStatusCreated {
		if err := order.Place(); err != nil {
			return nil, err
		}
		events = append(events, domain.OrderEventPlaced)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		order.PaymentStatus = domain.PaymentStatusPaid
		events = append(events, domain.OrderEventPaymentStatusChanged)
	}
	if len(events) > 0 && order.ConfirmationStatus != domain.ConfirmationStatusConfirmed {
		events = append(events, domain.OrderEventConfirmationRequired)
	}
	return events, nil
}

// markNotPaid flags the order NOT_PAID, failing it when it was never placed
// and cancelling it when it was.
func markNotPaid(order *domain.Order) ([]domain.OrderEventType, error) {
	var events []domain.OrderEventType
	if order.PaymentStatus != domain.PaymentStatusNotPaid {
		order.PaymentStatus = domain.PaymentStatusNotPaid
		events = append(events, domain.OrderEventPaymentStatusChanged)
	}
	switch order.Status {
	case domain.OrderStatusCreated:
		if err := order.Fail(); err != nil {
			return nil, err
		}
		events = append(events, domain.OrderEventFailed)
	case domain.OrderStatusNew, domain.OrderStatusOpen:
		if err := order.Cancel(); err != nil {
			return nil, err
		}
		events = append(events, domain.OrderEventCancelled)
	}
	return events, nil
}
