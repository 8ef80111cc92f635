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

// CheckoutServiceImpl implements ports.CheckoutService.
//
// The shopper's return from the processor is answered from the processor's
// status API, not from webhooks, which may still be in flight. Only the
// order is touched here; payment transaction fields and the last processed
// sort key stay owned by the reconciler.
type CheckoutServiceImpl struct {
	orders      ports.OrderRepository
	status      ports.StatusClient // nil = use the last status recorded by webhooks
	transitions *orderTransitioner
	log         zerolog.Logger
}

func NewCheckoutService(
	orders ports.OrderRepository,
	transactor ports.DBTransactor,
	status ports.StatusClient,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		orders: orders,
		status: status,
		transitions: &orderTransitioner{
			orders:     orders,
			transactor: transactor,
			publisher:  publisher,
			now:        time.Now,
			log:        log,
		},
		log: log,
	}
}

// HandleReturn categorises the order's payment. paymentID is the id the
// processor appended to the return URL; it is used only while no webhook
// has recorded the transaction id yet.
func (s *CheckoutServiceImpl) HandleReturn(ctx context.Context, orderNo, paymentID string) (*ports.CheckoutResult, error) {
	order, err := s.orders.GetByNumber(ctx, orderNo)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound(orderNo)
	}
	pt := order.LatestPaymentTransaction()
	if pt == nil {
		return nil, apperror.ErrPaymentTransactionNotFound(orderNo)
	}

	status := pt.Status
	lookupID := pt.ProcessorTransactionID
	if lookupID == "" {
		lookupID = paymentID
	}
	if s.status != nil && lookupID != "" {
		p, err := s.status.GetPayment(ctx, lookupID)
		if err != nil {
			return nil, apperror.ErrProcessorUnavailable(err)
		}
		// a shopper-supplied id must resolve to this order's attempt
		if ref := p.PaymentOutput.References.MerchantReference; ref != "" && ref != pt.MerchantReference {
			return nil, apperror.Validation(fmt.Sprintf("payment %s does not belong to order %s", lookupID, orderNo))
		}
		status = p.Status
	}

	category := domain.Categorize(status)
	switch category {
	case domain.StatusCategoryRejected:
		order, err = s.transitions.apply(ctx, orderNo, status, failIfCreated)
	case domain.StatusCategorySuccessful:
		order, err = s.transitions.apply(ctx, orderNo, status, placeAndConfirm)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("order_no", orderNo).
		Str("processor_status", status).
		Str("category", string(category)).
		Str("order_status", string(order.Status)).
		Msg("checkout return handled")

	return &ports.CheckoutResult{
		OrderNo:         orderNo,
		Category:        category,
		ProcessorStatus: status,
		OrderStatus:     order.Status,
	}, nil
}

func failIfCreated(order *domain.Order) ([]domain.OrderEventType, error) {
	if order.Status != domain.OrderStatusCreated {
		return nil, nil
	}
	if err := order.Fail(); err != nil {
		return nil, err
	}
	return []domain.OrderEventType{domain.OrderEventFailed}, nil
}

func placeAndConfirm(order *domain.Order) ([]domain.OrderEventType, error) {
	var events []domain.OrderEventType
	if order.Status == domain.OrderStatusCreated {
		if err := order.Place(); err != nil {
			return nil, err
		}
		events = append(events, domain.OrderEventPlaced)
	}
	if order.Confirm() {
		events = append(events, domain.OrderEventConfirmed)
	}
	return events, nil
}
