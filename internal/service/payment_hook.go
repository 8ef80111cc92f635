package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// PaymentHook moves the order along after a payment notification has been
// applied to its transaction.
type PaymentHook struct {
	transitions *orderTransitioner
	log         zerolog.Logger
}

// NewPaymentHook creates the payment category hook. publisher may be nil.
func NewPaymentHook(
	orders ports.OrderRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *PaymentHook {
	return &PaymentHook{
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

func (h *PaymentHook) Handle(ctx context.Context, in ports.HookInput) error {
	status, err := hookStatus(in)
	if err != nil {
		return err
	}

	switch status {
	case domain.PaymentCaptured, domain.PaymentPaid, domain.PaymentCaptureRequested:
		_, err = h.transitions.apply(ctx, in.OrderNo, status, markPaid)
	case domain.PaymentCancelled, domain.PaymentRejected, domain.PaymentRejectedCapture:
		_, err = h.transitions.apply(ctx, in.OrderNo, status, markNotPaid)
	case domain.PaymentChargebackNotification,
		domain.PaymentChargebacked,
		domain.PaymentReversed,
		domain.PaymentRefunded,
		domain.PaymentCreated,
		domain.PaymentRedirected,
		domain.PaymentPendingPayment,
		domain.PaymentAccountVerified,
		domain.PaymentPendingApproval,
		domain.PaymentPendingCompletion,
		domain.PaymentPendingCapture,
		domain.PaymentPendingFraudApproval,
		domain.PaymentAuthorizationRequested:
		// order unchanged
	default:
		h.log.Error().Str("order_no", in.OrderNo).Str("status", status).Msg("unexpected payment status in webhook")
	}
	return err
}

// hookStatus prefers the status just written to the transaction and falls
// back to the notification payload.
func hookStatus(in ports.HookInput) (string, error) {
	if in.Transaction != nil && in.Transaction.Status != "" {
		return in.Transaction.Status, nil
	}
	var p domain.PaymentPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return "", apperror.ErrInvalidPayload(fmt.Errorf("decode payment payload: %w", err))
	}
	return p.Status, nil
}

// RefundHook is registered for refund notifications. Refunds are not
// processed; the hook only records that it ran.
type RefundHook struct {
	log zerolog.Logger
}

func NewRefundHook(log zerolog.Logger) *RefundHook {
	return &RefundHook{log: log}
}

func (h *RefundHook) Handle(_ context.Context, in ports.HookInput) error {
	ev := h.log.Debug().Str("order_no", in.OrderNo)
	if in.Transaction != nil {
		ev = ev.Str("transaction_id", in.Transaction.ID.String())
	}
	ev.Msg("refund hook not implemented")
	return nil
}
