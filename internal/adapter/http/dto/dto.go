package dto

import (
	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
)

// CheckoutReturnRequest is the query of GET /checkout/return. PaymentID is
// the processor's payment id from the return URL, when present.
type CheckoutReturnRequest struct {
	OrderNo   string `form:"order_no" binding:"required,max=64,safe_id"`
	PaymentID string `form:"payment_id" binding:"omitempty,max=64,safe_id"`
}

// CheckoutReturnResponse reports the categorised payment state of an order.
type CheckoutReturnResponse struct {
	OrderNo         string `json:"order_no"`
	Category        string `json:"category"`
	ProcessorStatus string `json:"processor_status"`
	OrderStatus     string `json:"order_status"`
}

func NewCheckoutReturnResponse(r *ports.CheckoutResult) CheckoutReturnResponse {
	return CheckoutReturnResponse{
		OrderNo:         r.OrderNo,
		Category:        string(r.Category),
		ProcessorStatus: r.ProcessorStatus,
		OrderStatus:     string(r.OrderStatus),
	}
}

// ReconcileResponse is the body of POST /admin/reconcile.
type ReconcileResponse struct {
	Groups    int `json:"groups"`
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Deleted   int `json:"deleted"`
}

func NewReconcileResponse(s *domain.RunSummary) ReconcileResponse {
	return ReconcileResponse{
		Groups:    s.Groups,
		Processed: s.Processed,
		Ignored:   s.Ignored,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
		Deleted:   s.Deleted,
	}
}
