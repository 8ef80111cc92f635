package handler

import (
	"payment-webhook-gateway/internal/adapter/http/dto"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"
	"payment-webhook-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// CheckoutHandler serves the shopper's return from the processor's hosted
// checkout.
type CheckoutHandler struct {
	svc ports.CheckoutService
}

func NewCheckoutHandler(svc ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Return handles GET /checkout/return?order_no=...&payment_id=...
func (h *CheckoutHandler) Return(c *gin.Context) {
	req := dto.CheckoutReturnRequest{
		OrderNo:   c.Query("order_no"),
		PaymentID: c.Query("payment_id"),
	}
	req.Normalize()
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.svc.HandleReturn(c.Request.Context(), req.OrderNo, req.PaymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewCheckoutReturnResponse(result))
}
