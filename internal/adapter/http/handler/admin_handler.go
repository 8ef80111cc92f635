package handler

import (
	"payment-webhook-gateway/internal/adapter/http/dto"
	"payment-webhook-gateway/internal/adapter/http/middleware"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminHandler exposes operator actions.
type AdminHandler struct {
	trigger ports.ReconcileTrigger
	log     zerolog.Logger
}

func NewAdminHandler(trigger ports.ReconcileTrigger, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{trigger: trigger, log: log}
}

// Reconcile handles POST /admin/reconcile: one locked pass, run inline.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	h.log.Info().Str("subject", c.GetString(middleware.CtxAdminSubject)).Msg("manual reconciliation requested")

	summary, err := h.trigger.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewReconcileResponse(summary))
}
