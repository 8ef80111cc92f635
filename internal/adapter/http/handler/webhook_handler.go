package handler

import (
	"errors"
	"io"
	"net/http"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/adapter/http/middleware"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"
	"payment-webhook-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives processor webhooks.
type WebhookHandler struct {
	svc                ports.WebhookService
	signatureHeader    string
	verificationHeader string
	log                zerolog.Logger
}

func NewWebhookHandler(svc ports.WebhookService, cfg config.WebhookConfig, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:                svc,
		signatureHeader:    cfg.SignatureHeader,
		verificationHeader: cfg.VerificationHeader,
		log:                log,
	}
}

// Verify handles GET /webhook: the processor checks endpoint ownership by
// expecting its verification header echoed back.
func (h *WebhookHandler) Verify(c *gin.Context) {
	c.String(http.StatusOK, c.GetHeader(h.verificationHeader))
}

// Receive handles POST /webhook.
//
// Authentication and parse failures answer 400 with the error kind so the
// processor stops retrying. Once the body is accepted the answer is always
// 200; a storage failure is reported in the body only.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.fail(c, status, apperror.KindInvalidPayload)
		return
	}

	n, err := h.svc.Parse(body, c.GetHeader(h.signatureHeader))
	if err != nil {
		status := http.StatusInternalServerError
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		h.log.Warn().Err(err).Int("status", status).Msg("webhook rejected")
		h.fail(c, status, apperror.KindOf(err))
		return
	}

	c.Set(middleware.CtxEventID, n.ID)
	c.Set(middleware.CtxEventType, n.Type)

	if err := h.svc.Persist(c.Request.Context(), n); err != nil {
		if errors.Is(err, apperror.ErrDuplicateWebhook(n.ID)) {
			c.Set(middleware.CtxErrorKind, string(apperror.KindDuplicateWebhook))
			response.WebhookOK(c)
			return
		}
		h.log.Error().Err(err).Str("event_id", n.ID).Str("type", n.Type).Msg("failed to store webhook")
		h.fail(c, http.StatusOK, apperror.KindUnhandled)
		return
	}

	response.WebhookOK(c)
}

func (h *WebhookHandler) fail(c *gin.Context, status int, kind apperror.Kind) {
	c.Set(middleware.CtxErrorKind, string(kind))
	response.WebhookFailure(c, status, kind)
}
