package middleware

import (
	"net/http"
	"time"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys the webhook handler fills for ReceiptAudit.
const (
	CtxEventID   = "webhook_event_id"
	CtxEventType = "webhook_event_type"
	CtxErrorKind = "webhook_error_kind"
)

// ReceiptAudit records a receipt for every webhook POST once the response
// has been written. GET verification probes are not recorded.
func ReceiptAudit(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}

		kind := apperror.Kind(c.GetString(CtxErrorKind))
		auditSvc.Record(c.Request.Context(), &domain.WebhookReceipt{
			ID:         uuid.New(),
			EventID:    c.GetString(CtxEventID),
			EventType:  c.GetString(CtxEventType),
			Outcome:    receiptOutcome(c.Writer.Status(), kind),
			ErrorKind:  string(kind),
			RemoteIP:   c.ClientIP(),
			HTTPStatus: c.Writer.Status(),
			ReceivedAt: time.Now().UTC(),
		})
	}
}

func receiptOutcome(status int, kind apperror.Kind) domain.ReceiptOutcome {
	switch {
	case kind == "":
		return domain.ReceiptAccepted
	case kind == apperror.KindDuplicateWebhook:
		return domain.ReceiptDuplicate
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return domain.ReceiptRejected
	default:
		return domain.ReceiptFailed
	}
}
