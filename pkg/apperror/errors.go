package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the client-visible error classification. Webhook responses carry
// the kind verbatim in their "error" field.
type Kind string

const (
	KindMissingSecret              Kind = "MissingSecret"
	KindMissingSignature           Kind = "MissingSignature"
	KindInvalidSignature           Kind = "InvalidSignature"
	KindInvalidEventType           Kind = "InvalidEventType"
	KindInvalidPayload             Kind = "InvalidPayload"
	KindDuplicateWebhook           Kind = "DuplicateWebhook"
	KindOrderNotFound              Kind = "OrderNotFound"
	KindPaymentTransactionNotFound Kind = "PaymentTransactionNotFound"
	KindCustomerNotFound           Kind = "CustomerNotFound"
	KindUnauthorized               Kind = "Unauthorized"
	KindRateLimited                Kind = "RateLimited"
	KindValidation                 Kind = "Validation"
	KindReconcileInProgress        Kind = "ReconcileInProgress"
	KindProcessorUnavailable       Kind = "ProcessorUnavailable"
	KindUnhandled                  Kind = "UnhandledError"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"error"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // not exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError of the same kind, so errors.Is(err, ErrDuplicateWebhook(""))
// style checks work without comparing messages.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new AppError.
func New(kind Kind, message string, httpStatus int) *AppError {
	return &AppError{Kind: kind, Message: message, HTTPStatus: httpStatus}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, message string, httpStatus int, err error) *AppError {
	return &AppError{Kind: kind, Message: message, HTTPStatus: httpStatus, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindUnhandled when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnhandled
}

// ---- Webhook authenticity ----

func ErrMissingSecret() *AppError {
	return New(KindMissingSecret, "Webhooks secret is not configured", http.StatusBadRequest)
}

func ErrMissingSignature(header string) *AppError {
	return New(KindMissingSignature, fmt.Sprintf("Missing http header %q", header), http.StatusBadRequest)
}

func ErrInvalidSignature() *AppError {
	return New(KindInvalidSignature, "Invalid signature", http.StatusBadRequest)
}

// ---- Webhook payload ----

func ErrInvalidEventType(eventType string) *AppError {
	return New(KindInvalidEventType, fmt.Sprintf("Invalid type %s", eventType), http.StatusBadRequest)
}

func ErrInvalidPayload(err error) *AppError {
	return Wrap(KindInvalidPayload, "Malformed webhook payload", http.StatusBadRequest, err)
}

func ErrDuplicateWebhook(id string) *AppError {
	return New(KindDuplicateWebhook, fmt.Sprintf("Notification with event ID %q already exists", id), http.StatusOK)
}

// ---- Reconciliation ----

func ErrOrderNotFound(orderNo string) *AppError {
	return New(KindOrderNotFound, fmt.Sprintf("Order %q not found", orderNo), http.StatusNotFound)
}

func ErrPaymentTransactionNotFound(merchantReference string) *AppError {
	return New(KindPaymentTransactionNotFound,
		fmt.Sprintf("PaymentTransaction with merchant reference %q not found", merchantReference),
		http.StatusNotFound)
}

func ErrCustomerNotFound(customerID string) *AppError {
	return New(KindCustomerNotFound, fmt.Sprintf("Customer %q not found", customerID), http.StatusNotFound)
}

// ---- Access ----

func ErrUnauthorized() *AppError {
	return New(KindUnauthorized, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrRateLimitExceeded() *AppError {
	return New(KindRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

func ErrReconcileInProgress() *AppError {
	return New(KindReconcileInProgress, "A reconciliation run is already in progress", http.StatusConflict)
}

// ---- Payment processor ----

func ErrProcessorUnavailable(err error) *AppError {
	return Wrap(KindProcessorUnavailable, "Payment processor status request failed", http.StatusBadGateway, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New(KindValidation, message, http.StatusBadRequest)
}

// InternalError wraps an unexpected failure.
func InternalError(err error) *AppError {
	return Wrap(KindUnhandled, "Internal server error", http.StatusInternalServerError, err)
}
