package domain

// StatusCategory groups processor payment statuses by how an order reacts.
type StatusCategory string

const (
	StatusCategoryRejected   StatusCategory = "REJECTED"
	StatusCategorySuccessful StatusCategory = "SUCCESSFUL"
	StatusCategoryUnknown    StatusCategory = "STATUS_UNKNOWN"
)

// Processor payment statuses.
const (
	PaymentCreated                = "CREATED"
	PaymentCancelled              = "CANCELLED"
	PaymentRejected               = "REJECTED"
	PaymentRejectedCapture        = "REJECTED_CAPTURE"
	PaymentRedirected             = "REDIRECTED"
	PaymentPendingPayment         = "PENDING_PAYMENT"
	PaymentAccountVerified        = "ACCOUNT_VERIFIED"
	PaymentPendingApproval        = "PENDING_APPROVAL"
	PaymentPendingCompletion      = "PENDING_COMPLETION"
	PaymentPendingCapture         = "PENDING_CAPTURE"
	PaymentPendingFraudApproval   = "PENDING_FRAUD_APPROVAL"
	PaymentAuthorizationRequested = "AUTHORIZATION_REQUESTED"
	PaymentCaptureRequested       = "CAPTURE_REQUESTED"
	PaymentCaptured               = "CAPTURED"
	PaymentPaid                   = "PAID"
	PaymentChargebackNotification = "CHARGEBACK_NOTIFICATION"
	PaymentChargebacked           = "CHARGEBACKED"
	PaymentReversed               = "REVERSED"
	PaymentRefunded               = "REFUNDED"
)

var statusCategories = map[string]StatusCategory{
	PaymentCreated:         StatusCategoryRejected,
	PaymentCancelled:       StatusCategoryRejected,
	PaymentRejected:        StatusCategoryRejected,
	PaymentRejectedCapture: StatusCategoryRejected,

	PaymentRedirected: StatusCategoryUnknown,

	PaymentPendingPayment:         StatusCategorySuccessful,
	PaymentAccountVerified:        StatusCategorySuccessful,
	PaymentPendingApproval:        StatusCategorySuccessful,
	PaymentPendingCompletion:      StatusCategorySuccessful,
	PaymentPendingCapture:         StatusCategorySuccessful,
	PaymentPendingFraudApproval:   StatusCategorySuccessful,
	PaymentAuthorizationRequested: StatusCategorySuccessful,
	PaymentCaptureRequested:       StatusCategorySuccessful,
	PaymentCaptured:               StatusCategorySuccessful,
	PaymentPaid:                   StatusCategorySuccessful,
	PaymentChargebackNotification: StatusCategorySuccessful,
	PaymentChargebacked:           StatusCategorySuccessful,
	PaymentReversed:               StatusCategorySuccessful,
	PaymentRefunded:               StatusCategorySuccessful,
}

// Categorize maps a processor status to its category. Unrecognised values
// are STATUS_UNKNOWN.
func Categorize(status string) StatusCategory {
	if c, ok := statusCategories[status]; ok {
		return c
	}
	return StatusCategoryUnknown
}
