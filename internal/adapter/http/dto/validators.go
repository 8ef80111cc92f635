package dto

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Order numbers and merchant references are alphanumeric with _ - and .
var safeIDRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = RegisterValidators(v)
	}
}

// RegisterValidators adds the custom tags used by the request DTOs.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("safe_id", validateSafeID)
}

func validateSafeID(fl validator.FieldLevel) bool {
	return safeIDRe.MatchString(fl.Field().String())
}

// Normalize trims surrounding whitespace from the request's identifiers.
func (r *CheckoutReturnRequest) Normalize() {
	r.OrderNo = strings.TrimSpace(r.OrderNo)
	r.PaymentID = strings.TrimSpace(r.PaymentID)
}
