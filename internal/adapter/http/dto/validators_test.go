package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterValidators(v))
	return v
}

func TestCheckoutReturnRequest_Validation(t *testing.T) {
	v := newValidator(t)

	valid := []string{"ORD123", "00001234", "ord-1_2.3"}
	for _, orderNo := range valid {
		assert.NoError(t, v.Struct(CheckoutReturnRequest{OrderNo: orderNo}), orderNo)
	}

	invalid := []string{"", "ORD 123", "ORD<script>", "../etc/passwd/..;", "ORD123%00"}
	for _, orderNo := range invalid {
		assert.Error(t, v.Struct(CheckoutReturnRequest{OrderNo: orderNo}), orderNo)
	}

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'A'
	}
	assert.Error(t, v.Struct(CheckoutReturnRequest{OrderNo: string(long)}))
}

func TestCheckoutReturnRequest_Normalize(t *testing.T) {
	req := CheckoutReturnRequest{OrderNo: "  ORD123\t"}
	req.Normalize()
	assert.Equal(t, "ORD123", req.OrderNo)
}

func TestCheckoutReturnRequest_PaymentID(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(CheckoutReturnRequest{OrderNo: "ORD123"}), "payment id is optional")
	assert.NoError(t, v.Struct(CheckoutReturnRequest{OrderNo: "ORD123", PaymentID: "000000850010000188180000100001"}))
	assert.Error(t, v.Struct(CheckoutReturnRequest{OrderNo: "ORD123", PaymentID: "tx 1"}))

	req := CheckoutReturnRequest{OrderNo: "ORD123", PaymentID: " 000000850010000188180000100001\n"}
	req.Normalize()
	assert.Equal(t, "000000850010000188180000100001", req.PaymentID)
}
