package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"payment-webhook-gateway/pkg/apperror"
)

// HMACSignatureService implements ports.SignatureVerifier. A signature is
// the base64 encoded HMAC-SHA256 of the raw request body.
type HMACSignatureService struct {
	secret []byte
	header string
}

// NewHMACSignatureService creates a verifier for the shared webhook secret.
// header is only used in error messages.
func NewHMACSignatureService(secret, header string) *HMACSignatureService {
	return &HMACSignatureService{secret: []byte(secret), header: header}
}

// Sign computes the signature of body.
func (s *HMACSignatureService) Sign(body []byte) (string, error) {
	if len(s.secret) == 0 {
		return "", apperror.ErrMissingSecret()
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks signature against body in constant time.
func (s *HMACSignatureService) Verify(body []byte, signature string) error {
	expected, err := s.Sign(body)
	if err != nil {
		return err
	}
	if signature == "" {
		return apperror.ErrMissingSignature(s.header)
	}
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperror.ErrInvalidSignature()
	}
	return nil
}
