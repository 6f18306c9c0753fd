package payment

import "errors"

// Service errors
var (
	ErrInvalidAmount    = errors.New("top-up amount must be greater than zero")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
)
