package ledger

import "errors"

// Service errors
var (
	ErrBudgetTooLow   = errors.New("monthly budget below minimum")
	ErrBudgetTooHigh  = errors.New("monthly budget above maximum")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrWalletNotFound = errors.New("wallet not found")
)
