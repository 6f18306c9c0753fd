package repositories

import "errors"

// Repository errors. ErrInsufficientBalance and ErrDuplicateReference are
// expected business conditions, not failures; callers branch on them.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrBankAccountNotFound = errors.New("bank account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateReference  = errors.New("duplicate reference")
)
