package transfer

import "errors"

// Service errors
var (
	ErrInvalidAccountNumber = errors.New("account number must be exactly 10 digits")
	ErrAccountVerification  = errors.New("could not verify bank account")
	ErrNoBankAccount        = errors.New("no verified bank account on file")
	ErrBankListUnavailable  = errors.New("bank list unavailable")
	ErrTransferNotFound     = errors.New("transfer not found")
	ErrInvalidSignature     = errors.New("webhook signature mismatch")
)
