package disbursement

import "context"

// Outcome statuses for one user in a daily run.
const (
	OutcomeDisbursed     = "disbursed"
	OutcomeSkipped       = "skipped"
	OutcomeDebitFailed   = "debit_failed"
	OutcomePendingReview = "transfer_failed_pending_review"
)

// Skip reasons.
const (
	SkipNoVerifiedAccount   = "no_verified_account"
	SkipInsufficientBalance = "insufficient_balance"
	SkipAlreadyDisbursed    = "already_disbursed"
)

// UserOutcome is the result of one user's disbursement attempt.
type UserOutcome struct {
	UserID uint   `json:"user_id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Summary aggregates one daily run. Counts always add up to the number of
// budgeted users considered.
type Summary struct {
	Date          string        `json:"date"`
	Considered    int           `json:"considered"`
	Disbursed     int           `json:"disbursed"`
	Skipped       int           `json:"skipped"`
	DebitFailed   int           `json:"debit_failed"`
	PendingReview int           `json:"pending_review"`
	Outcomes      []UserOutcome `json:"outcomes"`
}

// Service runs the daily allowance disbursement across all budgeted users.
type Service interface {
	// Run debits each eligible user's daily allowance and sends it to their
	// verified bank account. Idempotent per calendar day: a rerun skips users
	// already disbursed today. One user's failure never aborts the batch.
	Run(ctx context.Context) (*Summary, error)
}
