package repositories

import (
	"context"

	"dailychow/internal/models"

	"github.com/shopspring/decimal"
)

// DisbursementCandidate is one row of the daily disbursement selection:
// every user with a positive allowance, together with the facts the
// orchestrator needs to decide whether to pay or skip them.
type DisbursementCandidate struct {
	UserID             uint
	DailyAllowance     decimal.Decimal
	Balance            decimal.Decimal
	HasVerifiedAccount bool
}

// LedgerRepository owns the wallet balance and the append-only transaction
// log. Credit and Debit are the only paths that change a balance; each runs
// the balance mutation and the log append in a single database transaction
// with the wallet row locked.
type LedgerRepository interface {
	// Credit increases the balance and appends a log entry. When reference is
	// non-empty and an entry with that reference already exists the call is a
	// no-op returning the current balance.
	Credit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error)

	// Debit decreases the balance if it covers amount, failing atomically
	// with ErrInsufficientBalance otherwise. A non-empty reference that was
	// already used returns ErrDuplicateReference with the current balance, so
	// callers can tell "debited now" from "already debited".
	Debit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error)

	// AppendInfo records a zero-amount informational entry (for example a
	// transfer attempt) without touching the balance.
	AppendInfo(ctx context.Context, userID uint, category, description string) error

	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	EnsureUser(ctx context.Context, userID uint) error

	// SetBudget persists the monthly budget and the derived daily allowance.
	SetBudget(ctx context.Context, userID uint, monthly, allowance decimal.Decimal) error

	GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)

	// ListBudgeted returns every user with daily_allowance > 0, joined with
	// their balance and whether a verified bank account exists. Eligibility
	// filtering happens in the orchestrator so skips carry a reason.
	ListBudgeted(ctx context.Context) ([]DisbursementCandidate, error)
}
