package ledger

import (
	"context"

	"dailychow/internal/models"

	"github.com/shopspring/decimal"
)

// Service owns wallet balances and the budget configuration. All money
// movement funnels through Credit and Debit so every balance change leaves a
// ledger entry.
type Service interface {
	// SetBudget validates and stores the monthly budget, returning the derived
	// daily allowance (monthly / 30, rounded half up to two places).
	SetBudget(ctx context.Context, userID uint, monthly decimal.Decimal) (decimal.Decimal, error)

	GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error)
	GetUser(ctx context.Context, userID uint) (*models.User, error)

	// Credit adds funds. A reference already seen makes the call a no-op.
	Credit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error)

	// Debit removes funds, failing with the repository's insufficient-balance
	// or duplicate-reference errors without partial effect.
	Debit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error)

	GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)
}
