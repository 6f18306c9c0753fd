package ledger

import (
	"context"
	"sync"
	"testing"

	"dailychow/internal/models"
	"dailychow/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// fakeLedgerRepo is an in-memory LedgerRepository with the same atomicity
// guarantees as the real one: balance checks, reference dedup and the log
// append happen under one lock.
type fakeLedgerRepo struct {
	mu       sync.Mutex
	users    map[uint]*models.User
	balances map[uint]decimal.Decimal
	refs     map[string]bool
	entries  []models.Transaction
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		users:    make(map[uint]*models.User),
		balances: make(map[uint]decimal.Decimal),
		refs:     make(map[string]bool),
	}
}

func (f *fakeLedgerRepo) Credit(_ context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reference != "" && f.refs[reference] {
		return f.balances[userID], nil
	}
	f.balances[userID] = f.balances[userID].Add(amount)
	f.record(userID, amount, reference, category, description)
	return f.balances[userID], nil
}

func (f *fakeLedgerRepo) Debit(_ context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reference != "" && f.refs[reference] {
		return f.balances[userID], repositories.ErrDuplicateReference
	}
	if f.balances[userID].LessThan(amount) {
		return f.balances[userID], repositories.ErrInsufficientBalance
	}
	f.balances[userID] = f.balances[userID].Sub(amount)
	f.record(userID, amount.Neg(), reference, category, description)
	return f.balances[userID], nil
}

func (f *fakeLedgerRepo) record(userID uint, amount decimal.Decimal, reference, category, description string) {
	entry := models.Transaction{UserID: userID, Amount: amount, Category: category, Description: description}
	if reference != "" {
		f.refs[reference] = true
		entry.Reference = &reference
	}
	f.entries = append(f.entries, entry)
}

func (f *fakeLedgerRepo) AppendInfo(_ context.Context, userID uint, category, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(userID, decimal.Zero, "", category, description)
	return nil
}

func (f *fakeLedgerRepo) GetWallet(_ context.Context, userID uint) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return &models.Wallet{UserID: userID, Balance: balance, Currency: "NGN"}, nil
}

func (f *fakeLedgerRepo) GetUser(_ context.Context, userID uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeLedgerRepo) EnsureUser(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		f.users[userID] = &models.User{ID: userID}
		f.balances[userID] = decimal.Zero
	}
	return nil
}

func (f *fakeLedgerRepo) SetBudget(_ context.Context, userID uint, monthly, allowance decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.users[userID]
	user.MonthlyBudget = monthly
	user.DailyAllowance = allowance
	return nil
}

func (f *fakeLedgerRepo) GetTransactionHistory(_ context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListBudgeted(_ context.Context) ([]repositories.DisbursementCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repositories.DisbursementCandidate
	for id, user := range f.users {
		if user.DailyAllowance.IsPositive() {
			out = append(out, repositories.DisbursementCandidate{
				UserID:         id,
				DailyAllowance: user.DailyAllowance,
				Balance:        f.balances[id],
			})
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) balance(userID uint) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func newTestService(repo repositories.LedgerRepository) Service {
	return NewService(repo, nil, Config{
		MinMonthlyBudget: decimal.NewFromInt(1000),
		MaxMonthlyBudget: decimal.NewFromInt(10_000_000),
	})
}

func TestSetBudget(t *testing.T) {
	tests := []struct {
		name          string
		monthly       string
		wantAllowance string
		wantErr       error
	}{
		{name: "even division", monthly: "30000", wantAllowance: "1000.00"},
		{name: "rounds half up", monthly: "10000", wantAllowance: "333.33"},
		{name: "small budget", monthly: "1000", wantAllowance: "33.33"},
		{name: "below minimum", monthly: "999.99", wantErr: ErrBudgetTooLow},
		{name: "above maximum", monthly: "10000001", wantErr: ErrBudgetTooHigh},
		{name: "negative", monthly: "-5000", wantErr: ErrBudgetTooLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeLedgerRepo()
			service := newTestService(repo)

			monthly, err := decimal.NewFromString(tt.monthly)
			assert.NoError(t, err)

			allowance, err := service.SetBudget(context.Background(), 1, monthly)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantAllowance, allowance.StringFixed(2))

			user, err := repo.GetUser(context.Background(), 1)
			assert.NoError(t, err)
			assert.True(t, user.DailyAllowance.Equal(allowance))
		})
	}
}

func TestSetBudgetOverwritesPrevious(t *testing.T) {
	repo := newFakeLedgerRepo()
	service := newTestService(repo)

	_, err := service.SetBudget(context.Background(), 1, decimal.NewFromInt(30000))
	assert.NoError(t, err)
	allowance, err := service.SetBudget(context.Background(), 1, decimal.NewFromInt(60000))
	assert.NoError(t, err)
	assert.Equal(t, "2000.00", allowance.StringFixed(2))
}

func TestCreditIsIdempotentPerReference(t *testing.T) {
	repo := newFakeLedgerRepo()
	service := newTestService(repo)
	assert.NoError(t, repo.EnsureUser(context.Background(), 1))

	amount := decimal.NewFromInt(5000)
	balance, err := service.Credit(context.Background(), 1, amount, "topup_1_abc", models.CategoryTopup, "top-up")
	assert.NoError(t, err)
	assert.Equal(t, "5000.00", balance.StringFixed(2))

	balance, err = service.Credit(context.Background(), 1, amount, "topup_1_abc", models.CategoryTopup, "top-up")
	assert.NoError(t, err)
	assert.Equal(t, "5000.00", balance.StringFixed(2), "repeated reference must not credit again")
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	service := newTestService(newFakeLedgerRepo())

	_, err := service.Credit(context.Background(), 1, decimal.Zero, "r", models.CategoryTopup, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = service.Credit(context.Background(), 1, decimal.NewFromInt(-10), "r", models.CategoryTopup, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDebitFailsWithoutBalance(t *testing.T) {
	repo := newFakeLedgerRepo()
	service := newTestService(repo)
	assert.NoError(t, repo.EnsureUser(context.Background(), 1))

	_, err := service.Credit(context.Background(), 1, decimal.NewFromInt(100), "c1", models.CategoryTopup, "")
	assert.NoError(t, err)

	_, err = service.Debit(context.Background(), 1, decimal.NewFromInt(150), "d1", models.CategoryAllowance, "")
	assert.ErrorIs(t, err, repositories.ErrInsufficientBalance)
	assert.Equal(t, "100.00", repo.balance(1).StringFixed(2), "failed debit must not move money")
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	repo := newFakeLedgerRepo()
	service := newTestService(repo)
	assert.NoError(t, repo.EnsureUser(context.Background(), 1))
	_, err := service.Credit(context.Background(), 1, decimal.NewFromInt(100), "seed", models.CategoryTopup, "")
	assert.NoError(t, err)

	const attempts = 10
	amount := decimal.NewFromInt(30)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := string(rune('a'+i)) + "_debit"
			if _, err := service.Debit(context.Background(), 1, amount, ref, models.CategoryAllowance, ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded, "only three debits of 30 fit in 100")
	assert.Equal(t, "10.00", repo.balance(1).StringFixed(2))
}

func TestBalanceEqualsSumOfEntries(t *testing.T) {
	repo := newFakeLedgerRepo()
	service := newTestService(repo)
	assert.NoError(t, repo.EnsureUser(context.Background(), 1))

	_, err := service.Credit(context.Background(), 1, decimal.NewFromInt(5000), "c1", models.CategoryTopup, "")
	assert.NoError(t, err)
	_, err = service.Debit(context.Background(), 1, decimal.NewFromInt(1200), "d1", models.CategoryAllowance, "")
	assert.NoError(t, err)
	assert.NoError(t, repo.AppendInfo(context.Background(), 1, models.CategoryTransfer, "transfer attempt"))

	entries, err := service.GetTransactionHistory(context.Background(), 1, 50, 0)
	assert.NoError(t, err)

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	assert.True(t, sum.Equal(repo.balance(1)), "ledger entries must sum to the balance")
}
