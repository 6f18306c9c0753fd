package disbursement

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"dailychow/internal/models"
	"dailychow/internal/repositories"
	"dailychow/internal/repositories/cache"
	"dailychow/internal/services/ledger"
	"dailychow/internal/services/transfer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// fakeLedgerRepo is an in-memory ledger with atomic debit semantics and the
// candidate join the orchestrator selects from.
type fakeLedgerRepo struct {
	mu         sync.Mutex
	balances   map[uint]decimal.Decimal
	allowances map[uint]decimal.Decimal
	verified   map[uint]bool
	refs       map[string]bool
	infos      []string
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		balances:   make(map[uint]decimal.Decimal),
		allowances: make(map[uint]decimal.Decimal),
		verified:   make(map[uint]bool),
		refs:       make(map[string]bool),
	}
}

func (f *fakeLedgerRepo) addUser(userID uint, balance, allowance decimal.Decimal, hasAccount bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = balance
	f.allowances[userID] = allowance
	f.verified[userID] = hasAccount
}

func (f *fakeLedgerRepo) Credit(_ context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reference != "" && f.refs[reference] {
		return f.balances[userID], nil
	}
	if reference != "" {
		f.refs[reference] = true
	}
	f.balances[userID] = f.balances[userID].Add(amount)
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
	if reference != "" {
		f.refs[reference] = true
	}
	f.balances[userID] = f.balances[userID].Sub(amount)
	return f.balances[userID], nil
}

func (f *fakeLedgerRepo) AppendInfo(_ context.Context, userID uint, category, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = append(f.infos, description)
	return nil
}

func (f *fakeLedgerRepo) GetWallet(_ context.Context, userID uint) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Wallet{UserID: userID, Balance: f.balances[userID]}, nil
}

func (f *fakeLedgerRepo) GetUser(context.Context, uint) (*models.User, error) { panic("not used") }

func (f *fakeLedgerRepo) EnsureUser(context.Context, uint) error { return nil }

func (f *fakeLedgerRepo) SetBudget(context.Context, uint, decimal.Decimal, decimal.Decimal) error {
	panic("not used")
}

func (f *fakeLedgerRepo) GetTransactionHistory(context.Context, uint, int, int) ([]models.Transaction, error) {
	panic("not used")
}

func (f *fakeLedgerRepo) ListBudgeted(context.Context) ([]repositories.DisbursementCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repositories.DisbursementCandidate
	for id, allowance := range f.allowances {
		if allowance.IsPositive() {
			out = append(out, repositories.DisbursementCandidate{
				UserID:             id,
				DailyAllowance:     allowance,
				Balance:            f.balances[id],
				HasVerifiedAccount: f.verified[id],
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

// fakeTransferService succeeds by default and fails for the users listed in
// failFor.
type fakeTransferService struct {
	mu      sync.Mutex
	sends   int
	failFor map[uint]bool
}

func (f *fakeTransferService) Send(_ context.Context, userID uint, amount decimal.Decimal, narration string) (*models.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.failFor[userID] {
		return &models.Transfer{UserID: userID, Status: models.StatusFailed}, fmt.Errorf("provider rejected transfer")
	}
	return &models.Transfer{
		UserID:             userID,
		Reference:          fmt.Sprintf("transfer_%d_test", userID),
		Amount:             amount,
		DestinationAccount: "0123456789",
		Status:             models.StatusSuccessful,
	}, nil
}

func (f *fakeTransferService) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func (f *fakeTransferService) ListBanks(context.Context) ([]cache.Bank, error) { panic("not used") }

func (f *fakeTransferService) SetBankAccount(context.Context, uint, string, string) (string, error) {
	panic("not used")
}

func (f *fakeTransferService) GetBankAccount(context.Context, uint) (*models.BankAccount, error) {
	panic("not used")
}

func (f *fakeTransferService) GetStatus(context.Context, string) (*models.Transfer, error) {
	panic("not used")
}

func (f *fakeTransferService) HandleWebhook(context.Context, []byte, string) error {
	panic("not used")
}

type fakeAuditRepo struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (f *fakeAuditRepo) Record(_ context.Context, event *models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAuditRepo) Recent(context.Context, int) ([]models.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, nil
}

func newTestService(repo *fakeLedgerRepo, transfers transfer.Service, audit repositories.AuditRepository) Service {
	ledgerService := ledger.NewService(repo, nil, ledger.Config{
		MinMonthlyBudget: decimal.NewFromInt(1000),
		MaxMonthlyBudget: decimal.NewFromInt(10_000_000),
	})
	return NewService(repo, ledgerService, transfers, audit, Config{Workers: 3})
}

func outcomeFor(summary *Summary, userID uint) UserOutcome {
	for _, o := range summary.Outcomes {
		if o.UserID == userID {
			return o
		}
	}
	return UserOutcome{}
}

func TestRunDisbursesAllowance(t *testing.T) {
	repo := newFakeLedgerRepo()
	repo.addUser(1, decimal.NewFromInt(5000), decimal.NewFromInt(1000), true)
	transfers := &fakeTransferService{}
	service := newTestService(repo, transfers, &fakeAuditRepo{})

	summary, err := service.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Considered)
	assert.Equal(t, 1, summary.Disbursed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, "4000.00", repo.balance(1).StringFixed(2))
	assert.Equal(t, 1, transfers.sendCount())
}

func TestRunIsIdempotentPerDay(t *testing.T) {
	repo := newFakeLedgerRepo()
	repo.addUser(1, decimal.NewFromInt(5000), decimal.NewFromInt(1000), true)
	transfers := &fakeTransferService{}
	service := newTestService(repo, transfers, &fakeAuditRepo{})

	_, err := service.Run(context.Background())
	assert.NoError(t, err)
	summary, err := service.Run(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 0, summary.Disbursed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, SkipAlreadyDisbursed, outcomeFor(summary, 1).Reason)
	assert.Equal(t, "4000.00", repo.balance(1).StringFixed(2), "rerun must not debit again")
	assert.Equal(t, 1, transfers.sendCount(), "rerun must not send again")
}

func TestRunSkipsUserWithoutVerifiedAccount(t *testing.T) {
	repo := newFakeLedgerRepo()
	repo.addUser(1, decimal.NewFromInt(5000), decimal.NewFromInt(1000), false)
	transfers := &fakeTransferService{}
	service := newTestService(repo, transfers, &fakeAuditRepo{})

	summary, err := service.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, SkipNoVerifiedAccount, outcomeFor(summary, 1).Reason)
	assert.Equal(t, "5000.00", repo.balance(1).StringFixed(2), "skipped users are not debited")
	assert.Equal(t, 0, transfers.sendCount())
}

func TestRunSkipsUserWithInsufficientBalance(t *testing.T) {
	repo := newFakeLedgerRepo()
	repo.addUser(1, decimal.NewFromInt(500), decimal.NewFromInt(1000), true)
	transfers := &fakeTransferService{}
	service := newTestService(repo, transfers, &fakeAuditRepo{})

	summary, err := service.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, SkipInsufficientBalance, outcomeFor(summary, 1).Reason)
	assert.Equal(t, "500.00", repo.balance(1).StringFixed(2))
}

func TestRunFlagsFailedTransferForReviewWithoutReversal(t *testing.T) {
	repo := newFakeLedgerRepo()
	repo.addUser(1, decimal.NewFromInt(5000), decimal.NewFromInt(1000), true)
	transfers := &fakeTransferService{failFor: map[uint]bool{1: true}}
	audit := &fakeAuditRepo{}
	service := newTestService(repo, transfers, audit)

	summary, err := service.Run(context.Background())
	assert.NoError(t, err, "one user's failure never fails the run")
	assert.Equal(t, 1, summary.PendingReview)
	assert.Equal(t, OutcomePendingReview, outcomeFor(summary, 1).Status)

	// The debit stands for manual reconciliation.
	assert.Equal(t, "4000.00", repo.balance(1).StringFixed(2))

	events, _ := audit.Recent(context.Background(), 10)
	assert.Len(t, events, 1)
	assert.Equal(t, models.AuditTransferReview, events[0].EventType)
	assert.Equal(t, models.SeverityCritical, events[0].Severity)
}

func TestRunProcessesMixedBatch(t *testing.T) {
	repo := newFakeLedgerRepo()
	repo.addUser(1, decimal.NewFromInt(5000), decimal.NewFromInt(1000), true)  // disbursed
	repo.addUser(2, decimal.NewFromInt(100), decimal.NewFromInt(1000), true)   // insufficient
	repo.addUser(3, decimal.NewFromInt(5000), decimal.NewFromInt(1000), false) // no account
	repo.addUser(4, decimal.NewFromInt(5000), decimal.NewFromInt(1000), true)  // transfer fails
	transfers := &fakeTransferService{failFor: map[uint]bool{4: true}}
	service := newTestService(repo, transfers, &fakeAuditRepo{})

	summary, err := service.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 4, summary.Considered)
	assert.Equal(t, 1, summary.Disbursed)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.PendingReview)
	assert.Len(t, summary.Outcomes, 4)

	assert.Equal(t, "4000.00", repo.balance(1).StringFixed(2))
	assert.Equal(t, "100.00", repo.balance(2).StringFixed(2))
	assert.Equal(t, "5000.00", repo.balance(3).StringFixed(2))
	assert.Equal(t, "4000.00", repo.balance(4).StringFixed(2))
}
