// Package ledger implements the wallet balance and budget service on top of
// the transactional ledger repository, with a Redis read cache for balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"dailychow/internal/models"
	"dailychow/internal/repositories"
	"dailychow/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

// daysPerMonth is the fixed divisor for the daily allowance. Every month is
// treated as 30 days so the allowance does not change across months.
const daysPerMonth = 30

// Config bounds the accepted monthly budget.
type Config struct {
	MinMonthlyBudget decimal.Decimal
	MaxMonthlyBudget decimal.Decimal
}

type service struct {
	repo   repositories.LedgerRepository
	cache  *cache.CacheService
	config Config
}

// NewService creates a new ledger service.
func NewService(repo repositories.LedgerRepository, cacheService *cache.CacheService, config Config) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.MinMonthlyBudget.IsZero() {
		config.MinMonthlyBudget = decimal.NewFromInt(1000)
	}
	if config.MaxMonthlyBudget.IsZero() {
		config.MaxMonthlyBudget = decimal.NewFromInt(10_000_000)
	}
	return &service{
		repo:   repo,
		cache:  cacheService,
		config: config,
	}
}

func (s *service) SetBudget(ctx context.Context, userID uint, monthly decimal.Decimal) (decimal.Decimal, error) {
	if monthly.LessThan(s.config.MinMonthlyBudget) {
		return decimal.Zero, ErrBudgetTooLow
	}
	if monthly.GreaterThan(s.config.MaxMonthlyBudget) {
		return decimal.Zero, ErrBudgetTooHigh
	}

	if err := s.repo.EnsureUser(ctx, userID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to ensure user: %w", err)
	}

	// Round is half away from zero, which for positive money is half up.
	allowance := monthly.Div(decimal.NewFromInt(daysPerMonth)).Round(2)
	if err := s.repo.SetBudget(ctx, userID, monthly, allowance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to set budget: %w", err)
	}
	return allowance, nil
}

func (s *service) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	if s.cache != nil {
		if wallet, err := s.cache.GetWallet(ctx, userID); err == nil && wallet != nil {
			return wallet.Balance, nil
		}
	}

	wallet, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetWallet(ctx, wallet); err != nil {
			log.Printf("failed to cache wallet for user %d: %v", userID, err)
		}
	}
	return wallet.Balance, nil
}

func (s *service) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.repo.GetUser(ctx, userID)
}

func (s *service) Credit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	balance, err := s.repo.Credit(ctx, userID, amount, reference, category, description)
	if err != nil {
		return decimal.Zero, err
	}
	s.invalidate(ctx, userID)
	return balance, nil
}

func (s *service) Debit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	balance, err := s.repo.Debit(ctx, userID, amount, reference, category, description)
	if err != nil {
		// A duplicate reference still reports the live balance; drop the
		// cached copy so the next read is consistent either way.
		s.invalidate(ctx, userID)
		return balance, err
	}
	s.invalidate(ctx, userID)
	return balance, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetTransactionHistory(ctx, userID, limit, offset)
}

func (s *service) invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		log.Printf("failed to invalidate wallet cache for user %d: %v", userID, err)
	}
}
