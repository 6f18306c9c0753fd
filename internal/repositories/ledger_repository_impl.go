package repositories

import (
	"context"
	"errors"
	"fmt"

	"dailychow/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates the ledger store over the given database.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// lockWallet fetches the wallet row under FOR UPDATE so concurrent mutations
// for the same user serialize at the database.
func lockWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

// referenceUsed reports whether a ledger entry with the reference exists.
// Must run inside the same transaction as the mutation it guards.
func referenceUsed(tx *gorm.DB, reference string) (bool, error) {
	var count int64
	err := tx.Model(&models.Transaction{}).
		Where("reference = ?", reference).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}
	return count > 0, nil
}

// creditWalletTx applies an idempotent credit inside an open transaction. It
// is shared with the payment repository's settlement path so the settle
// conditional update and the credit commit together.
func creditWalletTx(tx *gorm.DB, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	wallet, err := lockWallet(tx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	if reference != "" {
		used, err := referenceUsed(tx, reference)
		if err != nil {
			return decimal.Zero, err
		}
		if used {
			return wallet.Balance, nil
		}
	}

	wallet.Balance = wallet.Balance.Add(amount)
	if err := tx.Save(wallet).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}

	entry := &models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Category:    category,
	}
	if reference != "" {
		entry.Reference = &reference
	}
	if err := tx.Create(entry).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return wallet.Balance, nil
}

func (r *ledgerRepository) Credit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = creditWalletTx(tx, userID, amount, reference, category, description)
		return err
	})
	return balance, err
}

func (r *ledgerRepository) Debit(ctx context.Context, userID uint, amount decimal.Decimal, reference, category, description string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	var duplicate bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}

		if reference != "" {
			used, err := referenceUsed(tx, reference)
			if err != nil {
				return err
			}
			if used {
				balance = wallet.Balance
				duplicate = true
				return nil
			}
		}

		if wallet.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		wallet.Balance = wallet.Balance.Sub(amount)
		if err := tx.Save(wallet).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		entry := &models.Transaction{
			UserID:      userID,
			Amount:      amount.Neg(),
			Description: description,
			Category:    category,
		}
		if reference != "" {
			entry.Reference = &reference
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		balance = wallet.Balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if duplicate {
		return balance, ErrDuplicateReference
	}
	return balance, nil
}

func (r *ledgerRepository) AppendInfo(ctx context.Context, userID uint, category, description string) error {
	entry := &models.Transaction{
		UserID:      userID,
		Amount:      decimal.Zero,
		Description: description,
		Category:    category,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append info entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *ledgerRepository) EnsureUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &models.User{ID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		wallet := &models.Wallet{UserID: userID, Currency: "NGN"}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(wallet).Error; err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		return nil
	})
}

func (r *ledgerRepository) SetBudget(ctx context.Context, userID uint, monthly, allowance decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"monthly_budget":  monthly,
			"daily_allowance": allowance,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set budget: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *ledgerRepository) GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListBudgeted(ctx context.Context) ([]DisbursementCandidate, error) {
	var candidates []DisbursementCandidate
	err := r.db.WithContext(ctx).
		Table("users").
		Select(`users.id AS user_id,
			users.daily_allowance,
			COALESCE(wallets.balance, 0) AS balance,
			COALESCE(bank_accounts.is_verified, false) AS has_verified_account`).
		Joins("LEFT JOIN wallets ON wallets.user_id = users.id").
		Joins("LEFT JOIN bank_accounts ON bank_accounts.user_id = users.id").
		Where("users.daily_allowance > 0").
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list disbursement candidates: %w", err)
	}
	return candidates, nil
}
