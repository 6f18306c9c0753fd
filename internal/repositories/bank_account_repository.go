package repositories

import (
	"context"
	"errors"
	"fmt"

	"dailychow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BankAccountRepository holds the one active, verified disbursement account
// per user. Replace overwrites any previous record; unverified details are
// never stored as active.
type BankAccountRepository interface {
	Replace(ctx context.Context, account *models.BankAccount) error
	GetByUserID(ctx context.Context, userID uint) (*models.BankAccount, error)
}

type bankAccountRepository struct {
	db *gorm.DB
}

// NewBankAccountRepository creates the bank account store.
func NewBankAccountRepository(db *gorm.DB) BankAccountRepository {
	return &bankAccountRepository{db: db}
}

func (r *bankAccountRepository) Replace(ctx context.Context, account *models.BankAccount) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_number", "bank_code", "account_name", "is_verified", "updated_at",
		}),
	}).Create(account).Error
	if err != nil {
		return fmt.Errorf("failed to replace bank account: %w", err)
	}
	return nil
}

func (r *bankAccountRepository) GetByUserID(ctx context.Context, userID uint) (*models.BankAccount, error) {
	var account models.BankAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBankAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return &account, nil
}
