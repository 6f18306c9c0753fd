package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailychow/internal/models"

	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates the payment store over the given database.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) Settle(ctx context.Context, reference, providerReference string) (*models.Payment, bool, error) {
	var payment models.Payment
	var settled bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.Payment{}).
			Where("reference = ? AND status = ?", reference, models.StatusPending).
			Updates(map[string]interface{}{
				"status":             models.StatusSuccessful,
				"provider_reference": providerReference,
				"completed_at":       now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to settle payment: %w", result.Error)
		}

		if err := tx.Where("reference = ?", reference).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to reload payment: %w", err)
		}

		if result.RowsAffected == 0 {
			// Lost the settlement race; the record is already terminal.
			return nil
		}
		settled = true

		description := fmt.Sprintf("Wallet top-up via payment %s", reference)
		_, err := creditWalletTx(tx, payment.UserID, payment.Amount, reference, models.CategoryTopup, description)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return &payment, settled, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, reference, providerReference string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("reference = ? AND status = ?", reference, models.StatusPending).
		Updates(map[string]interface{}{
			"status":             models.StatusFailed,
			"provider_reference": providerReference,
			"completed_at":       now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
