package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailychow/internal/models"

	"gorm.io/gorm"
)

type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates the transfer store over the given database.
func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	if err := r.db.WithContext(ctx).Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *transferRepository) GetByReference(ctx context.Context, reference string) (*models.Transfer, error) {
	var transfer models.Transfer
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&transfer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &transfer, nil
}

func (r *transferRepository) MarkTerminal(ctx context.Context, reference, status, providerReference string) (bool, error) {
	if status != models.StatusSuccessful && status != models.StatusFailed {
		return false, fmt.Errorf("non-terminal status %q", status)
	}
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Transfer{}).
		Where("reference = ? AND status = ?", reference, models.StatusPending).
		Updates(map[string]interface{}{
			"status":             status,
			"provider_reference": providerReference,
			"completed_at":       now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark transfer %s: %w", status, result.Error)
	}
	return result.RowsAffected > 0, nil
}
