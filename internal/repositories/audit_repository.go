package repositories

import (
	"context"
	"fmt"

	"dailychow/internal/models"

	"gorm.io/gorm"
)

// AuditRepository appends operator-facing security and reconciliation events.
type AuditRepository interface {
	Record(ctx context.Context, event *models.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates the audit event store.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, event *models.AuditEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

func (r *auditRepository) Recent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}
