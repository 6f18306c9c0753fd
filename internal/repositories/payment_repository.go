package repositories

import (
	"context"

	"dailychow/internal/models"
)

// PaymentRepository persists inbound charge records. Settle and MarkFailed
// implement the single-transition rule: the status leaves pending exactly
// once, decided by a conditional update, never a read-then-write pair.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)

	// Settle atomically transitions the payment to successful and credits the
	// wallet in one database transaction. It returns the payment and whether
	// this call performed the transition; a false return means another path
	// (webhook or manual verify) settled it first and nothing was mutated.
	Settle(ctx context.Context, reference, providerReference string) (*models.Payment, bool, error)

	// MarkFailed transitions a pending payment to failed. Returns false when
	// the record was already terminal.
	MarkFailed(ctx context.Context, reference, providerReference string) (bool, error)
}
