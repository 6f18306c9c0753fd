package repositories

import (
	"context"

	"dailychow/internal/models"
)

// TransferRepository persists outbound disbursement records. Status updates
// follow the same single-transition rule as payments. Transfers never touch
// the wallet balance here; the debit happens upstream in the orchestrator.
type TransferRepository interface {
	Create(ctx context.Context, transfer *models.Transfer) error
	GetByReference(ctx context.Context, reference string) (*models.Transfer, error)

	// MarkTerminal transitions a pending transfer to the given terminal
	// status. Returns false when the record was already terminal.
	MarkTerminal(ctx context.Context, reference, status, providerReference string) (bool, error)
}
