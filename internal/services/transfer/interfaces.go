package transfer

import (
	"context"

	"dailychow/internal/gateway/monnify"
	"dailychow/internal/models"
	"dailychow/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

// Service reconciles outbound bank transfers: destination verification, the
// bank directory, sending and status polling. It never debits the wallet;
// the disbursement orchestrator owns that ordering.
type Service interface {
	// ListBanks returns the provider's bank directory, served from cache while
	// fresh. A stale cached copy is served when the provider is unreachable.
	ListBanks(ctx context.Context) ([]cache.Bank, error)

	// SetBankAccount verifies the destination with the provider and stores it
	// as the user's single active account, returning the resolved holder name.
	// Nothing is stored when verification fails.
	SetBankAccount(ctx context.Context, userID uint, accountNumber, bankCode string) (string, error)

	GetBankAccount(ctx context.Context, userID uint) (*models.BankAccount, error)

	// Send initiates a transfer of amount to the user's verified account. The
	// returned record may still be pending; poll GetStatus to settle it.
	Send(ctx context.Context, userID uint, amount decimal.Decimal, narration string) (*models.Transfer, error)

	// GetStatus returns the transfer, polling the provider first when the
	// local record is still pending.
	GetStatus(ctx context.Context, reference string) (*models.Transfer, error)

	// HandleWebhook authenticates and applies a provider status event. rawBody
	// must be the untouched request body the signature was computed over.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

// TransferProvider is the slice of the disbursement gateway the service needs.
type TransferProvider interface {
	ListBanks(ctx context.Context) ([]monnify.Bank, error)
	ValidateAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
	InitiateTransfer(ctx context.Context, params monnify.TransferParams) (*monnify.Disbursement, error)
	GetTransferStatus(ctx context.Context, reference string) (*monnify.Disbursement, error)
}
