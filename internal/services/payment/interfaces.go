package payment

import (
	"context"

	"dailychow/internal/gateway/korapay"
	"dailychow/internal/models"

	"github.com/shopspring/decimal"
)

// TopUpIntent is a freshly initiated charge: the reference to reconcile on
// and the hosted checkout URL the payer completes it at.
type TopUpIntent struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
}

// Service reconciles inbound top-up charges: initiation, webhook settlement
// and manual verification. Settlement is idempotent; the wallet is credited
// exactly once per reference no matter how many paths report success.
type Service interface {
	InitiateTopUp(ctx context.Context, userID uint, amount decimal.Decimal, email, name string) (*TopUpIntent, error)

	// VerifyTopUp reconciles a charge against the provider's current state.
	// Safe to call at any time, including after webhook settlement.
	VerifyTopUp(ctx context.Context, reference string) (*models.Payment, error)

	// HandleWebhook authenticates and applies a provider event. rawBody must
	// be the untouched request body the signature was computed over.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

// ChargeProvider is the slice of the payment gateway the service needs.
type ChargeProvider interface {
	InitializeCharge(ctx context.Context, params korapay.ChargeParams) (*korapay.Charge, error)
	GetCharge(ctx context.Context, reference string) (*korapay.Charge, error)
}
