package korapay

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Customer identifies the payer on a checkout charge.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type chargeRequest struct {
	Amount      decimal.Decimal   `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	Narration   string            `json:"narration,omitempty"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	Customer    Customer          `json:"customer"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Charge is the provider's view of a checkout charge.
type Charge struct {
	Reference   string          `json:"reference"`
	CheckoutURL string          `json:"checkout_url"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Currency    string          `json:"currency"`
}

// Provider charge statuses.
const (
	ChargeSuccess = "success"
	ChargeFailed  = "failed"
	ChargePending = "pending"
)
