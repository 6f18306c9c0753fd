package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction categories
const (
	CategoryTopup     = "topup"
	CategoryTransfer  = "transfer"
	CategoryAllowance = "allowance"
	CategoryInfo      = "info"
)

// Transaction is an append-only ledger entry. Amount is signed: positive
// entries are credits, negative entries are debits. A wallet's balance always
// equals the sum of its entries. Reference, when set, is unique and is the
// idempotency key for the operation that produced the entry.
type Transaction struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Description string          `json:"description"`
	Category    string          `gorm:"not null;default:'info'" json:"category"`
	Reference   *string         `gorm:"uniqueIndex" json:"reference,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Ref returns the entry's reference or the empty string.
func (t *Transaction) Ref() string {
	if t.Reference == nil {
		return ""
	}
	return *t.Reference
}
