package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the authoritative balance record for a user. The balance is only
// ever changed through the ledger repository's Credit and Debit operations,
// which append a matching Transaction entry in the same database transaction.
type Wallet struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"balance"`
	Currency  string          `gorm:"default:'NGN'" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
