package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is an outbound disbursement to a bank account. It follows the same
// single-transition rule as Payment. DestinationAccount holds the full account
// number; use MaskedDestination anywhere the value is logged.
type Transfer struct {
	ID                 uint            `gorm:"primarykey" json:"id"`
	UserID             uint            `gorm:"index;not null" json:"user_id"`
	Reference          string          `gorm:"uniqueIndex;not null" json:"reference"`
	Amount             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	DestinationAccount string          `gorm:"not null" json:"-"`
	BankCode           string          `gorm:"not null" json:"bank_code"`
	Narration          string          `json:"narration"`
	Status             string          `gorm:"not null;default:'pending'" json:"status"`
	ProviderReference  string          `json:"provider_reference,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

// Terminal reports whether the transfer has reached a final status.
func (t *Transfer) Terminal() bool {
	return t.Status == StatusSuccessful || t.Status == StatusFailed
}

// MaskedDestination returns the destination account with all but the last
// four digits hidden.
func (t *Transfer) MaskedDestination() string {
	return MaskAccountNumber(t.DestinationAccount)
}

// MaskAccountNumber hides all but the last four digits of an account number.
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return "******" + accountNumber[len(accountNumber)-4:]
}
