package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment and transfer statuses. Successful and failed are terminal: a record
// transitions out of pending exactly once.
const (
	StatusPending    = "pending"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
)

// Payment is an inbound charge awaiting settlement. Reference is generated
// client-side at initiation and keys both the provider call and the eventual
// ledger credit.
type Payment struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	UserID            uint            `gorm:"index;not null" json:"user_id"`
	Reference         string          `gorm:"uniqueIndex;not null" json:"reference"`
	Amount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency          string          `gorm:"default:'NGN'" json:"currency"`
	Status            string          `gorm:"not null;default:'pending'" json:"status"`
	ProviderReference string          `json:"provider_reference,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

// Terminal reports whether the payment has reached a final status.
func (p *Payment) Terminal() bool {
	return p.Status == StatusSuccessful || p.Status == StatusFailed
}
