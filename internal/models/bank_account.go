package models

import "time"

// BankAccount is the single active disbursement destination for a user. A row
// is only written after the transfer provider has resolved the account name,
// so IsVerified is true for every stored record; the column exists so a
// future re-verification sweep can flag accounts without deleting them.
type BankAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	AccountNumber string    `gorm:"not null" json:"-"`
	BankCode      string    `gorm:"not null" json:"bank_code"`
	AccountName   string    `gorm:"not null" json:"account_name"`
	IsVerified    bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
