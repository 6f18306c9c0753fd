package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User holds the budgeting profile for a single account. The wallet balance
// lives on Wallet; budget figures live here because they are configuration,
// not money movement.
type User struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	MonthlyBudget  decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"monthly_budget"`
	DailyAllowance decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"daily_allowance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
