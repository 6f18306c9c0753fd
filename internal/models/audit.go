package models

import "time"

// Audit event types recorded by the core.
const (
	AuditPaymentInitiated    = "PAYMENT_INITIATED"
	AuditPaymentSettled      = "PAYMENT_SETTLED"
	AuditPaymentFailed       = "PAYMENT_FAILED"
	AuditWebhookRejected     = "WEBHOOK_SIGNATURE_REJECTED"
	AuditBankAccountVerified = "BANK_ACCOUNT_VERIFIED"
	AuditTransferInitiated   = "TRANSFER_INITIATED"
	AuditTransferReview      = "TRANSFER_PENDING_MANUAL_REVIEW"
)

// Audit severities
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// AuditEvent is an operator-facing security and reconciliation trail entry.
// UserID is nullable because some events (rejected webhooks) cannot be
// attributed to a user.
type AuditEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	EventType string    `gorm:"not null" json:"event_type"`
	Severity  string    `gorm:"not null;default:'INFO'" json:"severity"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
