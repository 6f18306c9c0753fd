// Package payment implements top-up reconciliation over the Korapay checkout
// API. A charge is recorded pending before the provider is called, then
// settled exactly once by whichever of the webhook or manual verification
// arrives first.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dailychow/internal/gateway/korapay"
	"dailychow/internal/models"
	"dailychow/internal/repositories"
	"dailychow/internal/repositories/cache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds provider-facing settings for top-ups.
type Config struct {
	// WebhookSecret signs inbound provider events.
	WebhookSecret string
	// RedirectURL is where the checkout page sends the payer afterwards.
	RedirectURL string
	Currency    string
}

type service struct {
	payments repositories.PaymentRepository
	ledger   repositories.LedgerRepository
	audit    repositories.AuditRepository
	cache    *cache.CacheService
	provider ChargeProvider
	config   Config
}

// NewService creates a new payment service.
func NewService(
	payments repositories.PaymentRepository,
	ledger repositories.LedgerRepository,
	audit repositories.AuditRepository,
	cacheService *cache.CacheService,
	provider ChargeProvider,
	config Config,
) Service {
	if payments == nil {
		panic("payment repository is required")
	}
	if ledger == nil {
		panic("ledger repository is required")
	}
	if provider == nil {
		panic("charge provider is required")
	}
	if config.Currency == "" {
		config.Currency = "NGN"
	}
	return &service{
		payments: payments,
		ledger:   ledger,
		audit:    audit,
		cache:    cacheService,
		provider: provider,
		config:   config,
	}
}

func (s *service) InitiateTopUp(ctx context.Context, userID uint, amount decimal.Decimal, email, name string) (*TopUpIntent, error) {
	// Validation happens before any record or provider call, so a rejected
	// amount leaves no trace.
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if err := s.ledger.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	reference := fmt.Sprintf("topup_%d_%d_%s", userID, time.Now().Unix(), uuid.NewString()[:8])
	record := &models.Payment{
		UserID:    userID,
		Reference: reference,
		Amount:    amount,
		Currency:  s.config.Currency,
		Status:    models.StatusPending,
	}
	if err := s.payments.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	charge, err := s.provider.InitializeCharge(ctx, korapay.ChargeParams{
		Amount:      amount,
		Currency:    s.config.Currency,
		Reference:   reference,
		Narration:   "Wallet top-up",
		RedirectURL: s.config.RedirectURL,
		Customer:    korapay.Customer{Name: name, Email: email},
		Metadata:    map[string]string{"user_id": fmt.Sprintf("%d", userID)},
	})
	if err != nil {
		// The pending record stays: if the call actually reached the provider
		// the webhook or a later verify can still settle it.
		return nil, fmt.Errorf("failed to initialize charge: %w", err)
	}

	s.recordAudit(ctx, &userID, models.AuditPaymentInitiated, models.SeverityInfo,
		fmt.Sprintf("reference=%s amount=%s", reference, amount.StringFixed(2)))

	return &TopUpIntent{Reference: reference, CheckoutURL: charge.CheckoutURL}, nil
}

func (s *service) VerifyTopUp(ctx context.Context, reference string) (*models.Payment, error) {
	record, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if record.Terminal() {
		return record, nil
	}

	charge, err := s.provider.GetCharge(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to query charge: %w", err)
	}

	switch charge.Status {
	case korapay.ChargeSuccess:
		return s.settle(ctx, reference, charge.Reference)
	case korapay.ChargeFailed:
		if _, err := s.payments.MarkFailed(ctx, reference, charge.Reference); err != nil {
			return nil, err
		}
		s.recordAudit(ctx, &record.UserID, models.AuditPaymentFailed, models.SeverityWarning, "reference="+reference)
		return s.payments.GetByReference(ctx, reference)
	default:
		return record, nil
	}
}

// webhookEvent is the provider's event envelope. Amount stays raw here; the
// authoritative amount is the one recorded at initiation.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference        string `json:"reference"`
		PaymentReference string `json:"payment_reference"`
		Status           string `json:"status"`
	} `json:"data"`
}

func (s *service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !s.verifySignature(rawBody, signature) {
		s.recordAudit(ctx, nil, models.AuditWebhookRejected, models.SeverityCritical,
			"payment webhook signature mismatch")
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	reference := event.Data.Reference

	switch event.Event {
	case "charge.success":
		_, err := s.settle(ctx, reference, event.Data.PaymentReference)
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			// Unknown references are not an error worth retrying the webhook
			// for; the provider may be replaying an event for another system.
			log.Printf("webhook for unknown payment reference %s", reference)
			return nil
		}
		return err
	case "charge.failed":
		changed, err := s.payments.MarkFailed(ctx, reference, event.Data.PaymentReference)
		if err != nil && !errors.Is(err, repositories.ErrPaymentNotFound) {
			return err
		}
		if changed {
			s.recordAudit(ctx, nil, models.AuditPaymentFailed, models.SeverityWarning, "reference="+reference)
		}
		return nil
	default:
		log.Printf("ignoring webhook event %q", event.Event)
		return nil
	}
}

// settle performs the single settlement transition and reports the final
// record. A lost race is not an error: the money moved exactly once.
func (s *service) settle(ctx context.Context, reference, providerReference string) (*models.Payment, error) {
	record, settled, err := s.payments.Settle(ctx, reference, providerReference)
	if err != nil {
		return nil, err
	}
	if !settled {
		log.Printf("payment %s already settled, skipping", reference)
		return record, nil
	}

	if s.cache != nil {
		if err := s.cache.InvalidateWallet(ctx, record.UserID); err != nil {
			log.Printf("failed to invalidate wallet cache for user %d: %v", record.UserID, err)
		}
	}
	s.recordAudit(ctx, &record.UserID, models.AuditPaymentSettled, models.SeverityInfo,
		fmt.Sprintf("reference=%s amount=%s", reference, record.Amount.StringFixed(2)))
	return record, nil
}

// verifySignature checks the HMAC-SHA256 of the raw body in constant time.
func (s *service) verifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (s *service) recordAudit(ctx context.Context, userID *uint, eventType, severity, detail string) {
	if s.audit == nil {
		return
	}
	event := &models.AuditEvent{UserID: userID, EventType: eventType, Severity: severity, Detail: detail}
	if err := s.audit.Record(ctx, event); err != nil {
		log.Printf("failed to record audit event %s: %v", eventType, err)
	}
}
