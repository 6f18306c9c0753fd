// Package transfer implements outbound disbursement reconciliation over the
// Monnify API. Destinations are verified with the provider before they are
// stored, the bank directory is cached with a stale-serve grace window, and
// transfer status follows the single-transition rule.
package transfer

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dailychow/internal/gateway"
	"dailychow/internal/gateway/monnify"
	"dailychow/internal/models"
	"dailychow/internal/repositories"
	"dailychow/internal/repositories/cache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service struct {
	transfers     repositories.TransferRepository
	accounts      repositories.BankAccountRepository
	audit         repositories.AuditRepository
	cache         *cache.CacheService
	provider      TransferProvider
	webhookSecret string
}

// NewService creates a new transfer service. webhookSecret signs inbound
// provider status events.
func NewService(
	transfers repositories.TransferRepository,
	accounts repositories.BankAccountRepository,
	audit repositories.AuditRepository,
	cacheService *cache.CacheService,
	provider TransferProvider,
	webhookSecret string,
) Service {
	if transfers == nil {
		panic("transfer repository is required")
	}
	if accounts == nil {
		panic("bank account repository is required")
	}
	if provider == nil {
		panic("transfer provider is required")
	}
	return &service{
		transfers:     transfers,
		accounts:      accounts,
		audit:         audit,
		cache:         cacheService,
		provider:      provider,
		webhookSecret: webhookSecret,
	}
}

func (s *service) ListBanks(ctx context.Context) ([]cache.Bank, error) {
	var stale []cache.Bank
	if s.cache != nil {
		banks, fresh, err := s.cache.GetBankList(ctx)
		if err != nil {
			log.Printf("failed to read bank list cache: %v", err)
		} else if banks != nil {
			if fresh {
				return banks, nil
			}
			stale = banks
		}
	}

	providerBanks, err := s.provider.ListBanks(ctx)
	if err != nil {
		// Outage fallback: a stale directory beats no directory, bank codes
		// change rarely.
		if stale != nil {
			log.Printf("serving stale bank list, provider unavailable: %v", err)
			return stale, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBankListUnavailable, err)
	}

	banks := make([]cache.Bank, 0, len(providerBanks))
	for _, b := range providerBanks {
		banks = append(banks, cache.Bank{Name: b.Name, Code: b.Code})
	}
	if s.cache != nil {
		if err := s.cache.SetBankList(ctx, banks); err != nil {
			log.Printf("failed to cache bank list: %v", err)
		}
	}
	return banks, nil
}

func (s *service) SetBankAccount(ctx context.Context, userID uint, accountNumber, bankCode string) (string, error) {
	// Format check happens before any network call.
	if !validAccountNumber(accountNumber) {
		return "", ErrInvalidAccountNumber
	}

	name, err := s.resolveAccountName(ctx, accountNumber, bankCode)
	if err != nil {
		return "", err
	}

	account := &models.BankAccount{
		UserID:        userID,
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		AccountName:   name,
		IsVerified:    true,
	}
	if err := s.accounts.Replace(ctx, account); err != nil {
		return "", fmt.Errorf("failed to store bank account: %w", err)
	}

	s.recordAudit(ctx, &userID, models.AuditBankAccountVerified, models.SeverityInfo,
		fmt.Sprintf("account=%s bank=%s", models.MaskAccountNumber(accountNumber), bankCode))
	return name, nil
}

func (s *service) resolveAccountName(ctx context.Context, accountNumber, bankCode string) (string, error) {
	if s.cache != nil {
		if name, err := s.cache.GetAccountName(ctx, accountNumber, bankCode); err == nil && name != "" {
			return name, nil
		}
	}

	name, err := s.provider.ValidateAccount(ctx, accountNumber, bankCode)
	if err != nil {
		var gerr *gateway.Error
		if errors.As(err, &gerr) && !gerr.Retryable && !gerr.Unknown {
			return "", fmt.Errorf("%w: %s", ErrAccountVerification, gerr.Message)
		}
		return "", fmt.Errorf("failed to verify account: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetAccountName(ctx, accountNumber, bankCode, name); err != nil {
			log.Printf("failed to cache account name: %v", err)
		}
	}
	return name, nil
}

func (s *service) GetBankAccount(ctx context.Context, userID uint) (*models.BankAccount, error) {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrBankAccountNotFound) {
			return nil, ErrNoBankAccount
		}
		return nil, err
	}
	return account, nil
}

func (s *service) Send(ctx context.Context, userID uint, amount decimal.Decimal, narration string) (*models.Transfer, error) {
	account, err := s.GetBankAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("transfer_%d_%d_%s", userID, time.Now().Unix(), uuid.NewString()[:8])
	record := &models.Transfer{
		UserID:             userID,
		Reference:          reference,
		Amount:             amount,
		DestinationAccount: account.AccountNumber,
		BankCode:           account.BankCode,
		Narration:          narration,
		Status:             models.StatusPending,
	}
	if err := s.transfers.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}

	s.recordAudit(ctx, &userID, models.AuditTransferInitiated, models.SeverityInfo,
		fmt.Sprintf("reference=%s amount=%s destination=%s", reference, amount.StringFixed(2), record.MaskedDestination()))

	disbursement, err := s.provider.InitiateTransfer(ctx, monnify.TransferParams{
		Amount:        amount,
		Reference:     reference,
		Narration:     narration,
		BankCode:      account.BankCode,
		AccountNumber: account.AccountNumber,
	})
	if err != nil {
		if gateway.OutcomeUnknown(err) {
			// The provider may have accepted the transfer; leave the record
			// pending for the status poll to settle.
			log.Printf("transfer %s outcome unknown: %v", reference, err)
			return record, nil
		}
		if _, markErr := s.transfers.MarkTerminal(ctx, reference, models.StatusFailed, ""); markErr != nil {
			log.Printf("failed to mark transfer %s failed: %v", reference, markErr)
		}
		record.Status = models.StatusFailed
		return record, fmt.Errorf("failed to initiate transfer: %w", err)
	}

	return s.applyProviderStatus(ctx, record, disbursement)
}

func (s *service) GetStatus(ctx context.Context, reference string) (*models.Transfer, error) {
	record, err := s.transfers.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransferNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	if record.Terminal() {
		return record, nil
	}

	disbursement, err := s.provider.GetTransferStatus(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer status: %w", err)
	}
	return s.applyProviderStatus(ctx, record, disbursement)
}

// applyProviderStatus folds the provider's view into the local record,
// transitioning it at most once.
func (s *service) applyProviderStatus(ctx context.Context, record *models.Transfer, disbursement *monnify.Disbursement) (*models.Transfer, error) {
	if !monnify.Terminal(disbursement.Status) {
		record.ProviderReference = disbursement.ProviderRef
		return record, nil
	}

	status := models.StatusFailed
	if disbursement.Status == monnify.StatusSuccess {
		status = models.StatusSuccessful
	}
	if _, err := s.transfers.MarkTerminal(ctx, record.Reference, status, disbursement.ProviderRef); err != nil {
		return nil, err
	}
	return s.transfers.GetByReference(ctx, record.Reference)
}

// webhookEvent is the provider's disbursement status envelope.
type webhookEvent struct {
	EventType string `json:"eventType"`
	EventData struct {
		Reference            string `json:"reference"`
		TransactionReference string `json:"transactionReference"`
		Status               string `json:"status"`
	} `json:"eventData"`
}

func (s *service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !s.verifySignature(rawBody, signature) {
		s.recordAudit(ctx, nil, models.AuditWebhookRejected, models.SeverityCritical,
			"transfer webhook signature mismatch")
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if !monnify.Terminal(event.EventData.Status) {
		return nil
	}

	status := models.StatusFailed
	if event.EventData.Status == monnify.StatusSuccess {
		status = models.StatusSuccessful
	}
	changed, err := s.transfers.MarkTerminal(ctx, event.EventData.Reference, status, event.EventData.TransactionReference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransferNotFound) {
			// The provider may be replaying an event for another system.
			log.Printf("webhook for unknown transfer reference %s", event.EventData.Reference)
			return nil
		}
		return err
	}
	if !changed {
		log.Printf("transfer %s already terminal, skipping", event.EventData.Reference)
	}
	return nil
}

// verifySignature checks the HMAC-SHA512 of the raw body in constant time.
func (s *service) verifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// validAccountNumber accepts exactly ten ASCII digits, the NUBAN format.
func validAccountNumber(accountNumber string) bool {
	if len(accountNumber) != 10 {
		return false
	}
	for _, c := range accountNumber {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
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
