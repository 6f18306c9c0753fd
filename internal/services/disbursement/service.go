// Package disbursement orchestrates the daily allowance run: select budgeted
// users, debit each one's allowance under a day-scoped reference, then send
// the money to their verified bank account. The debit reference makes the
// whole run idempotent per day.
package disbursement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dailychow/internal/models"
	"dailychow/internal/repositories"
	"dailychow/internal/services/ledger"
	"dailychow/internal/services/transfer"
)

const defaultWorkers = 5

// Config tunes the daily run.
type Config struct {
	// Workers bounds how many users are processed concurrently.
	Workers   int
	Narration string
}

type service struct {
	ledgerRepo repositories.LedgerRepository
	ledger     ledger.Service
	transfers  transfer.Service
	audit      repositories.AuditRepository
	config     Config
	now        func() time.Time
}

// NewService creates a new disbursement orchestrator.
func NewService(
	ledgerRepo repositories.LedgerRepository,
	ledgerService ledger.Service,
	transferService transfer.Service,
	audit repositories.AuditRepository,
	config Config,
) Service {
	if ledgerRepo == nil {
		panic("ledger repository is required")
	}
	if ledgerService == nil {
		panic("ledger service is required")
	}
	if transferService == nil {
		panic("transfer service is required")
	}
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if config.Narration == "" {
		config.Narration = "Daily food allowance"
	}
	return &service{
		ledgerRepo: ledgerRepo,
		ledger:     ledgerService,
		transfers:  transferService,
		audit:      audit,
		config:     config,
		now:        time.Now,
	}
}

func (s *service) Run(ctx context.Context) (*Summary, error) {
	candidates, err := s.ledgerRepo.ListBudgeted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgeted users: %w", err)
	}

	date := s.now().Format("2006-01-02")
	summary := &Summary{Date: date, Considered: len(candidates)}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.config.Workers)
	)
	for _, candidate := range candidates {
		candidate := candidate
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.processUser(ctx, candidate, date)

			mu.Lock()
			defer mu.Unlock()
			summary.Outcomes = append(summary.Outcomes, outcome)
			switch outcome.Status {
			case OutcomeDisbursed:
				summary.Disbursed++
			case OutcomeSkipped:
				summary.Skipped++
			case OutcomeDebitFailed:
				summary.DebitFailed++
			case OutcomePendingReview:
				summary.PendingReview++
			}
		}()
	}
	wg.Wait()

	log.Printf("disbursement run %s: considered=%d disbursed=%d skipped=%d debit_failed=%d pending_review=%d",
		date, summary.Considered, summary.Disbursed, summary.Skipped, summary.DebitFailed, summary.PendingReview)
	return summary, nil
}

func (s *service) processUser(ctx context.Context, candidate repositories.DisbursementCandidate, date string) UserOutcome {
	userID := candidate.UserID

	// Eligibility checks mirror what the debit would reject, so skips carry
	// a reason instead of surfacing as errors.
	if !candidate.HasVerifiedAccount {
		return UserOutcome{UserID: userID, Status: OutcomeSkipped, Reason: SkipNoVerifiedAccount}
	}
	if candidate.Balance.LessThan(candidate.DailyAllowance) {
		return UserOutcome{UserID: userID, Status: OutcomeSkipped, Reason: SkipInsufficientBalance}
	}

	reference := fmt.Sprintf("allowance_%d_%s", userID, date)
	description := fmt.Sprintf("Daily allowance for %s", date)
	_, err := s.ledger.Debit(ctx, userID, candidate.DailyAllowance, reference, models.CategoryAllowance, description)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateReference):
			return UserOutcome{UserID: userID, Status: OutcomeSkipped, Reason: SkipAlreadyDisbursed}
		case errors.Is(err, repositories.ErrInsufficientBalance):
			// Balance moved between selection and debit.
			return UserOutcome{UserID: userID, Status: OutcomeSkipped, Reason: SkipInsufficientBalance}
		default:
			log.Printf("debit failed for user %d: %v", userID, err)
			return UserOutcome{UserID: userID, Status: OutcomeDebitFailed, Reason: err.Error()}
		}
	}

	record, err := s.transfers.Send(ctx, userID, candidate.DailyAllowance, s.config.Narration)
	if err != nil || record.Status == models.StatusFailed {
		// The debit stands. An automatic reversal could double-pay if the
		// provider settles the transfer after all, so a human reconciles it.
		s.flagForReview(ctx, userID, date, err)
		return UserOutcome{UserID: userID, Status: OutcomePendingReview}
	}

	if err := s.ledgerRepo.AppendInfo(ctx, userID, models.CategoryTransfer,
		fmt.Sprintf("Transfer %s to %s", record.Reference, record.MaskedDestination())); err != nil {
		log.Printf("failed to record transfer entry for user %d: %v", userID, err)
	}
	return UserOutcome{UserID: userID, Status: OutcomeDisbursed}
}

func (s *service) flagForReview(ctx context.Context, userID uint, date string, cause error) {
	detail := fmt.Sprintf("allowance debited for %s but transfer failed", date)
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", detail, cause)
	}
	log.Printf("user %d flagged for manual review: %s", userID, detail)
	if s.audit == nil {
		return
	}
	event := &models.AuditEvent{
		UserID:    &userID,
		EventType: models.AuditTransferReview,
		Severity:  models.SeverityCritical,
		Detail:    detail,
	}
	if err := s.audit.Record(ctx, event); err != nil {
		log.Printf("failed to record audit event for user %d: %v", userID, err)
	}
}
