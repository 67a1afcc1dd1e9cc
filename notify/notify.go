/*
Package notify defines the best-effort notification gateway.

PURPOSE:
  After an accrual commits, the engine tells the account holder about
  their profit. Delivery is best-effort by contract: a failed send is
  logged and dropped, and must never roll back or retry against the
  committed ledger transaction.

IMPLEMENTATIONS:
  - LogGateway: Writes notices to the structured log. The default when
    no mail provider is configured.
  - Recorder:   Captures notices in memory for tests.

  Production email delivery lives behind this interface in the
  platform's mailer service; the engine only depends on the contract.
*/
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/cryptohaven/ledger-engine/ledger"
)

// AccrualNotice describes one committed accrual credit.
type AccrualNotice struct {
	AccountID    ledger.AccountID
	InvestmentID ledger.InvestmentID
	PlanName     string
	Amount       decimal.Decimal
	Completed    bool
	CreditedAt   time.Time
}

// Gateway dispatches accrual notices. Implementations may fail; callers
// treat any error as non-fatal.
type Gateway interface {
	SendAccrualNotice(ctx context.Context, notice AccrualNotice) error
}

// =============================================================================
// LOG GATEWAY - Default no-provider implementation
// =============================================================================

// LogGateway writes notices to the log and always succeeds.
type LogGateway struct{}

func (LogGateway) SendAccrualNotice(_ context.Context, notice AccrualNotice) error {
	log.WithFields(log.Fields{
		"account_id":    notice.AccountID,
		"investment_id": notice.InvestmentID,
		"plan":          notice.PlanName,
		"amount":        notice.Amount.String(),
		"completed":     notice.Completed,
	}).Info("Accrual notice")
	return nil
}

// =============================================================================
// RECORDER - Test double
// =============================================================================

// Recorder captures notices in memory. Set Err to make sends fail.
type Recorder struct {
	mu      sync.Mutex
	Err     error
	notices []AccrualNotice
}

func (r *Recorder) SendAccrualNotice(_ context.Context, notice AccrualNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.notices = append(r.notices, notice)
	return nil
}

// Notices returns a copy of everything sent so far.
func (r *Recorder) Notices() []AccrualNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AccrualNotice{}, r.notices...)
}
