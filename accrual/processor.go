/*
processor.go - Applies one investment's accrual in one transaction

PURPOSE:
  The processor owns the per-investment transaction boundary. Balance
  credit, TotalEarned bump, status transition and the PROFIT ledger
  entry either all commit or none do.

CONCURRENCY DEFENSE:
  The investment row is re-read FRESH inside the transaction - never
  trusted from the coordinator's listing - so a row mutated by another
  path since the listing is seen in its current state. Together with
  the coordinator's single-flight guard this is what makes concurrent
  triggering safe.

NOTIFICATIONS:
  The accrual notice goes out only after a successful commit, and a
  failed send is logged at warning level and dropped. Side effects are
  never entangled with the transactional guarantees.

SEE ALSO:
  - calculator.go: The owed-profit math
  - coordinator.go: Invokes Apply for each active investment
*/
package accrual

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/cryptohaven/ledger-engine/ledger"
	"github.com/cryptohaven/ledger-engine/notify"
)

// =============================================================================
// PROCESS OUTCOME
// =============================================================================

type OutcomeKind string

const (
	// OutcomeSkipped: nothing to do (already completed, or nothing owed).
	OutcomeSkipped OutcomeKind = "skipped"

	// OutcomeCredited: daily profit was credited; position stays active.
	OutcomeCredited OutcomeKind = "credited"

	// OutcomeCompleted: final profit credited and position completed.
	OutcomeCompleted OutcomeKind = "completed"
)

// Outcome describes what Apply did to one investment.
type Outcome struct {
	Kind         OutcomeKind
	InvestmentID ledger.InvestmentID
	Amount       decimal.Decimal
	Reason       string // set for skips
}

// =============================================================================
// INVESTMENT PROCESSOR
// =============================================================================

// Processor applies accrual to single investments.
type Processor struct {
	Store   ledger.TxStore
	Gateway notify.Gateway

	// Clock returns the current time; replaceable in tests.
	Clock func() time.Time
}

// NewProcessor creates a processor bound to a store and a notification
// gateway.
func NewProcessor(store ledger.TxStore, gateway notify.Gateway) *Processor {
	return &Processor{Store: store, Gateway: gateway, Clock: time.Now}
}

// Apply computes and credits accrual for one investment inside one
// store transaction. Errors before commit roll back atomically and are
// reported to the coordinator as a per-investment failure.
func (p *Processor) Apply(ctx context.Context, id ledger.InvestmentID) (Outcome, error) {
	asOf := p.Clock().UTC()

	var outcome Outcome
	var notice *notify.AccrualNotice

	err := p.Store.WithTx(ctx, func(tx ledger.Store) error {
		// Fresh read: never act on the coordinator's cached snapshot.
		inv, err := tx.GetInvestment(ctx, id)
		if err != nil {
			return err
		}

		if inv.Status == ledger.StatusCompleted {
			outcome = Outcome{Kind: OutcomeSkipped, InvestmentID: id, Reason: "already completed"}
			return nil
		}

		result, err := Compute(*inv, asOf)
		if err != nil {
			return err
		}

		if result.Owed.IsZero() && !result.ShouldComplete {
			outcome = Outcome{Kind: OutcomeSkipped, InvestmentID: id, Reason: "nothing owed"}
			return nil
		}

		newEarned := inv.TotalEarned.Add(result.Owed)
		status := inv.Status
		if result.ShouldComplete {
			status = ledger.StatusCompleted
		}

		if result.Owed.IsPositive() {
			if err := tx.CreditAccount(ctx, inv.AccountID, result.Owed); err != nil {
				return fmt.Errorf("failed to credit account %s: %w", inv.AccountID, err)
			}
		}

		if err := tx.UpdateInvestmentAccrual(ctx, id, newEarned, status); err != nil {
			return fmt.Errorf("failed to update investment %s: %w", id, err)
		}

		if result.Owed.IsPositive() {
			entry := ledger.Entry{
				ID:           ledger.EntryID(uuid.NewString()),
				AccountID:    inv.AccountID,
				InvestmentID: id,
				Amount:       result.Owed,
				Category:     ledger.CategoryProfit,
				CreatedAt:    asOf,
			}
			if result.ShouldComplete {
				entry.Description = fmt.Sprintf("Final profit on completed %s investment (%d-day term)",
					inv.Plan.Name, inv.Plan.DurationDays)
			} else {
				entry.Description = fmt.Sprintf("Daily profit for %s investment (day %d of %d)",
					inv.Plan.Name, result.DaysElapsed, inv.Plan.DurationDays)
			}
			if err := tx.AppendEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to append ledger entry: %w", err)
			}
		}

		if result.ShouldComplete {
			outcome = Outcome{Kind: OutcomeCompleted, InvestmentID: id, Amount: result.Owed}
		} else {
			outcome = Outcome{Kind: OutcomeCredited, InvestmentID: id, Amount: result.Owed}
		}

		if result.Owed.IsPositive() {
			notice = &notify.AccrualNotice{
				AccountID:    inv.AccountID,
				InvestmentID: id,
				PlanName:     inv.Plan.Name,
				Amount:       result.Owed,
				Completed:    result.ShouldComplete,
				CreditedAt:   asOf,
			}
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	// Best-effort, strictly after commit. Never undoes committed state.
	if notice != nil && p.Gateway != nil {
		if err := p.Gateway.SendAccrualNotice(ctx, *notice); err != nil {
			log.WithFields(log.Fields{
				"investment_id": id,
				"account_id":    notice.AccountID,
			}).WithError(err).Warn("Accrual notice failed")
		}
	}

	return outcome, nil
}
