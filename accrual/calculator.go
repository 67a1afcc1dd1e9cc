/*
Package accrual implements the ledger accrual engine: the daily-profit
calculator, the per-investment processor, the run coordinator, and the
scheduler that drives it.

PURPOSE:
  Once a day (or on demand from an admin), the engine walks every
  active investment, computes the profit owed since the last pass,
  credits it atomically, and completes positions whose term elapsed.

CORRECTNESS PROPERTIES:
  - Idempotent: Re-running against unchanged state credits nothing.
  - Conservative: The sum of an investment's ledger entries equals its
    TotalEarned at every observed point.
  - Bounded: TotalEarned never exceeds the contractual total.
  - Single-flight: Overlapping runs are turned away (coordinator.go).
  - Isolated: One investment's failure never aborts the run.

KEY FILES:
  calculator.go  - Pure owed-profit math (this file)
  processor.go   - One investment, one transaction
  coordinator.go - Full pass orchestration and run summaries
  scheduler.go   - Cron recurrence and operator control
*/
package accrual

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptohaven/ledger-engine/ledger"
)

// =============================================================================
// ACCRUAL CALCULATOR - Pure function, no I/O
// =============================================================================

// Result is the calculator's verdict for one investment at one instant.
type Result struct {
	// Owed is the new profit to credit. Zero means nothing owed.
	Owed decimal.Decimal

	// DaysElapsed is the number of whole days since the position opened.
	DaysElapsed int

	// ShouldComplete is set when the term has elapsed and the position
	// must transition to COMPLETED after crediting Owed.
	ShouldComplete bool
}

// Compute returns the profit owed to an investment at asOf.
//
// The owed amount is the gap between contractual earnings to date and
// what was already credited, so running Compute twice against the same
// state is a no-op the second time - this is the engine's idempotence
// guard.
//
// Once the term has elapsed, the ceiling switches from elapsed-day math
// to the full contractual total computed from duration_days. The final
// credit is whatever shortfall remains against that ceiling, which
// guarantees the contractual amount is hit exactly regardless of
// per-day rounding along the way.
//
// A negative owed amount means TotalEarned exceeds what the terms can
// justify; that is corrupted state and comes back as OverearnedError,
// never clamped to zero.
func Compute(inv ledger.Investment, asOf time.Time) (Result, error) {
	days := inv.DaysElapsed(asOf)

	if inv.Matured(asOf) {
		ceiling := inv.ContractualTotal()
		owed := ceiling.Sub(inv.TotalEarned)
		if owed.IsNegative() {
			return Result{}, &ledger.OverearnedError{
				InvestmentID: inv.ID,
				TotalEarned:  inv.TotalEarned,
				Contractual:  ceiling,
			}
		}
		return Result{Owed: owed, DaysElapsed: days, ShouldComplete: true}, nil
	}

	if days < 1 {
		// First day not finished yet; nothing accrues.
		return Result{DaysElapsed: days, Owed: decimal.Zero}, nil
	}

	toDate := inv.ContractualToDate(days)
	owed := toDate.Sub(inv.TotalEarned)
	if owed.IsNegative() {
		return Result{}, &ledger.OverearnedError{
			InvestmentID: inv.ID,
			TotalEarned:  inv.TotalEarned,
			Contractual:  toDate,
		}
	}
	return Result{Owed: owed, DaysElapsed: days}, nil
}
