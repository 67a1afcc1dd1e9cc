/*
Package ledger provides the core domain model for the CryptoHaven
investment platform.

PURPOSE:
  This package contains the entities and invariants the accrual engine
  operates on: accounts holding fund balances, investment plans, open
  investment positions, and the append-only ledger of balance changes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A party holding funds (balance is fixed-point decimal)
  - InvestmentPlan: Immutable admin-created template (rate, duration)
  - PlanSnapshot: Plan terms captured at investment creation time
  - Investment: One user's position, ACTIVE until its term elapses

DESIGN PRINCIPLES:
  1. Precision: All money arithmetic uses decimal.Decimal - never floats.
  2. Snapshot terms: An Investment carries its own rate and duration.
     Editing a plan later never changes positions already opened.
  3. Monotonic earnings: TotalEarned only ever increases, bounded by the
     contractual total.
  4. Auditability: Every balance change has a ledger Entry (entry.go).

SEE ALSO:
  - entry.go: Ledger entries and categories
  - store.go: Persistence interfaces
  - errors.go: Sentinel and structured errors
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point decimal helpers
// =============================================================================

// centPlaces is the scale money is settled at. Amounts are rounded
// half-up to cents whenever they are credited or debited.
const centPlaces = 2

// RoundMoney rounds an amount to cent precision, half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(centPlaces)
}

// MustMoney parses a decimal string, returning zero on failure.
// Intended for constants and tests, not untrusted input.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type PlanID string
type InvestmentID string
type EntryID string

// =============================================================================
// ACCOUNT - A party holding funds
// =============================================================================

// Account identifies a party holding funds.
//
// INVARIANT: Balance is never negative. Balance is mutated only inside a
// store transaction - never read-modify-write in application code.
type Account struct {
	ID        AccountID
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// INVESTMENT PLAN - Immutable admin-created template
// =============================================================================

// InvestmentPlan is a template users invest against. Plans are created by
// admin tooling and are read-only to the accrual engine.
type InvestmentPlan struct {
	ID           PlanID
	Name         string
	DailyRate    decimal.Decimal // percent of principal per day, e.g. 1.5
	MinPrincipal decimal.Decimal
	DurationDays int
	CreatedAt    time.Time
}

// MaxDailyRate bounds plan rates. A plan promising more than 10%/day is
// a configuration error, not a product.
var MaxDailyRate = decimal.NewFromInt(10)

// Validate checks plan template invariants.
func (p InvestmentPlan) Validate() error {
	if p.Name == "" {
		return ErrInvalidPlan
	}
	if !p.DailyRate.IsPositive() || p.DailyRate.GreaterThan(MaxDailyRate) {
		return ErrInvalidPlan
	}
	if !p.MinPrincipal.IsPositive() {
		return ErrInvalidPlan
	}
	if p.DurationDays < 1 {
		return ErrInvalidPlan
	}
	return nil
}

// Snapshot captures the plan terms for a new investment. The snapshot is
// what the position accrues against; later plan edits do not reach it.
func (p InvestmentPlan) Snapshot() PlanSnapshot {
	return PlanSnapshot{
		Name:         p.Name,
		DailyRate:    p.DailyRate,
		DurationDays: p.DurationDays,
	}
}

// PlanSnapshot is the subset of plan terms frozen into an Investment at
// creation time. NOT a live pointer to the plan row.
type PlanSnapshot struct {
	Name         string
	DailyRate    decimal.Decimal
	DurationDays int
}

// =============================================================================
// INVESTMENT - One user's position
// =============================================================================

type InvestmentStatus string

const (
	StatusActive    InvestmentStatus = "active"
	StatusCompleted InvestmentStatus = "completed"
)

// Investment is one user's position against a plan snapshot.
//
// INVARIANTS:
//   - EndAt == StartAt + DurationDays
//   - TotalEarned never exceeds ContractualTotal()
//   - Mutated only by the accrual processor; immutable once COMPLETED
type Investment struct {
	ID          InvestmentID
	AccountID   AccountID
	PlanID      PlanID
	Plan        PlanSnapshot
	Principal   decimal.Decimal
	StartAt     time.Time
	EndAt       time.Time
	TotalEarned decimal.Decimal
	Status      InvestmentStatus
	CreatedAt   time.Time
}

// ContractualTotal returns the full profit the position is owed over its
// whole term: principal * rate * duration_days / 100, at cent precision.
func (inv Investment) ContractualTotal() decimal.Decimal {
	total := inv.Principal.
		Mul(inv.Plan.DailyRate).
		Mul(decimal.NewFromInt(int64(inv.Plan.DurationDays))).
		Div(decimal.NewFromInt(100))
	return RoundMoney(total)
}

// ContractualToDate returns the profit owed for the first daysElapsed
// whole days of the term, at cent precision.
func (inv Investment) ContractualToDate(daysElapsed int) decimal.Decimal {
	if daysElapsed <= 0 {
		return decimal.Zero
	}
	toDate := inv.Principal.
		Mul(inv.Plan.DailyRate).
		Mul(decimal.NewFromInt(int64(daysElapsed))).
		Div(decimal.NewFromInt(100))
	return RoundMoney(toDate)
}

// DaysElapsed returns the number of whole days between StartAt and asOf,
// floored. Negative values are clamped to zero.
func (inv Investment) DaysElapsed(asOf time.Time) int {
	if !asOf.After(inv.StartAt) {
		return 0
	}
	return int(asOf.Sub(inv.StartAt).Hours() / 24)
}

// Matured reports whether the position's term has elapsed at asOf.
func (inv Investment) Matured(asOf time.Time) bool {
	return !asOf.Before(inv.EndAt)
}
