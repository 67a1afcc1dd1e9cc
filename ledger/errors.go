/*
errors.go - Centralized error types for the domain

PURPOSE:
  All domain error types in one place for consistency and
  discoverability. Callers match with errors.Is / errors.As; packages
  above wrap these with additional context via %w.

ERROR CATEGORIES:
  1. Not-found errors - referenced rows that do not exist
  2. Invariant violations - money-safety rules that must surface loudly
  3. Validation errors - invalid client input

SEE ALSO:
  - accrual/calculator.go: Returns OverearnedError
  - store/sqlite: Wraps database failures around these sentinels
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPlanNotFound is returned when a referenced plan doesn't exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrInvestmentNotFound is returned when a referenced investment doesn't exist.
	ErrInvestmentNotFound = errors.New("investment not found")

	// ErrInvalidPlan is returned when a plan template violates its bounds
	// (non-positive rate, rate above MaxDailyRate, zero duration, ...).
	ErrInvalidPlan = errors.New("invalid investment plan")

	// ErrInsufficientBalance is returned when a debit exceeds the
	// account's available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBelowMinimum is returned when a principal is under the plan's
	// minimum.
	ErrBelowMinimum = errors.New("amount below plan minimum")

	// ErrNegativeCredit is returned when the accrual path attempts a
	// non-positive balance credit. Accrual is strictly additive.
	ErrNegativeCredit = errors.New("accrual credit must be positive")

	// ErrOverearned is returned when an investment's recorded earnings
	// exceed what its terms allow. This is corrupted state and is never
	// silently repaired.
	ErrOverearned = errors.New("total earned exceeds contractual amount")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverearnedError reports an investment whose TotalEarned exceeds the
// amount its terms can justify. Surfaced for manual investigation,
// never clamped.
type OverearnedError struct {
	InvestmentID InvestmentID
	TotalEarned  decimal.Decimal
	Contractual  decimal.Decimal
}

func (e *OverearnedError) Error() string {
	return fmt.Sprintf("investment %s overearned: total_earned %s exceeds contractual %s",
		e.InvestmentID, e.TotalEarned, e.Contractual)
}

func (e *OverearnedError) Unwrap() error { return ErrOverearned }

// InsufficientBalanceError reports a balance shortage on a debit.
type InsufficientBalanceError struct {
	AccountID AccountID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on account %s: available %s, requested %s",
		e.AccountID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrInvestmentNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPlan) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBelowMinimum)
}
