/*
entry.go - Append-only ledger entries

PURPOSE:
  Entries are the immutable audit trail of record. Every balance change
  writes exactly one Entry in the same transaction as the mutation, so a
  reader never observes a balance change without its audit record.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, entries cannot be modified.
  3. SAME-TRANSACTION: An entry is written in the transaction that
     mutates the balance it describes.

CORRECTIONS:
  Mistakes are never edited away. A correcting entry with the opposite
  sign is appended instead; both remain in the ledger.

SEE ALSO:
  - store.go: Store.AppendEntry
  - accrual/processor.go: Writes PROFIT entries
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTRY CATEGORIES
// =============================================================================

type EntryCategory string

const (
	// CategoryProfit records daily accrual credits from the engine.
	CategoryProfit EntryCategory = "profit"

	// CategoryPrincipalReturn records principal refunded to an account
	// by an admin operation. Not written by the accrual engine.
	CategoryPrincipalReturn EntryCategory = "principal_return"

	// CategoryInvestment records principal committed to a position
	// (negative amount).
	CategoryInvestment EntryCategory = "investment"

	// CategoryDeposit records a manually verified deposit credit.
	CategoryDeposit EntryCategory = "deposit"

	// CategoryWithdrawal records an approved withdrawal debit.
	CategoryWithdrawal EntryCategory = "withdrawal"

	// CategoryAdjustment records a manual admin correction.
	CategoryAdjustment EntryCategory = "adjustment"
)

// =============================================================================
// ENTRY - Immutable append-only fact
// =============================================================================

// Entry is one immutable ledger record. Amount is signed: credits are
// positive, debits negative. InvestmentID links entries produced for a
// specific position (empty for account-level entries such as deposits).
type Entry struct {
	ID           EntryID
	AccountID    AccountID
	InvestmentID InvestmentID
	Amount       decimal.Decimal
	Category     EntryCategory
	Description  string
	CreatedAt    time.Time
}
