/*
store.go - Persistence interfaces for the ledger engine

PURPOSE:
  Defines the boundary between domain logic and durable storage. The
  production implementation is SQLite (store/sqlite); an in-memory
  implementation (ledger/store) backs tests and development.

TRANSACTION BOUNDARY:
  TxStore.WithTx is the injectable unit-of-work. The accrual processor
  runs each investment inside exactly one WithTx call: fresh read,
  balance credit, investment update, and entry append either all commit
  or none do. Nothing in this package reads-then-writes a balance
  outside WithTx.

APPEND-ONLY CONTRACT:
  Entries have AppendEntry and read methods only. No update or delete
  exists at the interface level, so no implementation can offer one.

SEE ALSO:
  - ledger/store/memory.go: In-memory implementation
  - store/sqlite/sqlite.go: Production implementation
  - accrual/processor.go: The WithTx consumer
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Row-level operations
// =============================================================================

// Store handles persistence of accounts, plans, investments and entries.
// All methods are safe to call either directly (auto-commit) or against
// the transactional view passed to TxStore.WithTx.
type Store interface {
	// --- Accounts ---

	// GetAccount returns the account or ErrAccountNotFound.
	GetAccount(ctx context.Context, id AccountID) (*Account, error)

	// SaveAccount inserts or replaces an account row.
	SaveAccount(ctx context.Context, acct Account) error

	// CreditAccount adds delta to the account balance. Delta must be
	// positive: the accrual path is strictly additive and this method
	// enforces it with ErrNegativeCredit.
	CreditAccount(ctx context.Context, id AccountID, delta decimal.Decimal) error

	// DebitAccount subtracts amount from the account balance, failing
	// with InsufficientBalanceError if the balance would go negative.
	DebitAccount(ctx context.Context, id AccountID, amount decimal.Decimal) error

	// --- Plans ---

	// GetPlan returns the plan or ErrPlanNotFound.
	GetPlan(ctx context.Context, id PlanID) (*InvestmentPlan, error)

	// ListPlans returns all plans, oldest first.
	ListPlans(ctx context.Context) ([]InvestmentPlan, error)

	// SavePlan inserts or replaces a plan template.
	SavePlan(ctx context.Context, plan InvestmentPlan) error

	// --- Investments ---

	// GetInvestment returns the investment or ErrInvestmentNotFound.
	GetInvestment(ctx context.Context, id InvestmentID) (*Investment, error)

	// ListActiveInvestments returns every ACTIVE investment. Used by the
	// run coordinator as a plain filtered read, outside any transaction.
	ListActiveInvestments(ctx context.Context) ([]Investment, error)

	// ListInvestmentsByAccount returns all positions for an account,
	// newest first.
	ListInvestmentsByAccount(ctx context.Context, id AccountID) ([]Investment, error)

	// SaveInvestment inserts a new investment row.
	SaveInvestment(ctx context.Context, inv Investment) error

	// UpdateInvestmentAccrual sets TotalEarned and Status for one
	// investment. The only mutation investments ever receive.
	UpdateInvestmentAccrual(ctx context.Context, id InvestmentID, totalEarned decimal.Decimal, status InvestmentStatus) error

	// --- Entries (append-only) ---

	// AppendEntry persists one immutable ledger entry.
	AppendEntry(ctx context.Context, entry Entry) error

	// EntriesByAccount returns entries for an account, oldest first.
	EntriesByAccount(ctx context.Context, id AccountID) ([]Entry, error)

	// EntriesByInvestment returns entries linked to an investment,
	// oldest first.
	EntriesByInvestment(ctx context.Context, id InvestmentID) ([]Entry, error)
}

// =============================================================================
// TRANSACTIONAL STORE - The unit-of-work boundary
// =============================================================================

// TxStore wraps Store with atomic multi-statement transactions.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view of the store.
	// If fn returns an error the transaction is rolled back and the
	// error returned; otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// RUN STORE - Accrual run history
// =============================================================================

// RunStatus is the terminal state of a persisted accrual run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the durable summary of one coordinator run, kept for the
// operator-facing run history.
type RunRecord struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Status           RunStatus
	TriggeredBy      string
	Examined         int
	Credited         int
	Completed        int
	Errored          int
	TotalDistributed decimal.Decimal
	Error            string
}

// RunStore persists accrual run summaries.
type RunStore interface {
	// SaveRun records a finished run.
	SaveRun(ctx context.Context, run RunRecord) error

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
