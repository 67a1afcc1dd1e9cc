/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.TxStore and ledger.RunStore using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  accounts:       Fund balances (decimal stored as TEXT)
  plans:          Admin-created investment plan templates
  investments:    Positions with plan terms snapshotted at creation
  entries:        Immutable append-only ledger of balance changes
  accrual_runs:   Persisted run summaries for the operator history

APPEND-ONLY ENFORCEMENT:
  The entries table has no UPDATE or DELETE path in this package.
  Corrections are appended as new entries.

MONEY REPRESENTATION:
  All decimals are stored as TEXT and parsed with
  decimal.NewFromString. Never REAL: binary floats drift cents.

TRANSACTIONS:
  WithTx wraps fn in one BEGIN/COMMIT. The transactional view reuses
  the same statement helpers over *sql.Tx, so the per-investment
  "one transaction" contract is enforced by construction.

CONCURRENCY:
  A sync.RWMutex serializes writers on top of SQLite's own locking;
  the database is opened in WAL mode so readers don't block.

USAGE:
  store, err := sqlite.New("./data/cryptohaven.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/cryptohaven/ledger-engine/ledger"
)

// Store implements ledger.TxStore and ledger.RunStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Accounts (balances mutated only inside transactions)
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		balance TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Investment plan templates
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		daily_rate TEXT NOT NULL,
		min_principal TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Investments (plan terms snapshotted; rate never follows plan edits)
	CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		daily_rate TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		principal TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		total_earned TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_investments_status
		ON investments(status);
	CREATE INDEX IF NOT EXISTS idx_investments_account
		ON investments(account_id);

	-- Ledger entries (append-only)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		investment_id TEXT,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_account
		ON entries(account_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_entries_investment
		ON entries(investment_id) WHERE investment_id IS NOT NULL;

	-- Accrual run history
	CREATE TABLE IF NOT EXISTS accrual_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		triggered_by TEXT,
		examined INTEGER NOT NULL DEFAULT 0,
		credited INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		errored INTEGER NOT NULL DEFAULT 0,
		total_distributed TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_accrual_runs_started
		ON accrual_runs(started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so the statement
// helpers below serve the direct and transactional paths alike.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// LEDGER.TXSTORE - WithTx
// =============================================================================

// WithTx executes fn within one database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txView{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txView is the Store view handed to WithTx callbacks. The enclosing
// WithTx holds the store mutex, so the view takes no locks.
type txView struct {
	q querier
}

func (v *txView) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	return getAccount(ctx, v.q, id)
}
func (v *txView) SaveAccount(ctx context.Context, acct ledger.Account) error {
	return saveAccount(ctx, v.q, acct)
}
func (v *txView) CreditAccount(ctx context.Context, id ledger.AccountID, delta decimal.Decimal) error {
	return creditAccount(ctx, v.q, id, delta)
}
func (v *txView) DebitAccount(ctx context.Context, id ledger.AccountID, amount decimal.Decimal) error {
	return debitAccount(ctx, v.q, id, amount)
}
func (v *txView) GetPlan(ctx context.Context, id ledger.PlanID) (*ledger.InvestmentPlan, error) {
	return getPlan(ctx, v.q, id)
}
func (v *txView) ListPlans(ctx context.Context) ([]ledger.InvestmentPlan, error) {
	return listPlans(ctx, v.q)
}
func (v *txView) SavePlan(ctx context.Context, plan ledger.InvestmentPlan) error {
	return savePlan(ctx, v.q, plan)
}
func (v *txView) GetInvestment(ctx context.Context, id ledger.InvestmentID) (*ledger.Investment, error) {
	return getInvestment(ctx, v.q, id)
}
func (v *txView) ListActiveInvestments(ctx context.Context) ([]ledger.Investment, error) {
	return listInvestments(ctx, v.q, `WHERE status = ? ORDER BY created_at ASC`, string(ledger.StatusActive))
}
func (v *txView) ListInvestmentsByAccount(ctx context.Context, id ledger.AccountID) ([]ledger.Investment, error) {
	return listInvestments(ctx, v.q, `WHERE account_id = ? ORDER BY created_at DESC`, string(id))
}
func (v *txView) SaveInvestment(ctx context.Context, inv ledger.Investment) error {
	return saveInvestment(ctx, v.q, inv)
}
func (v *txView) UpdateInvestmentAccrual(ctx context.Context, id ledger.InvestmentID, totalEarned decimal.Decimal, status ledger.InvestmentStatus) error {
	return updateInvestmentAccrual(ctx, v.q, id, totalEarned, status)
}
func (v *txView) AppendEntry(ctx context.Context, entry ledger.Entry) error {
	return appendEntry(ctx, v.q, entry)
}
func (v *txView) EntriesByAccount(ctx context.Context, id ledger.AccountID) ([]ledger.Entry, error) {
	return listEntries(ctx, v.q, `WHERE account_id = ? ORDER BY created_at ASC`, string(id))
}
func (v *txView) EntriesByInvestment(ctx context.Context, id ledger.InvestmentID) ([]ledger.Entry, error) {
	return listEntries(ctx, v.q, `WHERE investment_id = ? ORDER BY created_at ASC`, string(id))
}

// =============================================================================
// LEDGER.STORE - Direct (auto-commit) path
// =============================================================================

func (s *Store) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccount(ctx, s.db, id)
}

func (s *Store) SaveAccount(ctx context.Context, acct ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAccount(ctx, s.db, acct)
}

func (s *Store) CreditAccount(ctx context.Context, id ledger.AccountID, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return creditAccount(ctx, s.db, id, delta)
}

func (s *Store) DebitAccount(ctx context.Context, id ledger.AccountID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return debitAccount(ctx, s.db, id, amount)
}

func (s *Store) GetPlan(ctx context.Context, id ledger.PlanID) (*ledger.InvestmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPlan(ctx, s.db, id)
}

func (s *Store) ListPlans(ctx context.Context) ([]ledger.InvestmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPlans(ctx, s.db)
}

func (s *Store) SavePlan(ctx context.Context, plan ledger.InvestmentPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePlan(ctx, s.db, plan)
}

func (s *Store) GetInvestment(ctx context.Context, id ledger.InvestmentID) (*ledger.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getInvestment(ctx, s.db, id)
}

func (s *Store) ListActiveInvestments(ctx context.Context) ([]ledger.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listInvestments(ctx, s.db, `WHERE status = ? ORDER BY created_at ASC`, string(ledger.StatusActive))
}

func (s *Store) ListInvestmentsByAccount(ctx context.Context, id ledger.AccountID) ([]ledger.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listInvestments(ctx, s.db, `WHERE account_id = ? ORDER BY created_at DESC`, string(id))
}

func (s *Store) SaveInvestment(ctx context.Context, inv ledger.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveInvestment(ctx, s.db, inv)
}

func (s *Store) UpdateInvestmentAccrual(ctx context.Context, id ledger.InvestmentID, totalEarned decimal.Decimal, status ledger.InvestmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateInvestmentAccrual(ctx, s.db, id, totalEarned, status)
}

func (s *Store) AppendEntry(ctx context.Context, entry ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, entry)
}

func (s *Store) EntriesByAccount(ctx context.Context, id ledger.AccountID) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEntries(ctx, s.db, `WHERE account_id = ? ORDER BY created_at ASC`, string(id))
}

func (s *Store) EntriesByInvestment(ctx context.Context, id ledger.InvestmentID) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEntries(ctx, s.db, `WHERE investment_id = ? ORDER BY created_at ASC`, string(id))
}

// =============================================================================
// LEDGER.RUNSTORE
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run ledger.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accrual_runs
		(id, started_at, finished_at, status, triggered_by,
		 examined, credited, completed, errored, total_distributed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(run.Status),
		run.TriggeredBy,
		run.Examined,
		run.Credited,
		run.Completed,
		run.Errored,
		run.TotalDistributed.String(),
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]ledger.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, triggered_by,
		       examined, credited, completed, errored, total_distributed, error
		FROM accrual_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []ledger.RunRecord
	for rows.Next() {
		var run ledger.RunRecord
		var startedAt, finishedAt, distributed string
		var triggeredBy, runErr sql.NullString
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Status, &triggeredBy,
			&run.Examined, &run.Credited, &run.Completed, &run.Errored, &distributed, &runErr); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		run.TriggeredBy = triggeredBy.String
		run.Error = runErr.String
		run.TotalDistributed, err = decimal.NewFromString(distributed)
		if err != nil {
			return nil, fmt.Errorf("corrupt total_distributed on run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// STATEMENT HELPERS (shared by direct and transactional paths)
// =============================================================================

func getAccount(ctx context.Context, q querier, id ledger.AccountID) (*ledger.Account, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, balance, created_at, updated_at FROM accounts WHERE id = ?`, string(id))

	var acct ledger.Account
	var balance, createdAt, updatedAt string
	if err := row.Scan(&acct.ID, &balance, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var err error
	acct.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance on account %s: %w", id, err)
	}
	acct.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	acct.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &acct, nil
}

func saveAccount(ctx context.Context, q querier, acct ledger.Account) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO accounts (id, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		string(acct.ID),
		acct.Balance.String(),
		acct.CreatedAt.UTC().Format(time.RFC3339Nano),
		acct.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func creditAccount(ctx context.Context, q querier, id ledger.AccountID, delta decimal.Decimal) error {
	if !delta.IsPositive() {
		return ledger.ErrNegativeCredit
	}
	acct, err := getAccount(ctx, q, id)
	if err != nil {
		return err
	}
	return setBalance(ctx, q, id, acct.Balance.Add(delta))
}

func debitAccount(ctx context.Context, q querier, id ledger.AccountID, amount decimal.Decimal) error {
	acct, err := getAccount(ctx, q, id)
	if err != nil {
		return err
	}
	if acct.Balance.LessThan(amount) {
		return &ledger.InsufficientBalanceError{
			AccountID: id,
			Available: acct.Balance,
			Requested: amount,
		}
	}
	return setBalance(ctx, q, id, acct.Balance.Sub(amount))
}

func setBalance(ctx context.Context, q querier, id ledger.AccountID, balance decimal.Decimal) error {
	res, err := q.ExecContext(ctx, `
		UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func getPlan(ctx context.Context, q querier, id ledger.PlanID) (*ledger.InvestmentPlan, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, daily_rate, min_principal, duration_days, created_at
		FROM plans WHERE id = ?`, string(id))

	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrPlanNotFound
	}
	return plan, err
}

func listPlans(ctx context.Context, q querier) ([]ledger.InvestmentPlan, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, daily_rate, min_principal, duration_days, created_at
		FROM plans ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []ledger.InvestmentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPlan(row scannable) (*ledger.InvestmentPlan, error) {
	var plan ledger.InvestmentPlan
	var rate, minPrincipal, createdAt string
	if err := row.Scan(&plan.ID, &plan.Name, &rate, &minPrincipal, &plan.DurationDays, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	var err error
	if plan.DailyRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("corrupt daily_rate on plan %s: %w", plan.ID, err)
	}
	if plan.MinPrincipal, err = decimal.NewFromString(minPrincipal); err != nil {
		return nil, fmt.Errorf("corrupt min_principal on plan %s: %w", plan.ID, err)
	}
	plan.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &plan, nil
}

func savePlan(ctx context.Context, q querier, plan ledger.InvestmentPlan) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO plans (id, name, daily_rate, min_principal, duration_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(plan.ID),
		plan.Name,
		plan.DailyRate.String(),
		plan.MinPrincipal.String(),
		plan.DurationDays,
		plan.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

const investmentColumns = `id, account_id, plan_id, plan_name, daily_rate, duration_days,
	principal, start_at, end_at, total_earned, status, created_at`

func getInvestment(ctx context.Context, q querier, id ledger.InvestmentID) (*ledger.Investment, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE id = ?`, string(id))

	inv, err := scanInvestment(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrInvestmentNotFound
	}
	return inv, err
}

func listInvestments(ctx context.Context, q querier, where string, args ...any) ([]ledger.Investment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+investmentColumns+` FROM investments `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []ledger.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

func scanInvestment(row scannable) (*ledger.Investment, error) {
	var inv ledger.Investment
	var rate, principal, earned, startAt, endAt, createdAt string
	err := row.Scan(&inv.ID, &inv.AccountID, &inv.PlanID, &inv.Plan.Name, &rate,
		&inv.Plan.DurationDays, &principal, &startAt, &endAt, &earned, &inv.Status, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan investment: %w", err)
	}

	if inv.Plan.DailyRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("corrupt daily_rate on investment %s: %w", inv.ID, err)
	}
	if inv.Principal, err = decimal.NewFromString(principal); err != nil {
		return nil, fmt.Errorf("corrupt principal on investment %s: %w", inv.ID, err)
	}
	if inv.TotalEarned, err = decimal.NewFromString(earned); err != nil {
		return nil, fmt.Errorf("corrupt total_earned on investment %s: %w", inv.ID, err)
	}
	inv.StartAt, _ = time.Parse(time.RFC3339Nano, startAt)
	inv.EndAt, _ = time.Parse(time.RFC3339Nano, endAt)
	inv.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &inv, nil
}

func saveInvestment(ctx context.Context, q querier, inv ledger.Investment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO investments (id, account_id, plan_id, plan_name, daily_rate, duration_days,
			principal, start_at, end_at, total_earned, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(inv.ID),
		string(inv.AccountID),
		string(inv.PlanID),
		inv.Plan.Name,
		inv.Plan.DailyRate.String(),
		inv.Plan.DurationDays,
		inv.Principal.String(),
		inv.StartAt.UTC().Format(time.RFC3339Nano),
		inv.EndAt.UTC().Format(time.RFC3339Nano),
		inv.TotalEarned.String(),
		string(inv.Status),
		inv.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save investment: %w", err)
	}
	return nil
}

func updateInvestmentAccrual(ctx context.Context, q querier, id ledger.InvestmentID, totalEarned decimal.Decimal, status ledger.InvestmentStatus) error {
	res, err := q.ExecContext(ctx, `
		UPDATE investments SET total_earned = ?, status = ? WHERE id = ?`,
		totalEarned.String(),
		string(status),
		string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrInvestmentNotFound
	}
	return nil
}

func appendEntry(ctx context.Context, q querier, entry ledger.Entry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO entries (id, account_id, investment_id, amount, category, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(entry.ID),
		string(entry.AccountID),
		nullString(string(entry.InvestmentID)),
		entry.Amount.String(),
		string(entry.Category),
		entry.Description,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

func listEntries(ctx context.Context, q querier, where string, args ...any) ([]ledger.Entry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, account_id, investment_id, amount, category, description, created_at
		FROM entries `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		var investmentID, description sql.NullString
		var amount, createdAt string
		if err := rows.Scan(&entry.ID, &entry.AccountID, &investmentID, &amount,
			&entry.Category, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.InvestmentID = ledger.InvestmentID(investmentID.String)
		entry.Description = description.String
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount on entry %s: %w", entry.ID, err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
