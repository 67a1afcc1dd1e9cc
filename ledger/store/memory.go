// Package store provides an in-memory ledger.TxStore implementation
// for testing and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cryptohaven/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	accounts    map[ledger.AccountID]ledger.Account
	plans       map[ledger.PlanID]ledger.InvestmentPlan
	planOrder   []ledger.PlanID
	investments map[ledger.InvestmentID]ledger.Investment
	entries     []ledger.Entry
	runs        []ledger.RunRecord
}

func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[ledger.AccountID]ledger.Account),
		plans:       make(map[ledger.PlanID]ledger.InvestmentPlan),
		investments: make(map[ledger.InvestmentID]ledger.Investment),
	}
}

// --- Accounts ---

func (m *Memory) GetAccount(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAccountLocked(id)
}

func (m *Memory) getAccountLocked(id ledger.AccountID) (*ledger.Account, error) {
	acct, ok := m.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return &acct, nil
}

func (m *Memory) SaveAccount(_ context.Context, acct ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acct.ID] = acct
	return nil
}

func (m *Memory) CreditAccount(_ context.Context, id ledger.AccountID, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creditLocked(id, delta)
}

func (m *Memory) creditLocked(id ledger.AccountID, delta decimal.Decimal) error {
	if !delta.IsPositive() {
		return ledger.ErrNegativeCredit
	}
	acct, ok := m.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	acct.Balance = acct.Balance.Add(delta)
	m.accounts[id] = acct
	return nil
}

func (m *Memory) DebitAccount(_ context.Context, id ledger.AccountID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(id, amount)
}

func (m *Memory) debitLocked(id ledger.AccountID, amount decimal.Decimal) error {
	acct, ok := m.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if acct.Balance.LessThan(amount) {
		return &ledger.InsufficientBalanceError{
			AccountID: id,
			Available: acct.Balance,
			Requested: amount,
		}
	}
	acct.Balance = acct.Balance.Sub(amount)
	m.accounts[id] = acct
	return nil
}

// --- Plans ---

func (m *Memory) GetPlan(_ context.Context, id ledger.PlanID) (*ledger.InvestmentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plan, ok := m.plans[id]
	if !ok {
		return nil, ledger.ErrPlanNotFound
	}
	return &plan, nil
}

func (m *Memory) ListPlans(_ context.Context) ([]ledger.InvestmentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]ledger.InvestmentPlan, 0, len(m.planOrder))
	for _, id := range m.planOrder {
		result = append(result, m.plans[id])
	}
	return result, nil
}

func (m *Memory) SavePlan(_ context.Context, plan ledger.InvestmentPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.plans[plan.ID]; !exists {
		m.planOrder = append(m.planOrder, plan.ID)
	}
	m.plans[plan.ID] = plan
	return nil
}

// --- Investments ---

func (m *Memory) GetInvestment(_ context.Context, id ledger.InvestmentID) (*ledger.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getInvestmentLocked(id)
}

func (m *Memory) getInvestmentLocked(id ledger.InvestmentID) (*ledger.Investment, error) {
	inv, ok := m.investments[id]
	if !ok {
		return nil, ledger.ErrInvestmentNotFound
	}
	return &inv, nil
}

func (m *Memory) ListActiveInvestments(_ context.Context) ([]ledger.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Investment
	for _, inv := range m.investments {
		if inv.Status == ledger.StatusActive {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) ListInvestmentsByAccount(_ context.Context, id ledger.AccountID) ([]ledger.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Investment
	for _, inv := range m.investments {
		if inv.AccountID == id {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) SaveInvestment(_ context.Context, inv ledger.Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.investments[inv.ID] = inv
	return nil
}

func (m *Memory) UpdateInvestmentAccrual(_ context.Context, id ledger.InvestmentID, totalEarned decimal.Decimal, status ledger.InvestmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.investments[id]
	if !ok {
		return ledger.ErrInvestmentNotFound
	}
	inv.TotalEarned = totalEarned
	inv.Status = status
	m.investments[id] = inv
	return nil
}

// --- Entries ---

func (m *Memory) AppendEntry(_ context.Context, entry ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *Memory) EntriesByAccount(_ context.Context, id ledger.AccountID) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Entry
	for _, e := range m.entries {
		if e.AccountID == id {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) EntriesByInvestment(_ context.Context, id ledger.InvestmentID) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Entry
	for _, e := range m.entries {
		if e.InvestmentID == id {
			result = append(result, e)
		}
	}
	return result, nil
}

// --- Runs ---

func (m *Memory) SaveRun(_ context.Context, run ledger.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]ledger.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]ledger.RunRecord, len(m.runs))
	copy(result, m.runs)
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot taken up front and restored on error; txMu
// serializes writers so the snapshot is consistent.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	s := memorySnapshot{
		accounts:    make(map[ledger.AccountID]ledger.Account, len(tm.accounts)),
		plans:       make(map[ledger.PlanID]ledger.InvestmentPlan, len(tm.plans)),
		planOrder:   append([]ledger.PlanID{}, tm.planOrder...),
		investments: make(map[ledger.InvestmentID]ledger.Investment, len(tm.investments)),
		entries:     append([]ledger.Entry{}, tm.entries...),
		runs:        append([]ledger.RunRecord{}, tm.runs...),
	}
	for k, v := range tm.accounts {
		s.accounts[k] = v
	}
	for k, v := range tm.plans {
		s.plans[k] = v
	}
	for k, v := range tm.investments {
		s.investments[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.accounts = s.accounts
	tm.plans = s.plans
	tm.planOrder = s.planOrder
	tm.investments = s.investments
	tm.entries = s.entries
	tm.runs = s.runs
}

type memorySnapshot struct {
	accounts    map[ledger.AccountID]ledger.Account
	plans       map[ledger.PlanID]ledger.InvestmentPlan
	planOrder   []ledger.PlanID
	investments map[ledger.InvestmentID]ledger.Investment
	entries     []ledger.Entry
	runs        []ledger.RunRecord
}
