/*
service.go - Account and investment lifecycle operations

PURPOSE:
  The thin write paths that surround the accrual engine: creating
  accounts, crediting manually verified deposits, and opening investment
  positions. Each operation runs inside one store transaction and writes
  its ledger entry in the same transaction as the balance change.

OPENING A POSITION:
  1. Load plan; validate the principal against the plan minimum
  2. Debit the principal from the account (insufficient balance aborts)
  3. Append an INVESTMENT entry (negative amount)
  4. Insert the Investment row with the plan terms snapshotted

  The snapshot matters: if an admin later edits the plan's rate, every
  already-open position keeps the terms it was sold with.

SEE ALSO:
  - accrual/processor.go: The read/mutate path for open positions
  - store.go: Transaction boundary contract
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes the platform's account and investment write paths.
type Service struct {
	Store TxStore

	// Clock returns the current time; replaceable in tests.
	Clock func() time.Time
}

// NewService creates a Service backed by the given store.
func NewService(store TxStore) *Service {
	return &Service{Store: store, Clock: time.Now}
}

// CreateAccount creates an account with a zero balance.
func (s *Service) CreateAccount(ctx context.Context) (*Account, error) {
	now := s.Clock().UTC()
	acct := Account{
		ID:        AccountID(uuid.NewString()),
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.SaveAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &acct, nil
}

// Deposit credits a manually verified deposit to an account. Deposits on
// this platform are approved by humans, so by the time this runs the
// amount is settled fact; the credit and its DEPOSIT entry commit
// atomically.
func (s *Service) Deposit(ctx context.Context, accountID AccountID, amount decimal.Decimal, description string) error {
	if !amount.IsPositive() {
		return ErrNegativeCredit
	}
	amount = RoundMoney(amount)

	return s.Store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.GetAccount(ctx, accountID); err != nil {
			return err
		}
		if err := tx.CreditAccount(ctx, accountID, amount); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, Entry{
			ID:          EntryID(uuid.NewString()),
			AccountID:   accountID,
			Amount:      amount,
			Category:    CategoryDeposit,
			Description: description,
			CreatedAt:   s.Clock().UTC(),
		})
	})
}

// OpenInvestment commits principal from an account into a new position
// against the given plan. Returns the created investment.
func (s *Service) OpenInvestment(ctx context.Context, accountID AccountID, planID PlanID, principal decimal.Decimal) (*Investment, error) {
	principal = RoundMoney(principal)
	now := s.Clock().UTC()

	var created Investment
	err := s.Store.WithTx(ctx, func(tx Store) error {
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if principal.LessThan(plan.MinPrincipal) {
			return fmt.Errorf("%w: plan %q requires at least %s", ErrBelowMinimum, plan.Name, plan.MinPrincipal)
		}

		if err := tx.DebitAccount(ctx, accountID, principal); err != nil {
			return err
		}

		created = Investment{
			ID:          InvestmentID(uuid.NewString()),
			AccountID:   accountID,
			PlanID:      plan.ID,
			Plan:        plan.Snapshot(),
			Principal:   principal,
			StartAt:     now,
			EndAt:       now.AddDate(0, 0, plan.DurationDays),
			TotalEarned: decimal.Zero,
			Status:      StatusActive,
			CreatedAt:   now,
		}
		if err := tx.SaveInvestment(ctx, created); err != nil {
			return err
		}

		// Account-level entry: the principal leaving the balance. Not
		// linked to the investment id so the per-investment entry sum
		// tracks earnings only.
		return tx.AppendEntry(ctx, Entry{
			ID:          EntryID(uuid.NewString()),
			AccountID:   accountID,
			Amount:      principal.Neg(),
			Category:    CategoryInvestment,
			Description: fmt.Sprintf("Investment in %s plan", plan.Name),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
