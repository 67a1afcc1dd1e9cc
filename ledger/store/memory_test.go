package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptohaven/ledger-engine/ledger"
	"github.com/cryptohaven/ledger-engine/ledger/store"
)

func seedAccount(t *testing.T, mem *store.TxMemory, id ledger.AccountID, balance string) {
	t.Helper()
	b, _ := decimal.NewFromString(balance)
	err := mem.SaveAccount(context.Background(), ledger.Account{
		ID:        id,
		Balance:   b,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
}

func TestMemory_CreditRejectsNonPositive(t *testing.T) {
	mem := store.NewTxMemory()
	ctx := context.Background()
	seedAccount(t, mem, "acct-1", "100")

	if err := mem.CreditAccount(ctx, "acct-1", decimal.Zero); !errors.Is(err, ledger.ErrNegativeCredit) {
		t.Errorf("zero credit: got %v, want ErrNegativeCredit", err)
	}
}

func TestMemory_DebitInsufficientBalance(t *testing.T) {
	mem := store.NewTxMemory()
	ctx := context.Background()
	seedAccount(t, mem, "acct-1", "100")

	err := mem.DebitAccount(ctx, "acct-1", decimal.NewFromInt(200))
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Errorf("got %v, want ErrInsufficientBalance", err)
	}
}

func TestWithTx_ErrorRestoresSnapshot(t *testing.T) {
	// GIVEN: An account with 100 and one entry already written
	// WHEN: A transaction credits the account, appends an entry, then fails
	// THEN: Both mutations are rolled back to the pre-transaction snapshot

	mem := store.NewTxMemory()
	ctx := context.Background()
	seedAccount(t, mem, "acct-1", "100")
	mem.AppendEntry(ctx, ledger.Entry{ID: "e-1", AccountID: "acct-1", Amount: decimal.NewFromInt(100), Category: ledger.CategoryDeposit})

	boom := errors.New("boom")
	err := mem.WithTx(ctx, func(tx ledger.Store) error {
		if err := tx.CreditAccount(ctx, "acct-1", decimal.NewFromInt(50)); err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, ledger.Entry{ID: "e-2", AccountID: "acct-1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	acct, _ := mem.GetAccount(ctx, "acct-1")
	if !acct.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s, want 100 after rollback", acct.Balance)
	}
	entries, _ := mem.EntriesByAccount(ctx, "acct-1")
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1 after rollback", len(entries))
	}
}

func TestWithTx_SuccessKeepsMutations(t *testing.T) {
	mem := store.NewTxMemory()
	ctx := context.Background()
	seedAccount(t, mem, "acct-1", "100")

	err := mem.WithTx(ctx, func(tx ledger.Store) error {
		return tx.CreditAccount(ctx, "acct-1", decimal.NewFromInt(50))
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acct, _ := mem.GetAccount(ctx, "acct-1")
	if !acct.Balance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("balance = %s, want 150", acct.Balance)
	}
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	mem := store.NewTxMemory()
	ctx := context.Background()

	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mem.SaveRun(ctx, ledger.RunRecord{
			ID:               string(rune('a' + i)),
			StartedAt:        base.Add(time.Duration(i) * time.Hour),
			Status:           ledger.RunCompleted,
			TotalDistributed: decimal.Zero,
		})
	}

	runs, err := mem.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("order = %s, %s; want c, b", runs[0].ID, runs[1].ID)
	}
}
