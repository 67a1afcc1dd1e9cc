package accrual_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptohaven/ledger-engine/accrual"
	"github.com/cryptohaven/ledger-engine/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(s string) decimal.Decimal {
	return ledger.MustMoney(s)
}

var testStart = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

// starterInvestment: 1000 principal, 1.5%/day, 30 days.
// Daily profit 15, contractual total 450.
func starterInvestment() ledger.Investment {
	return ledger.Investment{
		ID:        "inv-1",
		AccountID: "acct-1",
		PlanID:    "plan-1",
		Plan: ledger.PlanSnapshot{
			Name:         "Starter",
			DailyRate:    money("1.5"),
			DurationDays: 30,
		},
		Principal:   money("1000"),
		StartAt:     testStart,
		EndAt:       testStart.AddDate(0, 0, 30),
		TotalEarned: decimal.Zero,
		Status:      ledger.StatusActive,
		CreatedAt:   testStart,
	}
}

// =============================================================================
// CALCULATOR TESTS
// =============================================================================

func TestCompute_FirstDayNotFinished_NothingOwed(t *testing.T) {
	// GIVEN: A position opened 12 hours ago
	// WHEN: Computing owed profit
	// THEN: Nothing accrues before the first whole day completes

	inv := starterInvestment()
	result, err := accrual.Compute(inv, testStart.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owed.IsZero() {
		t.Errorf("owed = %s, want 0", result.Owed)
	}
	if result.ShouldComplete {
		t.Error("should not complete on day 0")
	}
}

func TestCompute_OneDayElapsed_OwesOneDay(t *testing.T) {
	inv := starterInvestment()
	result, err := accrual.Compute(inv, testStart.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owed.Equal(money("15")) {
		t.Errorf("owed = %s, want 15", result.Owed)
	}
	if result.DaysElapsed != 1 {
		t.Errorf("days = %d, want 1", result.DaysElapsed)
	}
}

func TestCompute_Idempotent_SecondPassOwesNothing(t *testing.T) {
	// GIVEN: Day 1 profit already credited
	// WHEN: Computing again at the same instant
	// THEN: Owed is zero - re-running a pass never double-credits

	inv := starterInvestment()
	inv.TotalEarned = money("15")

	result, err := accrual.Compute(inv, testStart.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owed.IsZero() {
		t.Errorf("owed = %s, want 0 on re-run", result.Owed)
	}
}

func TestCompute_MissedDays_CaughtUpInOnePass(t *testing.T) {
	// GIVEN: Only day 1 was credited, then two passes were missed
	// WHEN: Computing on day 3
	// THEN: The single pass credits the full gap (days 2 and 3)

	inv := starterInvestment()
	inv.TotalEarned = money("15")

	result, err := accrual.Compute(inv, testStart.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owed.Equal(money("30")) {
		t.Errorf("owed = %s, want 30", result.Owed)
	}
}

func TestCompute_Matured_PaysExactShortfall(t *testing.T) {
	// GIVEN: A matured position credited through day 29 (435 of 450)
	// WHEN: Computing after EndAt
	// THEN: The final credit is exactly the remaining 15 and the position
	//       must complete

	inv := starterInvestment()
	inv.TotalEarned = money("435")

	result, err := accrual.Compute(inv, inv.EndAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owed.Equal(money("15")) {
		t.Errorf("owed = %s, want 15", result.Owed)
	}
	if !result.ShouldComplete {
		t.Error("matured position must complete")
	}
}

func TestCompute_MaturedLongAgo_PaysFullContractualTotal(t *testing.T) {
	// The ceiling after maturity is duration-based, not elapsed-day based:
	// a position discovered long after EndAt still settles at exactly 450.

	inv := starterInvestment()
	result, err := accrual.Compute(inv, inv.EndAt.AddDate(0, 0, 60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owed.Equal(money("450")) {
		t.Errorf("owed = %s, want 450", result.Owed)
	}
	if !result.ShouldComplete {
		t.Error("matured position must complete")
	}
}

func TestCompute_MaturedFullyPaid_CompletesWithZeroOwed(t *testing.T) {
	inv := starterInvestment()
	inv.TotalEarned = money("450")

	result, err := accrual.Compute(inv, inv.EndAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owed.IsZero() {
		t.Errorf("owed = %s, want 0", result.Owed)
	}
	if !result.ShouldComplete {
		t.Error("fully paid matured position must still complete")
	}
}

func TestCompute_Overearned_SurfacesError(t *testing.T) {
	// GIVEN: Recorded earnings exceed what one elapsed day justifies
	// THEN: The calculator refuses with OverearnedError, never clamps

	inv := starterInvestment()
	inv.TotalEarned = money("100")

	_, err := accrual.Compute(inv, testStart.Add(25*time.Hour))
	if !errors.Is(err, ledger.ErrOverearned) {
		t.Fatalf("got %v, want ErrOverearned", err)
	}

	var overearned *ledger.OverearnedError
	if !errors.As(err, &overearned) {
		t.Fatal("error does not carry investment context")
	}
	if overearned.InvestmentID != inv.ID {
		t.Errorf("error investment = %s, want %s", overearned.InvestmentID, inv.ID)
	}
}

func TestCompute_OverearnedAfterMaturity_SurfacesError(t *testing.T) {
	inv := starterInvestment()
	inv.TotalEarned = money("450.01")

	_, err := accrual.Compute(inv, inv.EndAt.Add(time.Hour))
	if !errors.Is(err, ledger.ErrOverearned) {
		t.Errorf("got %v, want ErrOverearned", err)
	}
}

func TestCompute_RepeatingDecimalTerms_SettleAtContractualTotal(t *testing.T) {
	// GIVEN: 333.33 at 0.1%/day for 3 days (0.33333/day)
	// WHEN: Accruing day by day, then settling at maturity
	// THEN: The credits sum to exactly the contractual total

	inv := ledger.Investment{
		ID:        "inv-2",
		AccountID: "acct-1",
		Plan: ledger.PlanSnapshot{
			Name:         "Micro",
			DailyRate:    money("0.1"),
			DurationDays: 3,
		},
		Principal:   money("333.33"),
		StartAt:     testStart,
		EndAt:       testStart.AddDate(0, 0, 3),
		TotalEarned: decimal.Zero,
		Status:      ledger.StatusActive,
	}
	total := inv.ContractualTotal()

	credited := decimal.Zero
	for day := 1; day <= 3; day++ {
		asOf := testStart.Add(time.Duration(day)*24*time.Hour + time.Minute)
		result, err := accrual.Compute(inv, asOf)
		if err != nil {
			t.Fatalf("day %d: unexpected error: %v", day, err)
		}
		credited = credited.Add(result.Owed)
		inv.TotalEarned = inv.TotalEarned.Add(result.Owed)
	}

	if !credited.Equal(total) {
		t.Errorf("credited %s over the term, want contractual %s", credited, total)
	}
}
