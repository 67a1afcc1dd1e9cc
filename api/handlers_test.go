package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptohaven/ledger-engine/accrual"
	"github.com/cryptohaven/ledger-engine/api"
	"github.com/cryptohaven/ledger-engine/ledger"
	"github.com/cryptohaven/ledger-engine/ledger/store"
	"github.com/cryptohaven/ledger-engine/notify"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type env struct {
	mem    *store.TxMemory
	server *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mem := store.NewTxMemory()
	service := ledger.NewService(mem)
	processor := accrual.NewProcessor(mem, &notify.Recorder{})
	coordinator := accrual.NewCoordinator(mem, mem, processor)

	scheduler := accrual.NewScheduler()
	t.Cleanup(scheduler.Shutdown)
	require.NoError(t, scheduler.Register("accrual", "0 0 * * *", func() {
		coordinator.Run(context.Background(), "scheduler")
	}))

	handler := api.NewHandler(service, mem, mem, coordinator, scheduler)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)

	return &env{mem: mem, server: server}
}

func (e *env) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "body: %s", raw)
	return v
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestHealth(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAccountLifecycle(t *testing.T) {
	// GIVEN: A fresh account
	// WHEN: It receives a deposit
	// THEN: Balance and entry history are visible over the API

	e := newEnv(t)

	resp, raw := e.do(t, http.MethodPost, "/api/accounts", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	acct := decode[map[string]any](t, raw)
	id := acct["id"].(string)
	assert.Equal(t, "0", acct["balance"])

	resp, raw = e.do(t, http.MethodPost, "/api/accounts/"+id+"/deposits",
		map[string]string{"amount": "750.50"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	updated := decode[map[string]any](t, raw)
	assert.Equal(t, "750.5", updated["balance"])

	resp, raw = e.do(t, http.MethodGet, "/api/accounts/"+id+"/entries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]map[string]any](t, raw)
	require.Len(t, entries, 1)
	assert.Equal(t, "deposit", entries[0]["category"])
}

func TestDeposit_BadAmount(t *testing.T) {
	e := newEnv(t)
	_, raw := e.do(t, http.MethodPost, "/api/accounts", nil)
	id := decode[map[string]any](t, raw)["id"].(string)

	resp, _ := e.do(t, http.MethodPost, "/api/accounts/"+id+"/deposits",
		map[string]string{"amount": "-10"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAccount_NotFound(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/api/accounts/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlanCreateAndList(t *testing.T) {
	e := newEnv(t)

	resp, raw := e.do(t, http.MethodPost, "/api/plans", map[string]any{
		"name":          "Starter",
		"daily_rate":    "1.5",
		"min_principal": "100",
		"duration_days": 30,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	resp, raw = e.do(t, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	plans := decode[[]map[string]any](t, raw)
	require.Len(t, plans, 1)
	assert.Equal(t, "Starter", plans[0]["name"])
	assert.Equal(t, "1.5", plans[0]["daily_rate"])
}

func TestCreatePlan_RejectsInvalidTerms(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/plans", map[string]any{
		"name":          "Scam",
		"daily_rate":    "50", // above the 10%/day cap
		"min_principal": "100",
		"duration_days": 30,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpenInvestment_FullFlow(t *testing.T) {
	e := newEnv(t)

	_, raw := e.do(t, http.MethodPost, "/api/plans", map[string]any{
		"name": "Starter", "daily_rate": "1.5", "min_principal": "100", "duration_days": 30,
	})
	planID := decode[map[string]any](t, raw)["id"].(string)

	_, raw = e.do(t, http.MethodPost, "/api/accounts", nil)
	acctID := decode[map[string]any](t, raw)["id"].(string)
	e.do(t, http.MethodPost, "/api/accounts/"+acctID+"/deposits", map[string]string{"amount": "1000"})

	resp, raw := e.do(t, http.MethodPost, "/api/investments", map[string]string{
		"account_id": acctID, "plan_id": planID, "principal": "1000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	inv := decode[map[string]any](t, raw)
	assert.Equal(t, "active", inv["status"])
	assert.Equal(t, "450", inv["contractual_cap"])

	// Principal is committed.
	_, raw = e.do(t, http.MethodGet, "/api/accounts/"+acctID, nil)
	assert.Equal(t, "0", decode[map[string]any](t, raw)["balance"])

	_, raw = e.do(t, http.MethodGet, "/api/accounts/"+acctID+"/investments", nil)
	assert.Len(t, decode[[]map[string]any](t, raw), 1)
}

func TestOpenInvestment_BelowMinimumIs422(t *testing.T) {
	e := newEnv(t)

	_, raw := e.do(t, http.MethodPost, "/api/plans", map[string]any{
		"name": "Starter", "daily_rate": "1.5", "min_principal": "100", "duration_days": 30,
	})
	planID := decode[map[string]any](t, raw)["id"].(string)

	_, raw = e.do(t, http.MethodPost, "/api/accounts", nil)
	acctID := decode[map[string]any](t, raw)["id"].(string)
	e.do(t, http.MethodPost, "/api/accounts/"+acctID+"/deposits", map[string]string{"amount": "1000"})

	resp, _ := e.do(t, http.MethodPost, "/api/investments", map[string]string{
		"account_id": acctID, "plan_id": planID, "principal": "50",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestJobsControlSurface(t *testing.T) {
	e := newEnv(t)

	resp, raw := e.do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	jobs := decode[[]map[string]any](t, raw)
	require.Len(t, jobs, 1)
	assert.Equal(t, "accrual", jobs[0]["name"])
	assert.Equal(t, "stopped", jobs[0]["state"])

	resp, raw = e.do(t, http.MethodPost, "/api/jobs/accrual/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "scheduled", decode[map[string]any](t, raw)["state"])

	resp, raw = e.do(t, http.MethodPost, "/api/jobs/accrual/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "stopped", decode[map[string]any](t, raw)["state"])

	resp, _ = e.do(t, http.MethodPost, "/api/jobs/nope/start", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTriggerRunAndHistory(t *testing.T) {
	// GIVEN: One day-old active position
	// WHEN: An admin triggers a run over the API
	// THEN: The summary reports the credit and the run shows in history

	e := newEnv(t)
	start := time.Now().UTC().Add(-25 * time.Hour)
	seedPosition(t, e.mem, start)

	resp, raw := e.do(t, http.MethodPost, "/api/accrual/run",
		map[string]string{"triggered_by": "admin-7"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	summary := decode[map[string]any](t, raw)
	assert.Equal(t, "completed", summary["outcome"])
	assert.Equal(t, float64(1), summary["credited"])
	assert.Equal(t, "admin-7", summary["triggered_by"])

	resp, raw = e.do(t, http.MethodGet, "/api/accrual/runs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs := decode[[]map[string]any](t, raw)
	require.Len(t, runs, 1)
	assert.Equal(t, "admin-7", runs[0]["triggered_by"])
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	seedPosition(t, e.mem, time.Now().UTC().Add(-25*time.Hour))

	resp, raw := e.do(t, http.MethodGet, "/api/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[map[string]any](t, raw)
	assert.Equal(t, float64(1), dash["active_investments"])
	assert.Equal(t, "1000", dash["principal_at_work"])
}

// seedPosition stores an account and an active 1000 @ 1.5%/day x 30d
// position opened at start.
func seedPosition(t *testing.T, mem *store.TxMemory, start time.Time) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, mem.SaveAccount(ctx, ledger.Account{
		ID:        "acct-1",
		Balance:   ledger.MustMoney("0"),
		CreatedAt: start,
		UpdatedAt: start,
	}))
	require.NoError(t, mem.SaveInvestment(ctx, ledger.Investment{
		ID:        "inv-1",
		AccountID: "acct-1",
		PlanID:    "plan-1",
		Plan: ledger.PlanSnapshot{
			Name:         "Starter",
			DailyRate:    ledger.MustMoney("1.5"),
			DurationDays: 30,
		},
		Principal:   ledger.MustMoney("1000"),
		StartAt:     start,
		EndAt:       start.AddDate(0, 0, 30),
		TotalEarned: ledger.MustMoney("0"),
		Status:      ledger.StatusActive,
		CreatedAt:   start,
	}))
}
