/*
handlers.go - HTTP API handlers for the investment ledger engine

PURPOSE:
  Exposes the ledger and accrual engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Accounts:
    POST   /api/accounts                    Create account
    GET    /api/accounts/{id}               Account with balance
    GET    /api/accounts/{id}/entries       Ledger entry history
    GET    /api/accounts/{id}/investments   Positions held
    POST   /api/accounts/{id}/deposits      Credit a verified deposit

  Plans:
    GET    /api/plans                       List plans
    POST   /api/plans                       Create plan (admin)

  Investments:
    POST   /api/investments                 Open a position
    GET    /api/investments/{id}            Position details
    GET    /api/investments/{id}/entries    Profit entries for position

  Accrual (admin control surface):
    GET    /api/jobs                        Scheduler job states
    POST   /api/jobs/{name}/start           Arm a job's timer
    POST   /api/jobs/{name}/stop            Disarm a job's timer
    POST   /api/accrual/run                 Trigger a run now (synchronous)
    GET    /api/accrual/runs                Run history
    GET    /api/admin/dashboard             Platform overview

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (run already in flight)
  - 422: Insufficient balance, principal below plan minimum
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cryptohaven/ledger-engine/accrual"
	"github.com/cryptohaven/ledger-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service     *ledger.Service
	Store       ledger.TxStore
	Runs        ledger.RunStore
	Coordinator *accrual.Coordinator
	Scheduler   *accrual.Scheduler
}

// NewHandler creates a handler over the engine's collaborators.
func NewHandler(service *ledger.Service, store ledger.TxStore, runs ledger.RunStore,
	coordinator *accrual.Coordinator, scheduler *accrual.Scheduler) *Handler {
	return &Handler{
		Service:     service,
		Store:       store,
		Runs:        runs,
		Coordinator: coordinator,
		Scheduler:   scheduler,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// CreateAccount creates an empty account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Service.CreateAccount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*acct))
}

// GetAccount returns one account with its current balance.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	acct, err := h.Store.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*acct))
}

// GetAccountEntries returns the account's full ledger history, oldest
// first.
func (h *Handler) GetAccountEntries(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetAccount(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	entries, err := h.Store.EntriesByAccount(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// GetAccountInvestments returns the account's positions, newest first.
func (h *Handler) GetAccountInvestments(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetAccount(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	investments, err := h.Store.ListInvestmentsByAccount(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list investments", err)
		return
	}

	dtos := make([]InvestmentDTO, len(investments))
	for i, inv := range investments {
		dtos[i] = toInvestmentDTO(inv)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Deposit credits a manually verified deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Invalid amount (use a positive decimal string)", err)
		return
	}

	if err := h.Service.Deposit(r.Context(), id, amount, "Verified deposit"); err != nil {
		writeDomainError(w, "Failed to deposit", err)
		return
	}

	acct, err := h.Store.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*acct))
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all investment plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan creates an investment plan.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate, err := decimal.NewFromString(req.DailyRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid daily_rate (use a decimal string)", err)
		return
	}
	minPrincipal, err := decimal.NewFromString(req.MinPrincipal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid min_principal (use a decimal string)", err)
		return
	}

	plan := ledger.InvestmentPlan{
		ID:           ledger.PlanID(uuid.NewString()),
		Name:         req.Name,
		DailyRate:    rate,
		MinPrincipal: minPrincipal,
		DurationDays: req.DurationDays,
		CreatedAt:    time.Now().UTC(),
	}
	if err := plan.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}

	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanDTO(plan))
}

// =============================================================================
// INVESTMENT HANDLERS
// =============================================================================

// OpenInvestment commits principal from an account into a new position.
func (h *Handler) OpenInvestment(w http.ResponseWriter, r *http.Request) {
	var req OpenInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil || !principal.IsPositive() {
		writeError(w, http.StatusBadRequest, "Invalid principal (use a positive decimal string)", err)
		return
	}

	inv, err := h.Service.OpenInvestment(r.Context(),
		ledger.AccountID(req.AccountID), ledger.PlanID(req.PlanID), principal)
	if err != nil {
		writeDomainError(w, "Failed to open investment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvestmentDTO(*inv))
}

// GetInvestment returns one position.
func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvestmentID(chi.URLParam(r, "id"))

	inv, err := h.Store.GetInvestment(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get investment", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvestmentDTO(*inv))
}

// GetInvestmentEntries returns the profit entries credited against one
// position. Their sum equals the position's TotalEarned.
func (h *Handler) GetInvestmentEntries(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvestmentID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetInvestment(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get investment", err)
		return
	}
	entries, err := h.Store.EntriesByInvestment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// =============================================================================
// ACCRUAL CONTROL SURFACE
// =============================================================================

// ListJobs returns every scheduler job's state.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	statuses := h.Scheduler.Status()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	dtos := make([]JobDTO, len(statuses))
	for i, st := range statuses {
		dtos[i] = toJobDTO(st)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// StartJob arms the named job's timer.
func (h *Handler) StartJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Scheduler.Start(name); err != nil {
		writeError(w, http.StatusNotFound, "Unknown job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job": name, "state": string(accrual.JobScheduled)})
}

// StopJob disarms the named job's timer. Work already in flight is not
// cancelled.
func (h *Handler) StopJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Scheduler.Stop(name); err != nil {
		writeError(w, http.StatusNotFound, "Unknown job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job": name, "state": string(accrual.JobStopped)})
}

// TriggerRun runs a full accrual pass synchronously and returns its
// summary. Returns 409 when a run is already in flight.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req TriggerRunRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // body optional
	}
	triggeredBy := req.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = "api"
	}

	summary := h.Coordinator.Run(r.Context(), triggeredBy)
	if summary.Outcome == accrual.RunAlreadyRunning {
		writeJSON(w, http.StatusConflict, toRunSummaryDTO(summary))
		return
	}
	writeJSON(w, http.StatusOK, toRunSummaryDTO(summary))
}

// ListRuns returns recent accrual runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Runs.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunSummaryDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunRecordDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Dashboard returns the admin platform overview.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plans, err := h.Store.ListPlans(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}
	actives, err := h.Store.ListActiveInvestments(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list investments", err)
		return
	}

	principal := decimal.Zero
	earned := decimal.Zero
	accounts := make(map[ledger.AccountID]struct{})
	for _, inv := range actives {
		principal = principal.Add(inv.Principal)
		earned = earned.Add(inv.TotalEarned)
		accounts[inv.AccountID] = struct{}{}
	}

	dto := DashboardDTO{
		Accounts:          len(accounts),
		Plans:             len(plans),
		ActiveInvestments: len(actives),
		PrincipalAtWork:   principal.String(),
		TotalEarned:       earned.String(),
	}

	statuses := h.Scheduler.Status()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	for _, st := range statuses {
		dto.Jobs = append(dto.Jobs, toJobDTO(st))
	}

	if runs, err := h.Runs.ListRuns(ctx, 1); err == nil && len(runs) > 0 {
		last := toRunRecordDTO(runs[0])
		dto.LastRun = &last
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
