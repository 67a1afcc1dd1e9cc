/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  All monetary amounts cross the wire as JSON strings ("150.75"), never
  numbers. Clients parse them with a decimal library; a float64 on the
  wire would re-introduce the rounding drift the engine exists to avoid.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/cryptohaven/ledger-engine/accrual"
	"github.com/cryptohaven/ledger-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AccountDTO represents a fund account in API responses.
type AccountDTO struct {
	ID        string `json:"id"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// DepositRequest is the request to credit an account from an external
// funding source.
type DepositRequest struct {
	Amount string `json:"amount"`
}

// PlanDTO represents an investment plan in API responses.
type PlanDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DailyRate    string `json:"daily_rate"`
	MinPrincipal string `json:"min_principal"`
	DurationDays int    `json:"duration_days"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CreatePlanRequest is the request to create a plan.
type CreatePlanRequest struct {
	Name         string `json:"name"`
	DailyRate    string `json:"daily_rate"`
	MinPrincipal string `json:"min_principal"`
	DurationDays int    `json:"duration_days"`
}

// InvestmentDTO represents an investment position. Plan terms are the
// snapshot taken at purchase, not the plan's current values.
type InvestmentDTO struct {
	ID             string `json:"id"`
	AccountID      string `json:"account_id"`
	PlanID         string `json:"plan_id"`
	PlanName       string `json:"plan_name"`
	DailyRate      string `json:"daily_rate"`
	DurationDays   int    `json:"duration_days"`
	Principal      string `json:"principal"`
	StartAt        string `json:"start_at"`
	EndAt          string `json:"end_at"`
	TotalEarned    string `json:"total_earned"`
	ContractualCap string `json:"contractual_cap"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// OpenInvestmentRequest is the request to open a position.
type OpenInvestmentRequest struct {
	AccountID string `json:"account_id"`
	PlanID    string `json:"plan_id"`
	Principal string `json:"principal"`
}

// EntryDTO represents one immutable ledger entry.
type EntryDTO struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	InvestmentID string `json:"investment_id,omitempty"`
	Amount       string `json:"amount"`
	Category     string `json:"category"`
	Description  string `json:"description,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// JobDTO represents one scheduler job's operator-visible state.
type JobDTO struct {
	Name    string `json:"name"`
	Spec    string `json:"spec"`
	State   string `json:"state"`
	NextRun string `json:"next_run,omitempty"`
}

// TriggerRunRequest is the body for a manual accrual run trigger.
type TriggerRunRequest struct {
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// RunSummaryDTO is the response for a triggered run and the shape of
// run-history items.
type RunSummaryDTO struct {
	RunID            string               `json:"run_id,omitempty"`
	Outcome          string               `json:"outcome"`
	TriggeredBy      string               `json:"triggered_by,omitempty"`
	StartedAt        string               `json:"started_at,omitempty"`
	FinishedAt       string               `json:"finished_at,omitempty"`
	Examined         int                  `json:"examined"`
	Credited         int                  `json:"credited"`
	Completed        int                  `json:"completed"`
	Errored          int                  `json:"errored"`
	TotalDistributed string               `json:"total_distributed"`
	Errors           []InvestmentErrorDTO `json:"errors,omitempty"`
	Error            string               `json:"error,omitempty"`
}

// InvestmentErrorDTO is one investment's failure inside a run.
type InvestmentErrorDTO struct {
	InvestmentID string `json:"investment_id"`
	Error        string `json:"error"`
}

// DashboardDTO is the admin overview.
type DashboardDTO struct {
	Accounts          int            `json:"accounts"`
	Plans             int            `json:"plans"`
	ActiveInvestments int            `json:"active_investments"`
	PrincipalAtWork   string         `json:"principal_at_work"`
	TotalEarned       string         `json:"total_earned"`
	Jobs              []JobDTO       `json:"jobs"`
	LastRun           *RunSummaryDTO `json:"last_run,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAccountDTO(acct ledger.Account) AccountDTO {
	return AccountDTO{
		ID:        string(acct.ID),
		Balance:   acct.Balance.String(),
		CreatedAt: acct.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acct.UpdatedAt.Format(time.RFC3339),
	}
}

func toPlanDTO(plan ledger.InvestmentPlan) PlanDTO {
	return PlanDTO{
		ID:           string(plan.ID),
		Name:         plan.Name,
		DailyRate:    plan.DailyRate.String(),
		MinPrincipal: plan.MinPrincipal.String(),
		DurationDays: plan.DurationDays,
		CreatedAt:    plan.CreatedAt.Format(time.RFC3339),
	}
}

func toInvestmentDTO(inv ledger.Investment) InvestmentDTO {
	return InvestmentDTO{
		ID:             string(inv.ID),
		AccountID:      string(inv.AccountID),
		PlanID:         string(inv.PlanID),
		PlanName:       inv.Plan.Name,
		DailyRate:      inv.Plan.DailyRate.String(),
		DurationDays:   inv.Plan.DurationDays,
		Principal:      inv.Principal.String(),
		StartAt:        inv.StartAt.Format(time.RFC3339),
		EndAt:          inv.EndAt.Format(time.RFC3339),
		TotalEarned:    inv.TotalEarned.String(),
		ContractualCap: inv.ContractualTotal().String(),
		Status:         string(inv.Status),
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
	}
}

func toEntryDTO(entry ledger.Entry) EntryDTO {
	return EntryDTO{
		ID:           string(entry.ID),
		AccountID:    string(entry.AccountID),
		InvestmentID: string(entry.InvestmentID),
		Amount:       entry.Amount.String(),
		Category:     string(entry.Category),
		Description:  entry.Description,
		CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []ledger.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toJobDTO(st accrual.JobStatus) JobDTO {
	dto := JobDTO{
		Name:  st.Name,
		Spec:  st.Spec,
		State: string(st.State),
	}
	if !st.NextRun.IsZero() {
		dto.NextRun = st.NextRun.Format(time.RFC3339)
	}
	return dto
}

func toRunSummaryDTO(s accrual.RunSummary) RunSummaryDTO {
	dto := RunSummaryDTO{
		RunID:            s.RunID,
		Outcome:          string(s.Outcome),
		TriggeredBy:      s.TriggeredBy,
		Examined:         s.Examined,
		Credited:         s.Credited,
		Completed:        s.Completed,
		Errored:          s.Errored,
		TotalDistributed: s.TotalDistributed.String(),
		Error:            s.Err,
	}
	if !s.StartedAt.IsZero() {
		dto.StartedAt = s.StartedAt.Format(time.RFC3339)
	}
	if !s.FinishedAt.IsZero() {
		dto.FinishedAt = s.FinishedAt.Format(time.RFC3339)
	}
	for _, e := range s.Errors {
		dto.Errors = append(dto.Errors, InvestmentErrorDTO{
			InvestmentID: string(e.InvestmentID),
			Error:        e.Err,
		})
	}
	return dto
}

func toRunRecordDTO(run ledger.RunRecord) RunSummaryDTO {
	return RunSummaryDTO{
		RunID:            run.ID,
		Outcome:          string(run.Status),
		TriggeredBy:      run.TriggeredBy,
		StartedAt:        run.StartedAt.Format(time.RFC3339),
		FinishedAt:       run.FinishedAt.Format(time.RFC3339),
		Examined:         run.Examined,
		Credited:         run.Credited,
		Completed:        run.Completed,
		Errored:          run.Errored,
		TotalDistributed: run.TotalDistributed.String(),
		Error:            run.Error,
	}
}
