/*
coordinator.go - Orchestrates one full accrual pass

PURPOSE:
  Runs the processor over every active investment, isolating failures
  per investment (bulkhead), and aggregates counts into a RunSummary
  that is logged, persisted for the run-history endpoint, and returned
  to the caller.

SINGLE-FLIGHT:
  The scheduler firing and an admin's manual trigger can race. The
  coordinator admits exactly one run at a time via an atomic
  compare-and-swap; the loser returns immediately with an
  "already running" summary. The flag is released with defer so no
  exit path - including a listing failure - can leave the engine
  permanently believing a run is active.

  The guard is a courtesy fast-fail. The processor's fresh-read inside
  its own transaction is the real safety net against double-crediting.

SEE ALSO:
  - processor.go: Per-investment transaction
  - scheduler.go: Recurring trigger
*/
package accrual

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/cryptohaven/ledger-engine/ledger"
)

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunOutcome classifies how a coordinator invocation ended.
type RunOutcome string

const (
	// RunDone: the pass ran to the end (individual errors may exist).
	RunDone RunOutcome = "completed"

	// RunAborted: the pass could not start (listing actives failed).
	RunAborted RunOutcome = "failed"

	// RunAlreadyRunning: another run was in flight; nothing was touched.
	// A no-op result, not a failure.
	RunAlreadyRunning RunOutcome = "already_running"
)

// InvestmentError records one investment's failure inside a run.
type InvestmentError struct {
	InvestmentID ledger.InvestmentID
	Err          string
}

// RunSummary aggregates one coordinator invocation.
type RunSummary struct {
	RunID            string
	Outcome          RunOutcome
	TriggeredBy      string
	StartedAt        time.Time
	FinishedAt       time.Time
	Examined         int
	Credited         int
	Completed        int
	Errored          int
	TotalDistributed decimal.Decimal
	Errors           []InvestmentError
	Err              string // top-level error for RunAborted
}

// =============================================================================
// ACCRUAL RUN COORDINATOR
// =============================================================================

// Coordinator walks all active investments once per invocation.
type Coordinator struct {
	Store     ledger.TxStore
	Runs      ledger.RunStore
	Processor *Processor

	// Clock returns the current time; replaceable in tests.
	Clock func() time.Time

	running atomic.Bool
}

// NewCoordinator wires a coordinator from its collaborators.
func NewCoordinator(store ledger.TxStore, runs ledger.RunStore, processor *Processor) *Coordinator {
	return &Coordinator{
		Store:     store,
		Runs:      runs,
		Processor: processor,
		Clock:     time.Now,
	}
}

// Running reports whether a run is currently in flight.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Run executes one full accrual pass. triggeredBy is an optional
// operator tag ("scheduler", an admin identifier) carried into the run
// record; the coordinator does not interpret it.
func (c *Coordinator) Run(ctx context.Context, triggeredBy string) RunSummary {
	if !c.running.CompareAndSwap(false, true) {
		log.WithField("triggered_by", triggeredBy).Info("Accrual run refused: already running")
		return RunSummary{
			Outcome:          RunAlreadyRunning,
			TriggeredBy:      triggeredBy,
			TotalDistributed: decimal.Zero,
		}
	}
	defer c.running.Store(false)

	summary := RunSummary{
		RunID:            uuid.NewString(),
		Outcome:          RunDone,
		TriggeredBy:      triggeredBy,
		StartedAt:        c.Clock().UTC(),
		TotalDistributed: decimal.Zero,
	}

	// Plain filtered read, outside any mutating transaction. The
	// processor re-reads each row fresh before touching it.
	actives, err := c.Store.ListActiveInvestments(ctx)
	if err != nil {
		summary.Outcome = RunAborted
		summary.Err = err.Error()
		summary.FinishedAt = c.Clock().UTC()
		log.WithError(err).Error("Accrual run aborted: failed to list active investments")
		c.record(ctx, summary)
		runsTotal.WithLabelValues(string(RunAborted)).Inc()
		return summary
	}

	summary.Examined = len(actives)

	for _, inv := range actives {
		outcome, err := c.Processor.Apply(ctx, inv.ID)
		if err != nil {
			// Bulkhead: record and continue with the rest of the run.
			summary.Errored++
			summary.Errors = append(summary.Errors, InvestmentError{
				InvestmentID: inv.ID,
				Err:          err.Error(),
			})
			errorsTotal.Inc()
			log.WithFields(log.Fields{
				"run_id":        summary.RunID,
				"investment_id": inv.ID,
			}).WithError(err).Error("Investment accrual failed")
			continue
		}

		switch outcome.Kind {
		case OutcomeCredited:
			summary.Credited++
			summary.TotalDistributed = summary.TotalDistributed.Add(outcome.Amount)
			creditedTotal.Inc()
		case OutcomeCompleted:
			summary.Completed++
			summary.TotalDistributed = summary.TotalDistributed.Add(outcome.Amount)
			completedTotal.Inc()
		}
	}

	summary.FinishedAt = c.Clock().UTC()

	log.WithFields(log.Fields{
		"run_id":            summary.RunID,
		"triggered_by":      summary.TriggeredBy,
		"examined":          summary.Examined,
		"credited":          summary.Credited,
		"completed":         summary.Completed,
		"errored":           summary.Errored,
		"total_distributed": summary.TotalDistributed.String(),
		"duration":          summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Accrual run finished")

	c.record(ctx, summary)
	runsTotal.WithLabelValues(string(RunDone)).Inc()
	distributedTotal.Add(summary.TotalDistributed.InexactFloat64())

	return summary
}

// record persists the run for the operator-facing history. Persistence
// failures are logged, not propagated: the ledger mutations already
// committed and the summary is still returned to the caller.
func (c *Coordinator) record(ctx context.Context, summary RunSummary) {
	if c.Runs == nil {
		return
	}

	status := ledger.RunCompleted
	if summary.Outcome == RunAborted {
		status = ledger.RunFailed
	}

	run := ledger.RunRecord{
		ID:               summary.RunID,
		StartedAt:        summary.StartedAt,
		FinishedAt:       summary.FinishedAt,
		Status:           status,
		TriggeredBy:      summary.TriggeredBy,
		Examined:         summary.Examined,
		Credited:         summary.Credited,
		Completed:        summary.Completed,
		Errored:          summary.Errored,
		TotalDistributed: summary.TotalDistributed,
		Error:            summary.Err,
	}
	if err := c.Runs.SaveRun(ctx, run); err != nil {
		log.WithField("run_id", summary.RunID).WithError(err).Error("Failed to persist run record")
	}
}
