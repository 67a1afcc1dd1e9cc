package accrual

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run-level and investment-level counters, exported on /metrics.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accrual_runs_total",
		Help: "Accrual runs by outcome.",
	}, []string{"outcome"})

	creditedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accrual_investments_credited_total",
		Help: "Investments credited daily profit.",
	})

	completedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accrual_investments_completed_total",
		Help: "Investments transitioned to completed.",
	})

	errorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accrual_investment_errors_total",
		Help: "Per-investment failures inside runs.",
	})

	distributedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accrual_amount_distributed_total",
		Help: "Total profit distributed, in account currency units.",
	})
)
