package expense

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	expensesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expenses_created_total",
			Help: "Total number of expenses created",
		},
	)

	expenseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_status_transitions_total",
			Help: "Total number of expense status changes by target status",
		},
		[]string{"status"}, // pending, approved, rejected, draft
	)

	decisionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expense_decision_conflicts_total",
			Help: "Approve or reject attempts refused because the expense was not pending",
		},
	)
)
