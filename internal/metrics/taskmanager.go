package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmsearch_task_transitions_total",
			Help: "Task status transitions by from-state, to-state, and kind.",
		},
		[]string{"from", "to", "kind"},
	)

	tasksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmsearch_tasks_created_total",
			Help: "Total tasks created by kind.",
		},
		[]string{"kind"},
	)

	tasksCleanedUpTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mmsearch_tasks_cleaned_up_total",
			Help: "Total task records removed by the cleanup sweeper.",
		},
	)
)

// RecordTaskTransition records a task status transition.
func RecordTaskTransition(from, to, kind string) {
	taskTransitionsTotal.WithLabelValues(from, to, kind).Inc()
}

// RecordTaskCreated records the creation of a new task of the given kind.
func RecordTaskCreated(kind string) {
	tasksCreatedTotal.WithLabelValues(kind).Inc()
}

// RecordTasksCleanedUp records n task records reaped by one cleanup sweep.
func RecordTasksCleanedUp(n int) {
	tasksCleanedUpTotal.Add(float64(n))
}
