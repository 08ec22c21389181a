// Package metrics provides Prometheus metrics for the comment subsystem.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeNotFound   = "not_found"
	OutcomePermission = "permission"
	OutcomeStoreError = "store_error"
)

// CommentMetrics counts comment operations by outcome and records their latency.
type CommentMetrics struct {
	OperationsTotal   *prometheus.CounterVec   // by operation and outcome
	OperationDuration *prometheus.HistogramVec // by operation
}

// NewCommentMetrics creates and registers the comment metrics.
func NewCommentMetrics(registry prometheus.Registerer) (*CommentMetrics, error) {
	m := &CommentMetrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forum_comment_operations_total",
				Help: "Total number of comment operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forum_comment_operation_duration_seconds",
				Help:    "Time taken by comment operations including store round trips",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
	}

	for _, c := range []prometheus.Collector{m.OperationsTotal, m.OperationDuration} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register comment metrics: %w", err)
		}
	}
	return m, nil
}

// Observe records one finished operation. A nil receiver is a no-op.
func (m *CommentMetrics) Observe(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
