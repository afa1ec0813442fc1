package symdiff

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeConverged = "converged"
	outcomeFailed    = "failed"
	outcomeCanceled  = "canceled"
)

type solverMetrics struct {
	solves     *prometheus.CounterVec
	iterations prometheus.Histogram
}

func newSolverMetrics(reg prometheus.Registerer) *solverMetrics {
	return &solverMetrics{
		solves: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "symdiff_newton_solves_total",
			Help: "Total number of Newton solves by outcome.",
		}, []string{"outcome"}),
		iterations: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "symdiff_newton_iterations",
			Help:    "Number of Newton steps taken per solve.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
	}
}

func (m *solverMetrics) observe(outcome string, iterations uint) {
	m.solves.WithLabelValues(outcome).Inc()
	m.iterations.Observe(float64(iterations))
}
