package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AdvisoryRequestsTotal counts orchestrator runs by use case and result kind ("ok" on success).
	AdvisoryRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmadvisor",
		Subsystem: "advisory",
		Name:      "requests_total",
		Help:      "Total number of advisory runs, labeled by use case and result.",
	}, []string{"use_case", "result"})

	// AdvisoryDurationSeconds is end-to-end time of one run, retries included.
	AdvisoryDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "farmadvisor",
		Subsystem: "advisory",
		Name:      "duration_seconds",
		Help:      "End-to-end time of an advisory run including model retries.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"use_case"})

	// ModelAttemptsTotal counts single model invocations by provider and outcome.
	ModelAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmadvisor",
		Subsystem: "model",
		Name:      "attempts_total",
		Help:      "Total number of model invocations, labeled by provider and outcome.",
	}, []string{"provider", "outcome"})

	// ResultsStoredTotal counts persisted results by outcome.
	ResultsStoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmadvisor",
		Subsystem: "store",
		Name:      "results_stored_total",
		Help:      "Total number of advisory results written to the database, labeled by result.",
	}, []string{"result"})
)

// Register registers the metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AdvisoryRequestsTotal,
			AdvisoryDurationSeconds,
			ModelAttemptsTotal,
			ResultsStoredTotal,
		)
	})
}
