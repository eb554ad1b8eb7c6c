package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveRuns counts solve runs by algorithm and final status.
	SolveRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solve_runs_total", Help: "Solve runs by algorithm and status."},
		[]string{"algorithm", "status"},
	)
	// SolveIterations counts annealing micro-iterations across runs.
	SolveIterations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solve_iterations_total", Help: "Annealing micro-iterations across all runs."},
	)
	// SolveAcceptances counts acceptance decisions by kind (better, worse).
	SolveAcceptances = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solve_acceptances_total", Help: "Accepted candidate solutions by kind."},
		[]string{"kind"},
	)
	// SolveOutcomes counts operator applications that changed nothing,
	// by outcome (starved, rejected).
	SolveOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solve_operator_outcomes_total", Help: "Operator applications returning the parent solution, by outcome."},
		[]string{"outcome"},
	)
	// SolveBestCost tracks the best known cost per instance.
	SolveBestCost = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "solve_best_cost", Help: "Best known solution cost per instance."},
		[]string{"instance"},
	)
	// SolveDuration records wall-clock solve times in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}},
		[]string{"algorithm"},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveRuns)
		Registry.MustRegister(SolveIterations)
		Registry.MustRegister(SolveAcceptances)
		Registry.MustRegister(SolveOutcomes)
		Registry.MustRegister(SolveBestCost)
		Registry.MustRegister(SolveDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
