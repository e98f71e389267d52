package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Periodic runner metrics

	TickDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dtw_scheduler",
		Name:      "runner_tick_duration_seconds",
		Help:      "Duration of one periodic runner task.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"task"})

	TickSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtw_scheduler",
		Name:      "runner_tick_skipped_total",
		Help:      "Ticks skipped because the previous invocation of the task was still running.",
	}, []string{"task"})

	// Placement metrics

	DTWsPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtw_scheduler",
		Name:      "dtws_placed_total",
		Help:      "Delay-tolerant workloads placed, by policy and outcome.",
	}, []string{"policy", "outcome"})

	CronTriggersAdvancedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtw_scheduler",
		Name:      "cron_triggers_advanced_total",
		Help:      "Cron triggers advanced or exhausted, by outcome.",
	}, []string{"outcome"})

	// Price oracle / solver metrics

	PriceOracleUnavailableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtw_scheduler",
		Name:      "price_oracle_unavailable_total",
		Help:      "Times the price oracle could not be reached or parsed.",
	})

	SolverNoCandidateTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtw_scheduler",
		Name:      "solver_no_candidate_total",
		Help:      "Times the optimal-start solver found no valid candidate start time.",
	})

	// Dispatch metrics

	DispatchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtw_scheduler",
		Name:      "dispatch_failures_total",
		Help:      "Workflow dispatch failures, by source.",
	}, []string{"source"})

	// Process lifecycle

	StartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dtw_scheduler",
		Name:      "process_start_time_seconds",
		Help:      "Unix timestamp when the scheduler process started.",
	})

	// Ops surface HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dtw_scheduler",
		Name:      "http_request_duration_seconds",
		Help:      "Ops surface HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtw_scheduler",
		Name:      "http_requests_total",
		Help:      "Total ops surface HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		TickDuration,
		TickSkippedTotal,
		DTWsPlacedTotal,
		CronTriggersAdvancedTotal,
		PriceOracleUnavailableTotal,
		SolverNoCandidateTotal,
		DispatchFailuresTotal,
		StartTime,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
