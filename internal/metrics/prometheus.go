package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	RequestsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_requests_processed_total",
			Help: "Total number of institutional requests processed",
		},
		[]string{"decision", "priority"},
	)

	RequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_request_duration_seconds",
			Help:    "End-to-end pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_requests_in_flight",
			Help: "Whether an institutional request is currently being processed",
		},
	)

	// Workflow metrics
	WorkflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_workflow_runs_total",
			Help: "Total number of agent workflow runs",
		},
		[]string{"agent", "status"}, // status: completed|failed
	)

	WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aegis_workflow_duration_seconds",
			Help:    "Agent workflow duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"agent"},
	)

	// Collaboration metrics
	BusMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_bus_messages_total",
			Help: "Total number of collaboration messages posted",
		},
		[]string{"from_agent", "message_type"},
	)

	// Provider metrics
	ProviderFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_provider_fetches_total",
			Help: "Total number of external data provider fetches",
		},
		[]string{"provider", "status"}, // status: success|error|timeout
	)

	// Ledger metrics
	LedgerEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_ledger_entries_total",
			Help: "Total number of simulated transactions appended to the ledger",
		},
	)

	// WebSocket metrics
	StatusStreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_status_stream_clients",
			Help: "Current number of connected status stream clients",
		},
	)
)

// Init registers all metrics with the default registry
func Init() {
	prometheus.MustRegister(RequestsProcessed)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RequestsInFlight)

	prometheus.MustRegister(WorkflowRuns)
	prometheus.MustRegister(WorkflowDuration)

	prometheus.MustRegister(BusMessages)
	prometheus.MustRegister(ProviderFetches)
	prometheus.MustRegister(LedgerEntries)
	prometheus.MustRegister(StatusStreamClients)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkflow records one agent workflow run
func RecordWorkflow(agent string, duration time.Duration, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}

	WorkflowRuns.WithLabelValues(agent, status).Inc()
	WorkflowDuration.WithLabelValues(agent).Observe(duration.Seconds())
}
