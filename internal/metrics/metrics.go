package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "events_ingested_total", Help: "Events accepted from ingestion adapters"},
		[]string{"source", "kind"},
	)
	RejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "events_rejected_total", Help: "Events dropped before scoring"},
		[]string{"reason"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Trade signals emitted"},
		[]string{"side", "reason"},
	)
	BackendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentiment_backend_errors_total", Help: "Failed sentiment backend calls"},
		[]string{"backend"},
	)
	PersistFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "persist_failures_total", Help: "Sentiment rows that failed to insert"},
	)
	PublishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "publish_failures_total", Help: "Live-state publishes that failed"},
	)
	ProcessSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_process_seconds",
			Help:    "End-to-end latency of one pipeline run",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2.5},
		},
	)
)

func init() {
	prometheus.MustRegister(
		EventsTotal,
		RejectsTotal,
		SignalsTotal,
		BackendErrorsTotal,
		PersistFailuresTotal,
		PublishFailuresTotal,
		ProcessSeconds,
	)
}

// Serve exposes /metrics on addr and returns the server for shutdown wiring.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
