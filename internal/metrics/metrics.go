package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LinesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logsentinel_lines_processed_total",
		Help: "Total number of log lines fed through the pipeline",
	})

	LinesUnparsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logsentinel_lines_unparsed_total",
		Help: "Lines no format descriptor matched (still routed to the classifier tier)",
	})

	AlertsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logsentinel_alerts_total",
		Help: "Alerts emitted, by category and pipeline tier",
	}, []string{"category", "tier"})

	Suppressions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logsentinel_suppressions_total",
		Help: "Classifier predictions suppressed by the confidence gate",
	})

	ClassifierErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logsentinel_classifier_errors_total",
		Help: "Failed classifier invocations (treated as suppressed)",
	})

	ConfidenceScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "logsentinel_confidence_scores",
		Help:    "Distribution of calibrated confidence scores",
		Buckets: prometheus.LinearBuckets(0, 0.1, 10),
	})
)

// StartServer exposes /metrics on the given address, blocking
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
