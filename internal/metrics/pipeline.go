// Package metrics holds Prometheus collectors for the search pipeline
// and HTTP layer. Registration is explicit from main, no init() side
// effects for pipeline metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline and provider Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snapfind",
			Name:      "search_requests_total",
			Help:      "Total number of image search pipeline executions",
		},
		[]string{"outcome"}, // "success" / "empty" / "error"
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "snapfind",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"stage"}, // "extract" / "retrieve" / "score" / "rerank"
	)

	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snapfind",
			Name:      "fallbacks_total",
			Help:      "Total degradation paths taken by the pipeline",
		},
		[]string{"kind"}, // "vision_retry" / "rerank" / "broad_retrieval"
	)

	RetrievalPlanTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snapfind",
			Name:      "retrieval_plan_total",
			Help:      "Candidate retrievals by ladder plan tag",
		},
		[]string{"plan"},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snapfind",
			Name:      "provider_requests_total",
			Help:      "Total calls to external model providers",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "snapfind",
			Name:      "provider_request_duration_seconds",
			Help:      "External model call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"provider", "operation"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(FallbacksTotal)
	prometheus.MustRegister(RetrievalPlanTotal)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	pipelineMetricsRegistered = true
}
