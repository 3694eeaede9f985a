// Package metrics holds the Prometheus collectors for the review pipeline.
//
// Failures are counted per stage so operators can tell "the model produced
// bad output" (decode) apart from "storage is down" (persist) without reading
// logs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages used as the "stage" label.
const (
	StageIdentity = "identity"
	StageModel    = "model"
	StageDecode   = "decode"
	StagePersist  = "persist"
)

var (
	// ReviewsTotal counts finished review requests by result.
	ReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codereview_reviews_total",
		Help: "Review requests by result (success or failure).",
	}, []string{"result"})

	// PipelineFailures counts aborted review requests by failing stage.
	PipelineFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codereview_pipeline_failures_total",
		Help: "Aborted review requests by pipeline stage.",
	}, []string{"stage"})

	// ModelDuration tracks generative model latency.
	ModelDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codereview_model_generate_duration_seconds",
		Help:    "Model generate call duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
	})
)

// RecordFailure increments the failure counters for stage.
func RecordFailure(stage string) {
	PipelineFailures.WithLabelValues(stage).Inc()
	ReviewsTotal.WithLabelValues("failure").Inc()
}

// RecordSuccess increments the success counter.
func RecordSuccess() {
	ReviewsTotal.WithLabelValues("success").Inc()
}
