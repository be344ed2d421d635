package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecdf_pipeline_documents_total",
		Help: "Documents processed, labelled by gate readiness (or aborted).",
	}, []string{"readiness"})

	findingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecdf_pipeline_findings_total",
		Help: "Candidate findings seen and accepted by the opportunity gate.",
	}, []string{"outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecdf_pipeline_stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

func observeStage(stage string, started time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}
