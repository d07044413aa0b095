package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "equipviz"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "summary", "submissions_total"),
		Help: "Summary submissions by outcome category",
	}, []string{"result"})
	SubmissionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "summary", "submission_duration_seconds"),
		Help:    "Duration of parse, validate, aggregate and persist in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{})
	SubmissionRows = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "summary", "rows"),
		Help:    "Number of data rows per accepted submission",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{})
	HistoryEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "history", "evictions_total"),
		Help: "Summary records evicted to keep the history bounded",
	})
	HistoryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "history", "cache_lookups_total"),
		Help: "History cache lookups by outcome",
	}, []string{"outcome"})
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "summary", "side_effect_failures_total"),
		Help: "Failed best-effort side effects of accepted submissions",
	}, []string{"effect"})
)
