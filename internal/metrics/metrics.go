// Package metrics provides Prometheus metrics for notion-digest.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AggregationsTotal counts aggregation requests by outcome.
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notiondigest",
			Name:      "aggregations_total",
			Help:      "Total number of aggregation requests",
		},
		[]string{"status", "filtered"},
	)

	// AggregationDuration measures end-to-end aggregation time.
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "notiondigest",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of aggregation requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// ItemsAggregated counts pages turned into payload items.
	ItemsAggregated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notiondigest",
			Name:      "items_aggregated_total",
			Help:      "Total number of pages emitted as payload items",
		},
	)

	// PagesRejected counts pages dropped by the date overlap post-filter.
	PagesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notiondigest",
			Name:      "pages_rejected_total",
			Help:      "Total number of returned pages rejected by the date overlap check",
		},
	)

	// SubCollectionsSkipped counts data sources skipped for lack of an anchor.
	SubCollectionsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notiondigest",
			Name:      "subcollections_skipped_total",
			Help:      "Total number of data sources skipped because no date anchor could be resolved",
		},
	)

	// NotionRequestsTotal counts Notion API calls by operation and result.
	NotionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notiondigest",
			Name:      "notion_requests_total",
			Help:      "Total number of Notion API requests",
		},
		[]string{"operation", "status"},
	)
)

// RecordAggregation records one finished aggregation request.
func RecordAggregation(status string, filtered bool, items int, seconds float64) {
	f := "false"
	if filtered {
		f = "true"
	}
	AggregationsTotal.WithLabelValues(status, f).Inc()
	AggregationDuration.Observe(seconds)
	ItemsAggregated.Add(float64(items))
}

// RecordNotionRequest records one Notion API call.
func RecordNotionRequest(operation, status string) {
	NotionRequestsTotal.WithLabelValues(operation, status).Inc()
}
