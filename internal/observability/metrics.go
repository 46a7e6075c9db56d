package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedMergeLatency records end-to-end feed merge latency per viewer request.
	FeedMergeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gamelog_feed_merge_latency_seconds",
		Help:    "Latency of a full feed merge (fan-out, merge, paginate)",
		Buckets: prometheus.DefBuckets,
	})

	// FeedSourceFetchLatency records per-source fetch latency during fan-out.
	FeedSourceFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamelog_feed_source_fetch_latency_seconds",
		Help:    "Latency of a single activity source fetch",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// FeedDegradedTotal counts feed pages served without all sources.
	FeedDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelog_feed_degraded_total",
		Help: "Total feed pages assembled with at least one timed-out source",
	}, []string{"source"})

	// RatingRecomputeTotal counts aggregate recomputations by trigger.
	RatingRecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelog_rating_recompute_total",
		Help: "Total game rating aggregate recomputations by trigger",
	}, []string{"trigger"})

	// FollowMutationsTotal counts follow graph mutations by operation and outcome.
	FollowMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamelog_follow_mutations_total",
		Help: "Total follow graph mutations by operation and outcome",
	}, []string{"operation", "outcome"})
)

// ObserveSourceFetch records the latency of one activity source fetch.
func ObserveSourceFetch(source string, start time.Time) {
	FeedSourceFetchLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
