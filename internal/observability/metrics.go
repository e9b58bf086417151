package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tug_backend",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
	feedProjectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tug_backend",
		Subsystem: "feed",
		Name:      "last_item_projected_timestamp_seconds",
		Help:      "Unix timestamp of the most recent feed item materialized by the worker.",
	})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, feedProjectedGauge)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordFeedProjected updates the feed projection watermark gauge.
func RecordFeedProjected(ts time.Time) {
	if ts.IsZero() {
		return
	}
	feedProjectedGauge.Set(float64(ts.Unix()))
}
