package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultEmpty   = "empty"
)

type IndexMetrics struct {
	SyncTotal    *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec
}

type GeocodingMetrics struct {
	RequestsTotal *prometheus.CounterVec
}

type EventMetrics struct {
	PublishedTotal *prometheus.CounterVec
	ConsumedTotal  *prometheus.CounterVec
}

var (
	Index = IndexMetrics{
		SyncTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_index_sync_total",
				Help: "Total number of search index synchronizations by result.",
			},
			[]string{"result"},
		),
		SyncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_index_sync_duration_seconds",
				Help:    "Histogram of search index upsert latencies.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"result"},
		),
	}

	Geocoding = GeocodingMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocoding_requests_total",
				Help: "Total number of geocoding lookups by result.",
			},
			[]string{"result"},
		),
	}

	Events = EventMetrics{
		PublishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_events_published_total",
				Help: "Total number of customer events published by routing key and result.",
			},
			[]string{"routing_key", "result"},
		),
		ConsumedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_events_consumed_total",
				Help: "Total number of customer events consumed by routing key and result.",
			},
			[]string{"routing_key", "result"},
		),
	}
)

func RecordIndexSync(result string, duration time.Duration) {
	Index.SyncTotal.WithLabelValues(result).Inc()
	Index.SyncDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func RecordGeocoding(result string) {
	Geocoding.RequestsTotal.WithLabelValues(result).Inc()
}

func RecordEventPublished(routingKey, result string) {
	Events.PublishedTotal.WithLabelValues(routingKey, result).Inc()
}

func RecordEventConsumed(routingKey, result string) {
	Events.ConsumedTotal.WithLabelValues(routingKey, result).Inc()
}
