package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Item Metrics
	ItemOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "item_operations_total",
			Help: "Total number of item operations",
		},
		[]string{"operation", "type"}, // capture, update, delete, pin, complete
	)

	// Metadata resolver metrics
	MetadataLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_lookups_total",
			Help: "Total number of metadata resolver lookups",
		},
		[]string{"kind", "outcome"}, // video/playlist, hit/miss/error/cache
	)

	// Authentication Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "type"}, // success/failure, login/refresh/2fa
	)

	TokenUsage = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_usage_total",
			Help: "Total number of tokens generated and revoked",
		},
		[]string{"token_type", "action"},
	)

	// Subscription Metrics
	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "item_stream_subscriptions",
			Help: "Current number of open item stream subscriptions",
		},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by category and reason",
		},
		[]string{"category", "reason"},
	)
)

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackItemOperation increments the item operation counter
func TrackItemOperation(operation, itemType string) {
	ItemOperationsTotal.WithLabelValues(operation, itemType).Inc()
}

// TrackTokenUsage records token issuance and revocation
func TrackTokenUsage(tokenType, action string) {
	TokenUsage.WithLabelValues(tokenType, action).Inc()
}

// TrackMetadataLookup records a resolver lookup outcome
func TrackMetadataLookup(kind, outcome string) {
	MetadataLookupsTotal.WithLabelValues(kind, outcome).Inc()
}

// TrackAuthAttempt records authentication attempts
func TrackAuthAttempt(status, authType string) {
	AuthAttempts.WithLabelValues(status, authType).Inc()
}

// TrackError increments the error counter
func TrackError(category, reason string) {
	ErrorsTotal.WithLabelValues(category, reason).Inc()
}
