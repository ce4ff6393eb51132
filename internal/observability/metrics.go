// Package observability exposes prometheus metrics for port traffic.
package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure kinds used as the kind label of erlport_failures_total.
const (
	FailureRead           = "read"
	FailureDecode         = "decode"
	FailureUnknownCommand = "unknown_command"
	FailureHandler        = "handler"
	FailureEncode         = "encode"
	FailureWrite          = "write"
	FailureTrace          = "trace"
)

var (
	registerOnce sync.Once

	messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erlport",
			Name:      "messages_total",
			Help:      "Port messages by direction.",
		},
		[]string{"direction"},
	)
	messageBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "erlport",
			Name:      "message_bytes",
			Help:      "Size of port messages in bytes, length prefix excluded.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"direction"},
	)
	failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erlport",
			Name:      "failures_total",
			Help:      "Failures while serving the port, by kind.",
		},
		[]string{"kind"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "erlport",
			Name:      "command_duration_seconds",
			Help:      "Time spent in command handlers.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)

// RegisterMetrics registers the erlport collectors with the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(messages, messageBytes, failures, commandDuration)
	})
}

// RecordMessage counts one message of size bytes travelling in direction.
func RecordMessage(direction string, size int) {
	RegisterMetrics()
	messages.WithLabelValues(direction).Inc()
	messageBytes.WithLabelValues(direction).Observe(float64(size))
}

// RecordFailure counts one failure of kind, one of the Failure* constants.
func RecordFailure(kind string) {
	RegisterMetrics()
	failures.WithLabelValues(kind).Inc()
}

// RecordCommand observes how long the handler of command ran.
func RecordCommand(command int32, duration time.Duration) {
	RegisterMetrics()
	commandDuration.WithLabelValues(strconv.FormatInt(int64(command), 10)).Observe(duration.Seconds())
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
