package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cribbage",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cribbage",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	tableSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cribbage",
			Subsystem: "table",
			Name:      "sessions",
			Help:      "Sessions registered with the orchestrator by state.",
		},
		[]string{"state"},
	)
	tableMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cribbage",
			Subsystem: "table",
			Name:      "messages_total",
			Help:      "Messages exchanged between the orchestrator and sessions.",
		},
		[]string{"direction", "kind"},
	)
	tableRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cribbage",
			Subsystem: "table",
			Name:      "rejections_total",
			Help:      "Inputs answered with an error reply.",
		},
		[]string{"reason"},
	)
	tableAckWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cribbage",
			Subsystem: "table",
			Name:      "ack_wait_seconds",
			Help:      "Time spent waiting for a session acknowledgment.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)
	tablePhases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cribbage",
			Subsystem: "table",
			Name:      "phase_transitions_total",
			Help:      "Rules engine phases entered.",
		},
		[]string{"phase"},
	)
	wireFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cribbage",
			Subsystem: "wire",
			Name:      "frames_total",
			Help:      "Frames read or written by session adapters.",
		},
		[]string{"direction", "kind"},
	)
	wireFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cribbage",
			Subsystem: "wire",
			Name:      "failures_total",
			Help:      "Session adapter transport failures.",
		},
		[]string{"stage"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			tableSessions, tableMessages, tableRejections, tableAckWait, tablePhases,
			wireFrames, wireFailures,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// SetSessionStates replaces the per-state session gauge.
func SetSessionStates(counts map[string]int) {
	RegisterMetrics()
	tableSessions.Reset()
	for state, n := range counts {
		tableSessions.WithLabelValues(state).Set(float64(n))
	}
}

func RecordMessage(direction, kind string) {
	RegisterMetrics()
	tableMessages.WithLabelValues(direction, kind).Inc()
}

func RecordRejection(reason string) {
	RegisterMetrics()
	tableRejections.WithLabelValues(reason).Inc()
}

func ObserveAckWait(d time.Duration) {
	RegisterMetrics()
	tableAckWait.Observe(d.Seconds())
}

func RecordPhase(phase string) {
	RegisterMetrics()
	tablePhases.WithLabelValues(phase).Inc()
}

func RecordFrame(direction, kind string) {
	RegisterMetrics()
	wireFrames.WithLabelValues(direction, kind).Inc()
}

func RecordWireFailure(stage string) {
	RegisterMetrics()
	wireFailures.WithLabelValues(stage).Inc()
}
