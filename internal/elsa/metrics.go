package elsa

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elsatrace",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Elsa API requests by operation and outcome (ok, HTTP status code, transport_error, decode_error).",
	}, []string{"operation", "outcome"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "elsatrace",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Latency of Elsa API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

func observe(op, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
