// Package metrics exposes Prometheus metrics for escrow transitions and
// JSON-RPC requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "klingswap"

// Metrics holds a private registry and the collectors registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	openEscrows prometheus.Gauge
	rpcRequests *prometheus.CounterVec
	rpcLatency  *prometheus.HistogramVec
}

// New creates the metrics registry.
func New() *Metrics {
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "escrow",
		Name:      "transitions_total",
		Help:      "Escrow transitions attempted, by operation and result.",
	}, []string{"op", "result"})

	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "escrow",
		Name:      "rejected_total",
		Help:      "Rejected escrow transitions, by operation and error kind.",
	}, []string{"op", "kind"})

	open := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "escrow",
		Name:      "open",
		Help:      "Number of open escrows.",
	})

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "JSON-RPC requests, by method and outcome.",
	}, []string{"method", "outcome"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "JSON-RPC handler latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	r := prometheus.NewRegistry()
	r.MustRegister(transitions, rejected, open, requests, latency)

	return &Metrics{
		registry:    r,
		transitions: transitions,
		rejected:    rejected,
		openEscrows: open,
		rpcRequests: requests,
		rpcLatency:  latency,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetOpenEscrows sets the open-escrow gauge, used at startup.
func (m *Metrics) SetOpenEscrows(n int) {
	if m == nil {
		return
	}
	m.openEscrows.Set(float64(n))
}

// ObserveTransition implements escrow.Observer.
func (m *Metrics) ObserveTransition(op escrow.Op, err error) {
	if m == nil {
		return
	}
	if err != nil {
		kind := "internal"
		if k, ok := escrow.KindOf(err); ok {
			kind = k.String()
		}
		m.transitions.WithLabelValues(string(op), "rejected").Inc()
		m.rejected.WithLabelValues(string(op), kind).Inc()
		return
	}
	m.transitions.WithLabelValues(string(op), "committed").Inc()
	switch op {
	case escrow.OpMake:
		m.openEscrows.Inc()
	case escrow.OpTake, escrow.OpRefund:
		m.openEscrows.Dec()
	}
}

// ObserveRequest records one JSON-RPC call.
func (m *Metrics) ObserveRequest(method string, failed bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(took.Seconds())
}
