// Package promstats mirrors a client.Connection's in-memory Statistics
// onto Prometheus collectors, grounded on
// piwi3910-netweave/internal/observability/metrics.go's promauto
// registration style. It is additive: the core Engine has no Prometheus
// import, and a caller that never constructs an Adapter pays nothing for
// it.
package promstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tony23/pywbem/client"
)

// Adapter snapshots a Connection's Statistics() on each Collect and exposes
// them as Prometheus collectors, keyed by CIM intrinsic method name.
type Adapter struct {
	conn *client.Connection

	operationsTotal  *prometheus.CounterVec
	exceptionsTotal  *prometheus.CounterVec
	clientTimeTotal  *prometheus.CounterVec
	serverTimeTotal  *prometheus.CounterVec
	requestBytesSum  *prometheus.CounterVec
	replyBytesSum    *prometheus.CounterVec
	lastClientLatMax *prometheus.GaugeVec

	observed map[string]client.MethodStats
}

// NewAdapter registers the Adapter's collectors under namespace (default
// "wbem" when empty) and binds it to conn. Collect must be called after
// each operation, or on a timer, to publish the latest counters.
func NewAdapter(namespace string, conn *client.Connection) *Adapter {
	if namespace == "" {
		namespace = "wbem"
	}
	return &Adapter{
		conn: conn,
		operationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total CIM intrinsic operations invoked, by method.",
		}, []string{"method"}),
		exceptionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_exceptions_total",
			Help:      "Total CIM intrinsic operations that raised an error, by method.",
		}, []string{"method"}),
		clientTimeTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_client_seconds_total",
			Help:      "Cumulative client-observed wall-clock time, by method.",
		}, []string{"method"}),
		serverTimeTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_server_seconds_total",
			Help:      "Cumulative WBEMServerResponseTime reported by the server, by method.",
		}, []string{"method"}),
		requestBytesSum: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_bytes_total",
			Help:      "Cumulative CIM-XML request body bytes sent, by method.",
		}, []string{"method"}),
		replyBytesSum: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_bytes_total",
			Help:      "Cumulative CIM-XML reply body bytes received, by method.",
		}, []string{"method"}),
		lastClientLatMax: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operation_client_seconds_max",
			Help:      "Maximum client-observed latency seen so far, by method.",
		}, []string{"method"}),
		observed: map[string]client.MethodStats{},
	}
}

// Collect publishes the delta between the Connection's current Statistics
// snapshot and the last one this Adapter observed. Counters only ever
// move forward, matching Statistics()'s own monotonic counters (the
// table accumulates for the connection's lifetime).
func (a *Adapter) Collect() {
	for method, cur := range a.conn.Statistics() {
		prev := a.observed[method]

		a.operationsTotal.WithLabelValues(method).Add(float64(cur.Count - prev.Count))
		a.exceptionsTotal.WithLabelValues(method).Add(float64(cur.ExceptionCount - prev.ExceptionCount))
		a.clientTimeTotal.WithLabelValues(method).Add((cur.ClientTimeSum - prev.ClientTimeSum).Seconds())
		a.serverTimeTotal.WithLabelValues(method).Add((cur.ServerTimeSum - prev.ServerTimeSum).Seconds())
		a.requestBytesSum.WithLabelValues(method).Add(float64(cur.RequestLenSum - prev.RequestLenSum))
		a.replyBytesSum.WithLabelValues(method).Add(float64(cur.ReplyLenSum - prev.ReplyLenSum))
		a.lastClientLatMax.WithLabelValues(method).Set(asSeconds(cur.ClientTimeMax))

		a.observed[method] = cur
	}
}

func asSeconds(d time.Duration) float64 { return d.Seconds() }
