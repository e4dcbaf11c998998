package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	Turns            *prometheus.CounterVec
	TurnLatency      *prometheus.HistogramVec
	PaymentOutcomes  *prometheus.CounterVec
	OrderValue       prometheus.Histogram
	SideEffectErrors *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec

	registry *prometheus.Registry
	agents   *latencyWindow
}

// NewMetrics registers instruments on a private registry so several instances
// can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active shopping sessions.",
		}),
		SessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by classified intent and answering agent.",
		}, []string{"intent", "agent"}),
		TurnLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Turn processing latency in milliseconds by agent.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"agent"}),
		PaymentOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_attempts_total",
			Help:      "Payment attempts by method and result.",
		}, []string{"method", "result"}),
		OrderValue: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_rupees",
			Help:      "Final charged amount of settled orders.",
			Buckets:   []float64{500, 1000, 2000, 3000, 5000, 10000, 20000, 50000},
		}),
		SideEffectErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_side_effect_errors_total",
			Help:      "Failed best-effort settlement side effects by sink.",
		}, []string{"sink"}),
		WSMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		registry: reg,
		agents:   newLatencyWindow(256),
	}
}

func (m *Metrics) ObserveTurn(intent, agent string, d time.Duration) {
	ms := float64(d.Microseconds()) / 1000
	m.Turns.WithLabelValues(intent, agent).Inc()
	m.TurnLatency.WithLabelValues(agent).Observe(ms)
	m.agents.Observe(agent, ms)
	m.agents.ObserveIntent(intent)
}

func (m *Metrics) ObservePayment(method string, success bool) {
	result := "declined"
	if success {
		result = "success"
	}
	m.PaymentOutcomes.WithLabelValues(method, result).Inc()
}

func (m *Metrics) ObserveOrder(total int) {
	m.OrderValue.Observe(float64(total))
}

func (m *Metrics) ObserveSideEffectError(sink string) {
	m.SideEffectErrors.WithLabelValues(sink).Inc()
}

// SnapshotAgents reports recent per-agent latency percentiles and intent counts.
func (m *Metrics) SnapshotAgents() AgentLatencySnapshot {
	return m.agents.Snapshot()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
