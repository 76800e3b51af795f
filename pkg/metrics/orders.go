package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "orderdesk"

// OrderMetrics records order persistence and hand-off outcomes.
type OrderMetrics struct {
	saved      *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	amount     prometheus.Histogram
	sessions   prometheus.Gauge
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	saved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_saved_total",
		Help:      "Order saves by result.",
	}, []string{"result"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_total",
		Help:      "Order hand-offs by channel and result.",
	}, []string{"channel", "result"})
	amount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "delivered_order_amount",
		Help:      "Total amount of delivered orders.",
		Buckets:   []float64{50, 100, 200, 350, 500, 1000, 2000},
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Order sessions currently held in memory.",
	})
	reg.MustRegister(saved, deliveries, amount, sessions)
	return &OrderMetrics{
		saved:      saved,
		deliveries: deliveries,
		amount:     amount,
		sessions:   sessions,
	}
}

// ObserveSave counts a store write.
func (m *OrderMetrics) ObserveSave(err error) {
	if m == nil || m.saved == nil {
		return
	}
	m.saved.WithLabelValues(resultLabel(err)).Inc()
}

// ObserveDelivered counts a confirmed hand-off and records its amount.
func (m *OrderMetrics) ObserveDelivered(channel string, total decimal.Decimal) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(channel), "delivered").Inc()
	m.amount.Observe(total.InexactFloat64())
}

// ObserveDeliveryFailed counts an aborted hand-off.
func (m *OrderMetrics) ObserveDeliveryFailed(channel string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(channel), "failed").Inc()
}

// SetActiveSessions publishes the registry size.
func (m *OrderMetrics) SetActiveSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
