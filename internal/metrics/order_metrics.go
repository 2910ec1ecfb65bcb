package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций для label "result".
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultForbidden = "forbidden"
)

// OrderMetrics содержит метрики операций над заказами.
type OrderMetrics struct {
	// Счётчики операций по типу и результату
	operations *prometheus.CounterVec
	// Гистограмма времени выполнения операций
	duration *prometheus.HistogramVec
	// Отказы политики доступа по действию
	denials *prometheus.CounterVec

	ordersApproved prometheus.Counter
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
}

// NewOrderMetrics создаёт метрики заказов в реестре по умолчанию.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer создаёт метрики заказов в заданном реестре.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	return &OrderMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "appliances_order_operations_total",
			Help: "Total number of order operations grouped by operation and result",
		}, []string{"operation", "result"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "appliances_order_operation_duration_seconds",
			Help:    "Duration of order operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		denials: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "appliances_order_access_denied_total",
			Help: "Total number of order operations denied by access policy",
		}, []string{"action", "role"}),
		ordersApproved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "appliances_orders_approved_total",
			Help: "Total number of approved orders",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "appliances_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "appliances_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
	}
}

// RecordOperation фиксирует результат и длительность операции.
func (m *OrderMetrics) RecordOperation(operation string, err error, duration time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDenied увеличивает счётчик отказов политики.
func (m *OrderMetrics) RecordDenied(action, role string) {
	m.operations.WithLabelValues(action, ResultForbidden).Inc()
	m.denials.WithLabelValues(action, role).Inc()
}

// RecordApproved увеличивает счётчик одобренных заказов.
func (m *OrderMetrics) RecordApproved() {
	m.ordersApproved.Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
