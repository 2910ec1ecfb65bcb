package metrics

import "github.com/prometheus/client_golang/prometheus"

// Результаты попыток входа.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
	LoginBlocked = "blocked"
)

// AuthMetrics содержит метрики аутентификации.
type AuthMetrics struct {
	logins          *prometheus.CounterVec
	cleanupRuns     prometheus.Counter
	cleanupFailures prometheus.Counter
	cleanupRemoved  prometheus.Counter
}

// NewAuthMetrics создаёт метрики аутентификации в реестре по умолчанию.
func NewAuthMetrics() *AuthMetrics {
	return NewAuthMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewAuthMetricsWithRegisterer создаёт метрики аутентификации в заданном реестре.
func NewAuthMetricsWithRegisterer(registerer prometheus.Registerer) *AuthMetrics {
	return &AuthMetrics{
		logins: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "appliances_login_attempts_total",
			Help: "Total number of login attempts grouped by result",
		}, []string{"result"}),
		cleanupRuns: registerCounter(registerer, prometheus.CounterOpts{
			Name: "appliances_login_attempts_cleanup_runs_total",
			Help: "Total number of login attempt cleanup runs",
		}),
		cleanupFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "appliances_login_attempts_cleanup_failures_total",
			Help: "Total number of failed login attempt cleanup runs",
		}),
		cleanupRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "appliances_login_attempts_cleanup_removed_total",
			Help: "Total number of expired login attempt counters removed",
		}),
	}
}

// RecordLogin фиксирует результат попытки входа.
func (m *AuthMetrics) RecordLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// RecordCleanup фиксирует прогон очистки счётчиков попыток.
func (m *AuthMetrics) RecordCleanup(removed int, err error) {
	m.cleanupRuns.Inc()
	if err != nil {
		m.cleanupFailures.Inc()
		return
	}
	m.cleanupRemoved.Add(float64(removed))
}
