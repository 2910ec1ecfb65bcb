package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestOrderMetrics_RecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetricsWithRegisterer(reg)

	m.RecordOperation("create", nil, 10*time.Millisecond)
	m.RecordOperation("create", errors.New("boom"), time.Millisecond)
	m.RecordDenied("update", "CLIENT")

	if got := counterValue(t, m.operations.WithLabelValues("create", ResultSuccess)); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := counterValue(t, m.operations.WithLabelValues("create", ResultError)); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := counterValue(t, m.denials.WithLabelValues("update", "CLIENT")); got != 1 {
		t.Fatalf("expected 1 denial, got %v", got)
	}
}

func TestOrderMetrics_Counters(t *testing.T) {
	m := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordApproved()
	m.RecordTimelineEvent()
	m.RecordTimelineEvent()
	m.RecordOutboxEvent()

	if got := counterValue(t, m.ordersApproved); got != 1 {
		t.Fatalf("expected approved=1, got %v", got)
	}
	if got := counterValue(t, m.timelineEvents); got != 2 {
		t.Fatalf("expected timeline=2, got %v", got)
	}
	if got := counterValue(t, m.outboxEvents); got != 1 {
		t.Fatalf("expected outbox=1, got %v", got)
	}
}

func TestRegister_ReusesExistingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewOrderMetricsWithRegisterer(reg)
	second := NewOrderMetricsWithRegisterer(reg)

	first.RecordApproved()
	if got := counterValue(t, second.ordersApproved); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}

func TestRegister_PanicsOnTypeMismatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appliances_order_operations_total",
		Help: "Total number of order operations grouped by operation and result",
	}))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on collector type mismatch")
		}
	}()
	NewOrderMetricsWithRegisterer(reg)
}

func TestAuthMetrics(t *testing.T) {
	m := NewAuthMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordLogin(LoginBlocked)
	m.RecordCleanup(3, nil)
	m.RecordCleanup(0, errors.New("redis down"))

	if got := counterValue(t, m.logins.WithLabelValues(LoginBlocked)); got != 1 {
		t.Fatalf("expected blocked=1, got %v", got)
	}
	if got := counterValue(t, m.cleanupRuns); got != 2 {
		t.Fatalf("expected runs=2, got %v", got)
	}
	if got := counterValue(t, m.cleanupFailures); got != 1 {
		t.Fatalf("expected failures=1, got %v", got)
	}
	if got := counterValue(t, m.cleanupRemoved); got != 3 {
		t.Fatalf("expected removed=3, got %v", got)
	}
}

func TestHTTPMetrics(t *testing.T) {
	m := NewHTTPMetricsWithRegisterer(prometheus.NewRegistry())

	m.RequestStarted()
	if got := gaugeValue(t, m.inFlight); got != 1 {
		t.Fatalf("expected in-flight=1, got %v", got)
	}
	m.RequestFinished("GET", "/orders/{id}", 200, 5*time.Millisecond)

	if got := gaugeValue(t, m.inFlight); got != 0 {
		t.Fatalf("expected in-flight=0, got %v", got)
	}
	if got := counterValue(t, m.requests.WithLabelValues("GET", "/orders/{id}", "200")); got != 1 {
		t.Fatalf("expected requests=1, got %v", got)
	}
}

func TestOutboxMetrics_Backlog(t *testing.T) {
	m := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	m.SetBacklog(3, now.Add(-90*time.Second), now)
	if got := gaugeValue(t, m.pending); got != 3 {
		t.Fatalf("expected pending=3, got %v", got)
	}
	if got := gaugeValue(t, m.oldestPending); got != 90 {
		t.Fatalf("expected age=90s, got %v", got)
	}

	m.SetBacklog(1, now.Add(time.Minute), now)
	if got := gaugeValue(t, m.oldestPending); got != 0 {
		t.Fatalf("future timestamp must clamp to 0, got %v", got)
	}

	m.SetBacklog(0, time.Time{}, now)
	if got := gaugeValue(t, m.pending); got != 0 {
		t.Fatalf("expected empty backlog, got %v", got)
	}

	m.RecordPublish(PublishSent)
	m.RecordPublish(PublishSent)
	if got := counterValue(t, m.attempts.WithLabelValues(PublishSent)); got != 2 {
		t.Fatalf("expected 2 sent attempts, got %v", got)
	}
}
