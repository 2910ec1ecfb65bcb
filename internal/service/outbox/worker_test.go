package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/metrics"
	"github.com/vladislavdragonenkov/appliances/internal/service/order"
	"github.com/vladislavdragonenkov/appliances/internal/storage/memory"
)

func orderEvent(id, orderID, eventType string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       []byte(`{"order_id":` + orderID + `}`),
	}
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-1", "1", domain.EventOrderApproved)}}
	publisher := &stubPublisher{}

	result := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMetrics(testMetrics())).
		ProcessOnce(context.Background())

	if result.Sent != 1 || result.DeadLettered != 0 || result.Deferred != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(repo.sentIDs) != 1 || repo.sentIDs[0] != "msg-1" {
		t.Fatalf("expected msg-1 to be marked sent, got %v", repo.sentIDs)
	}
	if got := publisher.calls(); got != 1 {
		t.Fatalf("expected 1 publish call, got %d", got)
	}
}

func TestWorker_ProcessOnce_DeadLettersAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-2", "2", domain.EventOrderDeleted)}}
	publisher := &stubPublisher{err: errors.New("broker down")}
	dlq := &stubPublisher{}

	result := NewWorker(
		repo,
		publisher,
		WithDLQPublisher(dlq),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
		WithMetrics(testMetrics()),
	).ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if result.DeadLettered != 1 || len(repo.failedIDs) != 1 || repo.failedIDs[0] != "msg-2" {
		t.Fatalf("expected msg-2 to be dead-lettered, result %+v failed %v", result, repo.failedIDs)
	}
	if dlq.calls() != 1 {
		t.Fatalf("expected 1 DLQ publish, got %d", dlq.calls())
	}

	var payload deadLetterPayload
	if err := json.Unmarshal(dlq.last.Payload, &payload); err != nil {
		t.Fatalf("decode dlq payload: %v", err)
	}
	if payload.OutboxID != "msg-2" || payload.OrderID != "2" || payload.EventType != domain.EventOrderDeleted {
		t.Fatalf("unexpected dlq payload: %+v", payload)
	}
	if payload.Reason != ReasonPublishFailed || !strings.Contains(payload.Error, "broker down") {
		t.Fatalf("expected publish failure in dlq payload, got %+v", payload)
	}
	if string(payload.Payload) != `{"order_id":2}` {
		t.Fatalf("expected original event body in dlq payload, got %s", payload.Payload)
	}
	if dlq.last.AggregateID != "2" {
		t.Fatalf("dlq message must keep the order key, got %q", dlq.last.AggregateID)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-3", "3", domain.EventOrderUpdated)}}
	publisher := &stubPublisher{sequence: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil}}

	result := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3), WithMetrics(testMetrics())).
		ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if result.Sent != 1 || len(repo.failedIDs) != 0 {
		t.Fatalf("expected delivery on third attempt, result %+v failed %v", result, repo.failedIDs)
	}
}

func TestWorker_ProcessOnce_MalformedEventSkipsRetries(t *testing.T) {
	t.Parallel()

	unknownType := orderEvent("msg-5", "5", "order.shipped")
	badID := orderEvent("msg-6", "not-a-number", domain.EventOrderCreated)
	foreign := orderEvent("msg-7", "7", domain.EventOrderCreated)
	foreign.AggregateType = "payment"

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{unknownType, badID, foreign}}
	publisher := &stubPublisher{}
	dlq := &stubPublisher{}

	result := NewWorker(repo, publisher, WithDLQPublisher(dlq), WithRetryBaseDelay(0), WithMetrics(testMetrics())).
		ProcessOnce(context.Background())

	if publisher.calls() != 0 {
		t.Fatalf("malformed events must not reach the broker, got %d calls", publisher.calls())
	}
	if result.DeadLettered != 3 || len(repo.failedIDs) != 3 || dlq.calls() != 3 {
		t.Fatalf("expected 3 dead-lettered events, result %+v dlq %d", result, dlq.calls())
	}

	var payload deadLetterPayload
	if err := json.Unmarshal(dlq.last.Payload, &payload); err != nil {
		t.Fatalf("decode dlq payload: %v", err)
	}
	if payload.Reason != ReasonMalformed {
		t.Fatalf("expected reason %q, got %q", ReasonMalformed, payload.Reason)
	}
}

func TestWorker_ProcessOnce_DefersLaterEventsOfFailedOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{
		orderEvent("created-1", "1", domain.EventOrderCreated),
		orderEvent("created-2", "2", domain.EventOrderCreated),
		orderEvent("approved-1", "1", domain.EventOrderApproved),
		orderEvent("approved-2", "2", domain.EventOrderApproved),
	}}
	publisher := &stubPublisher{failFor: map[string]error{"1": errors.New("partition offline")}}

	result := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(2), WithMetrics(testMetrics())).
		ProcessOnce(context.Background())

	if result.Sent != 2 || result.DeadLettered != 1 || result.Deferred != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if strings.Join(repo.sentIDs, ",") != "created-2,approved-2" {
		t.Fatalf("expected order 2 events in sequence, got %v", repo.sentIDs)
	}
	if len(repo.failedIDs) != 1 || repo.failedIDs[0] != "created-1" {
		t.Fatalf("expected only created-1 to fail, got %v", repo.failedIDs)
	}
	for _, msg := range publisher.published() {
		if msg.ID == "approved-1" {
			t.Fatal("approved-1 must wait for the next cycle")
		}
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(
		&stubOutboxRepo{},
		&stubPublisher{},
		WithPollInterval(5*time.Millisecond),
		WithMetrics(testMetrics()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestWorker_RetryDelayDoublesUpToCap(t *testing.T) {
	t.Parallel()

	worker := NewWorker(nil, nil, WithRetryBaseDelay(10*time.Millisecond), WithMetrics(testMetrics()))
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	for i, expected := range want {
		if got := worker.retryDelay(i + 1); got != expected {
			t.Fatalf("retry %d: expected %s, got %s", i+1, expected, got)
		}
	}
	if got := worker.retryDelay(64); got != maxRetryDelay {
		t.Fatalf("expected delay capped at %s, got %s", maxRetryDelay, got)
	}
}

func TestWorker_DeliversOrderLifecycleFromMemoryStore(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	manufacturer := domain.Manufacturer{Name: "Bosch", Address: "Robert-Bosch-Platz 1", Country: "Germany"}
	if err := store.Manufacturers().Create(ctx, &manufacturer); err != nil {
		t.Fatalf("create manufacturer: %v", err)
	}
	appliance := domain.Appliance{
		Name: "Kettle", Category: domain.CategorySmall, Model: "TWK", Manufacturer: manufacturer,
		PowerType: domain.PowerTypeAC220, Price: decimal.RequireFromString("29.90"),
	}
	if err := store.Appliances().Create(ctx, &appliance); err != nil {
		t.Fatalf("create appliance: %v", err)
	}
	client := domain.Client{User: domain.User{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com"}}
	if err := store.Clients().Create(ctx, &client); err != nil {
		t.Fatalf("create client: %v", err)
	}
	employee := domain.Employee{User: domain.User{FirstName: "Ivan", LastName: "Petrenko", Email: "ivan@example.com"}}
	if err := store.Employees().Create(ctx, &employee); err != nil {
		t.Fatalf("create employee: %v", err)
	}

	guard := order.NewGuard(order.NewService(
		store.Orders(), store.Appliances(), store.Clients(), store.Employees(),
		order.WithMetrics(metrics.NewOrderMetricsWithRegisterer(prometheus.NewRegistry())),
	))
	created, err := guard.Create(ctx, domain.ClientIdentity(client), order.Input{
		ClientID: client.ID,
		Lines:    []order.LineInput{{ApplianceID: appliance.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := guard.Approve(ctx, domain.EmployeeIdentity(employee), created.ID); err != nil {
		t.Fatalf("approve order: %v", err)
	}

	publisher := &stubPublisher{}
	result := NewWorker(store.Outbox(), publisher, WithMetrics(testMetrics())).ProcessOnce(ctx)

	if result.Sent != 2 {
		t.Fatalf("expected 2 delivered events, got %+v", result)
	}
	published := publisher.published()
	if published[0].EventType != domain.EventOrderCreated || published[1].EventType != domain.EventOrderApproved {
		t.Fatalf("expected created then approved, got %s then %s", published[0].EventType, published[1].EventType)
	}
	var body struct {
		OrderID  int64 `json:"order_id"`
		Approved bool  `json:"approved"`
	}
	if err := json.Unmarshal(published[1].Payload, &body); err != nil {
		t.Fatalf("decode approved payload: %v", err)
	}
	if body.OrderID != created.ID || !body.Approved {
		t.Fatalf("unexpected approved payload: %+v", body)
	}
	if pending := store.Outbox().AllPending(); len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %d pending", len(pending))
	}
}

func testMetrics() *metrics.OutboxMetrics {
	return metrics.NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())
}

type stubOutboxRepo struct {
	pending   []domain.OutboxMessage
	sentIDs   []string
	failedIDs []string
}

func (s *stubOutboxRepo) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.OutboxMessage(nil), s.pending...), nil
	}
	return append([]domain.OutboxMessage(nil), s.pending[:limit]...), nil
}

func (s *stubOutboxRepo) Stats(_ context.Context) (domain.OutboxStats, error) {
	return domain.OutboxStats{PendingCount: len(s.pending)}, nil
}

func (s *stubOutboxRepo) MarkSent(_ context.Context, id string) error {
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(_ context.Context, id string) error {
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

// stubPublisher отвечает ошибкой err, затем по очереди из sequence;
// failFor задаёт ошибку для конкретного заказа.
type stubPublisher struct {
	mu       sync.Mutex
	err      error
	sequence []error
	failFor  map[string]error
	sent     []domain.OutboxMessage
	attempts int
	last     domain.OutboxMessage
}

func (s *stubPublisher) Publish(msg domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	s.last = msg
	err := s.err
	if len(s.sequence) > 0 {
		err, s.sequence = s.sequence[0], s.sequence[1:]
	}
	if orderErr, ok := s.failFor[msg.AggregateID]; ok {
		err = orderErr
	}
	if err == nil {
		s.sent = append(s.sent, msg)
	}
	return err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *stubPublisher) published() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxMessage(nil), s.sent...)
}

var _ domain.OutboxRepository = (*stubOutboxRepo)(nil)
var _ domain.OutboxPublisher = (*stubPublisher)(nil)
