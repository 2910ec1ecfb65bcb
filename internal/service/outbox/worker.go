// Package outbox доставляет события заказов из transactional outbox в брокер.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/metrics"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	maxRetryDelay         = 30 * time.Second
)

// Причины попадания сообщения в DLQ.
const (
	ReasonPublishFailed = "publish_failed"
	ReasonMalformed     = "malformed_event"
)

// errMalformed — сообщение не является событием заказа; повтор публикации его не исправит.
var errMalformed = errors.New("malformed order event")

var orderEventTypes = map[string]struct{}{
	domain.EventOrderCreated:  {},
	domain.EventOrderUpdated:  {},
	domain.EventOrderApproved: {},
	domain.EventOrderDeleted:  {},
}

// Option настраивает Worker.
type Option func(*Worker)

func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m *metrics.OutboxMetrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithDLQPublisher задаёт publisher для сообщений, которые не удалось доставить.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) { w.pollInterval = interval }
}

func WithBatchSize(size int) Option {
	return func(w *Worker) { w.batchSize = size }
}

// WithMaxAttempts задаёт число попыток публикации одного события.
func WithMaxAttempts(attempts int) Option {
	return func(w *Worker) { w.maxAttempts = attempts }
}

// WithRetryBaseDelay задаёт первую паузу между попытками; дальше она удваивается.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) { w.retryBaseDelay = delay }
}

// BatchResult — итог одного цикла доставки.
type BatchResult struct {
	Sent         int
	DeadLettered int
	// Deferred — события заказов, у которых в этом цикле уже была неудачная доставка.
	// Они остаются pending до следующего цикла.
	Deferred int
}

// Worker публикует события заказов. События одного заказа уходят в порядке
// записи: после неудачи остальные события этого заказа ждут следующего цикла.
type Worker struct {
	repo           domain.OutboxRepository
	publisher      domain.OutboxPublisher
	dlq            domain.OutboxPublisher
	metrics        *metrics.OutboxMetrics
	logger         *log.Entry
	now            func() time.Time
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewWorker создаёт worker; некорректные значения опций заменяются значениями по умолчанию.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:           repo,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(w)
	}

	if w.logger == nil {
		w.logger = log.WithField("component", "outbox-worker")
	}
	if w.metrics == nil {
		w.metrics = metrics.NewOutboxMetrics()
	}
	if w.pollInterval <= 0 {
		w.pollInterval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.maxAttempts <= 0 {
		w.maxAttempts = defaultMaxAttempts
	}
	w.retryBaseDelay = max(w.retryBaseDelay, 0)
	return w
}

// Run опрашивает outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce доставляет один батч pending-событий.
func (w *Worker) ProcessOnce(ctx context.Context) BatchResult {
	var result BatchResult
	if ctx.Err() != nil {
		return result
	}
	defer w.refreshBacklog(ctx)

	batch, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return result
	}

	stalled := make(map[string]struct{})
	for _, msg := range batch {
		if ctx.Err() != nil {
			return result
		}
		entry := w.logger.WithFields(log.Fields{
			"outbox_id":  msg.ID,
			"order_id":   msg.AggregateID,
			"event_type": msg.EventType,
		})

		if _, ok := stalled[msg.AggregateID]; ok {
			result.Deferred++
			w.metrics.RecordPublish(metrics.PublishDeferred)
			entry.Debug("order has an undelivered earlier event, deferring")
			continue
		}

		err := w.deliver(ctx, msg)
		if err == nil {
			result.Sent++
			if markErr := w.repo.MarkSent(ctx, msg.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark outbox message as sent")
			}
			continue
		}
		if ctx.Err() != nil {
			return result
		}

		reason := ReasonPublishFailed
		if errors.Is(err, errMalformed) {
			reason = ReasonMalformed
			w.metrics.RecordPublish(metrics.PublishRejected)
		} else {
			stalled[msg.AggregateID] = struct{}{}
			w.metrics.RecordPublish(metrics.PublishFailed)
		}
		entry.WithError(err).WithField("reason", reason).Error("order event was not delivered")

		if dlqErr := w.deadLetter(msg, reason, err); dlqErr != nil {
			entry.WithError(dlqErr).Warn("failed to publish to DLQ")
			w.metrics.RecordPublish(metrics.PublishDLQFailed)
		}
		if markErr := w.repo.MarkFailed(ctx, msg.ID); markErr != nil {
			entry.WithError(markErr).Warn("failed to mark outbox message as failed")
		}
		result.DeadLettered++
	}
	return result
}

// deliver проверяет, что сообщение — событие заказа, и публикует его с повторами.
func (w *Worker) deliver(ctx context.Context, msg domain.OutboxMessage) error {
	if err := validateOrderEvent(msg); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, w.retryDelay(attempt-1)); err != nil {
				return err
			}
		}
		if lastErr = w.publisher.Publish(msg); lastErr == nil {
			w.metrics.RecordPublish(metrics.PublishSent)
			return nil
		}
		w.metrics.RecordPublish(metrics.PublishRetryError)
	}
	return fmt.Errorf("publish failed after %d attempts: %w", w.maxAttempts, lastErr)
}

// retryDelay — пауза перед повтором номер n (с единицы), ограничена maxRetryDelay.
func (w *Worker) retryDelay(n int) time.Duration {
	delay := w.retryBaseDelay
	for i := 1; i < n && delay > 0 && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// validateOrderEvent проверяет тип агрегата, тип события, id заказа и JSON тела.
func validateOrderEvent(msg domain.OutboxMessage) error {
	if msg.AggregateType != domain.AggregateTypeOrder {
		return fmt.Errorf("%w: aggregate type %q", errMalformed, msg.AggregateType)
	}
	if _, ok := orderEventTypes[msg.EventType]; !ok {
		return fmt.Errorf("%w: event type %q", errMalformed, msg.EventType)
	}
	if id, err := strconv.ParseInt(msg.AggregateID, 10, 64); err != nil || id <= 0 {
		return fmt.Errorf("%w: order id %q", errMalformed, msg.AggregateID)
	}
	if !json.Valid(msg.Payload) {
		return fmt.Errorf("%w: payload is not json", errMalformed)
	}
	return nil
}

// deadLetterPayload — тело сообщения в DLQ.
type deadLetterPayload struct {
	OutboxID       string          `json:"outbox_id"`
	OrderID        string          `json:"order_id"`
	EventType      string          `json:"event_type"`
	Reason         string          `json:"reason"`
	Error          string          `json:"publish_error"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	DeadLetteredAt time.Time       `json:"dlq_published_at"`
}

func (w *Worker) deadLetter(msg domain.OutboxMessage, reason string, cause error) error {
	if w.dlq == nil {
		return nil
	}

	body := deadLetterPayload{
		OutboxID:       msg.ID,
		OrderID:        msg.AggregateID,
		EventType:      msg.EventType,
		Reason:         reason,
		Error:          cause.Error(),
		CreatedAt:      msg.CreatedAt,
		DeadLetteredAt: w.now(),
	}
	if json.Valid(msg.Payload) {
		body.Payload = msg.Payload
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	dead := msg
	dead.Payload = data
	if err := w.dlq.Publish(dead); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}

func (w *Worker) refreshBacklog(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}
	w.metrics.SetBacklog(stats.PendingCount, stats.OldestPendingAt, w.now())
}
