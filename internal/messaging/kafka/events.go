package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// Topics для Kafka.
const (
	// TopicOrderEvents — topic по умолчанию для событий жизненного цикла заказов.
	TopicOrderEvents = "appliances.order.events"
	// TopicDeadLetter получает события, которые не удалось доставить после всех попыток.
	TopicDeadLetter = "appliances.order.events.dlq"
)

// Заголовки сообщений, по которым потребители фильтруют события без разбора тела.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderMessageID     = "x-message-id"
)

// OrderEventEnvelope — тело сообщения в Kafka: метаданные outbox и исходный payload.
type OrderEventEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewOrderEventEnvelope оборачивает outbox-сообщение. Пустой payload заменяется на null,
// чтобы тело оставалось валидным JSON.
func NewOrderEventEnvelope(msg domain.OutboxMessage, publishedAt time.Time) OrderEventEnvelope {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return OrderEventEnvelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		CreatedAt:     msg.CreatedAt,
		PublishedAt:   publishedAt,
	}
}

// Headers возвращает заголовки сообщения.
func (e OrderEventEnvelope) Headers() map[string]string {
	return map[string]string{
		HeaderEventType:     e.EventType,
		HeaderAggregateType: e.AggregateType,
		HeaderMessageID:     e.ID,
	}
}
