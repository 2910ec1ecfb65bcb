package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	published := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "17", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		var envelope OrderEventEnvelope
		require.NoError(t, json.Unmarshal(value, &envelope))
		assert.Equal(t, "outbox-1", envelope.ID)
		assert.Equal(t, domain.EventOrderApproved, envelope.EventType)
		assert.JSONEq(t, `{"order_id":17,"approved":true}`, string(envelope.Payload))
		assert.True(t, envelope.PublishedAt.Equal(published))
		assert.Len(t, msg.Headers, 3)
		return nil
	})

	publisher := NewOutboxPublisher(newProducer(mockProducer, log.WithField("component", "kafka-outbox-publisher-test")), "")
	publisher.now = func() time.Time { return published }

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   "17",
		EventType:     domain.EventOrderApproved,
		Payload:       []byte(`{"order_id":17,"approved":true}`),
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(newProducer(mockProducer, nil), TopicOrderEvents)
	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: domain.AggregateTypeOrder,
		EventType:     domain.EventOrderDeleted,
		Payload:       []byte(`{"order_id":18}`),
	})
	require.Error(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	require.Error(t, publisher.Publish(domain.OutboxMessage{ID: "outbox-3"}))
}

func TestNewOrderEventEnvelope_EmptyPayload(t *testing.T) {
	t.Parallel()

	envelope := NewOrderEventEnvelope(domain.OutboxMessage{ID: "m", EventType: domain.EventOrderCreated}, time.Now())
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"payload":null`)
	assert.Equal(t, domain.EventOrderCreated, envelope.Headers()[HeaderEventType])
}
