package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, log.WithField("component", "kafka-producer-test"))

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "42", string(key))
		assert.Equal(t, TopicOrderEvents, msg.Topic)
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, HeaderEventType, string(msg.Headers[0].Key))
		return nil
	})

	err := producer.PublishEvent(TopicOrderEvents, "42", map[string]any{"order_id": 42}, map[string]string{
		HeaderEventType: "order.created",
		HeaderMessageID: "",
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishEvent(TopicOrderEvents, "42", map[string]any{"order_id": 42}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil)

	err := producer.PublishEvent(TopicOrderEvents, "42", make(chan int), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
	require.NoError(t, mockProducer.Close())
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{})
	require.Error(t, err)
}

func TestRecordHeaders_SortedAndSkipsEmpty(t *testing.T) {
	headers := recordHeaders(map[string]string{
		HeaderMessageID:     "m-1",
		HeaderAggregateType: "order",
		HeaderEventType:     "",
	})
	require.Len(t, headers, 2)
	assert.Equal(t, HeaderAggregateType, string(headers[0].Key))
	assert.Equal(t, HeaderMessageID, string(headers[1].Key))
	assert.Nil(t, recordHeaders(nil))
}
