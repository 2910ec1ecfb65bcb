package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/appliances/internal/version"
)

// initKafkaProducer создаёт producer, если brokers заданы.
// Возвращает nil, nil при пустом списке brokers.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:  brokers,
		ClientID: version.Service,
		Logger:   logger.WithField("component", "kafka-producer"),
	})
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, outbox events stay pending")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает producer, если он был создан.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
