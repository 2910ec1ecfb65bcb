package app

import (
	"strings"
	"time"
)

const (
	// StorageDriverMemory хранит данные в памяти процесса.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит данные в PostgreSQL.
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	JWTSecret string
	JWTTTL    time.Duration

	LoginMaxAttempts     int
	LoginBlockWindow     time.Duration
	LoginCleanupInterval time.Duration
	// RedisAddr включает общий для реплик счётчик попыток входа.
	RedisAddr string

	// KafkaBrokers — адреса через запятую; пустое значение отключает публикацию outbox.
	KafkaBrokers       string
	KafkaTopic         string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	BootstrapEmployeeEmail    string
	BootstrapEmployeePassword string
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:             ":8080",
		MetricsAddr:          ":9090",
		StorageDriver:        StorageDriverMemory,
		PostgresAutoMigrate:  true,
		JWTSecret:            "appliances-dev-secret",
		JWTTTL:               24 * time.Hour,
		LoginMaxAttempts:     5,
		LoginBlockWindow:     10 * time.Second,
		LoginCleanupInterval: time.Minute,
		KafkaTopic:           "appliances.order.events",
		OutboxPollInterval:   time.Second,
		OutboxBatchSize:      100,
		OutboxMaxAttempts:    3,
		OutboxRetryDelay:     50 * time.Millisecond,
	}
}

// Brokers разбирает список Kafka brokers, пропуская пустые элементы.
func (c Config) Brokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
