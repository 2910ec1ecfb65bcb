package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/app"
)

const (
	envLogLevel                  = "APPLIANCES_LOG_LEVEL"
	envHTTPAddr                  = "APPLIANCES_HTTP_ADDR"
	envMetricsAddr               = "APPLIANCES_METRICS_ADDR"
	envStorageDriver             = "APPLIANCES_STORAGE_DRIVER"
	envPostgresDSN               = "APPLIANCES_POSTGRES_DSN"
	envPostgresAutoMigrate       = "APPLIANCES_POSTGRES_AUTO_MIGRATE"
	envJWTSecret                 = "APPLIANCES_JWT_SECRET"
	envJWTTTL                    = "APPLIANCES_JWT_TTL"
	envLoginMaxAttempts          = "APPLIANCES_LOGIN_MAX_ATTEMPTS"
	envLoginBlockWindow          = "APPLIANCES_LOGIN_BLOCK_WINDOW"
	envRedisAddr                 = "APPLIANCES_REDIS_ADDR"
	envKafkaBrokers              = "APPLIANCES_KAFKA_BROKERS"
	envKafkaTopic                = "APPLIANCES_KAFKA_TOPIC"
	envOutboxPollInterval        = "APPLIANCES_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize           = "APPLIANCES_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts         = "APPLIANCES_OUTBOX_MAX_ATTEMPTS"
	envBootstrapEmployeeEmail    = "APPLIANCES_BOOTSTRAP_EMPLOYEE_EMAIL"
	envBootstrapEmployeePassword = "APPLIANCES_BOOTSTRAP_EMPLOYEE_PASSWORD"
)

type envLookup func(string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	raw, ok := lookup(envLogLevel)
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		log.WithError(err).Warnf("invalid %s, using info", envLogLevel)
		return
	}
	log.SetLevel(level)
}

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию и
// возвращается предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string
	warn := func(key string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
	}
	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	positiveInt := func(key string, target *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
			if err != nil {
				warn(key, err)
				return
			}
			*target = parsed
		}
	}
	positiveDuration := func(key string, target *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
			if err != nil {
				warn(key, err)
				return
			}
			*target = parsed
		}
	}

	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	str(envStorageDriver, &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	str(envPostgresDSN, &cfg.PostgresDSN)
	if v, ok := lookup(envPostgresAutoMigrate); ok && strings.TrimSpace(v) != "" {
		parsed, err := parseBool(v)
		if err != nil {
			warn(envPostgresAutoMigrate, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	str(envJWTSecret, &cfg.JWTSecret)
	positiveDuration(envJWTTTL, &cfg.JWTTTL)
	positiveInt(envLoginMaxAttempts, &cfg.LoginMaxAttempts)
	positiveDuration(envLoginBlockWindow, &cfg.LoginBlockWindow)
	str(envRedisAddr, &cfg.RedisAddr)
	str(envKafkaBrokers, &cfg.KafkaBrokers)
	str(envKafkaTopic, &cfg.KafkaTopic)
	positiveDuration(envOutboxPollInterval, &cfg.OutboxPollInterval)
	positiveInt(envOutboxBatchSize, &cfg.OutboxBatchSize)
	positiveInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts)
	str(envBootstrapEmployeeEmail, &cfg.BootstrapEmployeeEmail)
	if v, ok := lookup(envBootstrapEmployeePassword); ok {
		cfg.BootstrapEmployeePassword = v
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}

func main() {
	setupLogger(os.LookupEnv)
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warnf("config: %s, using default", warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
	}).Info("запускаем appliance-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("appliance-service остановлен")
}
