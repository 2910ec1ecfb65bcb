package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/appliances/internal/health"
	"github.com/vladislavdragonenkov/appliances/internal/service/auth"
	"github.com/vladislavdragonenkov/appliances/internal/storage/memory"
	"github.com/vladislavdragonenkov/appliances/internal/storage/postgres"
	"github.com/vladislavdragonenkov/appliances/internal/storage/redis"
)

// runtimeDependencies — хранилища, выбранные по конфигурации.
type runtimeDependencies struct {
	orders        domain.OrderRepository
	appliances    domain.ApplianceRepository
	manufacturers domain.ManufacturerRepository
	clients       domain.ClientRepository
	employees     domain.EmployeeRepository
	identities    domain.IdentityRepository
	timeline      domain.TimelineRepository
	outbox        domain.OutboxRepository

	storageCheck healthcheck.CheckFunc
	closeFn      func() error
}

type repositorySource interface {
	Orders() domain.OrderRepository
	Appliances() domain.ApplianceRepository
	Manufacturers() domain.ManufacturerRepository
	Clients() domain.ClientRepository
	Employees() domain.EmployeeRepository
	Identities() domain.IdentityRepository
	Timeline() domain.TimelineRepository
}

func newRuntimeDependencies(src repositorySource, outbox domain.OutboxRepository) *runtimeDependencies {
	return &runtimeDependencies{
		orders:        src.Orders(),
		appliances:    src.Appliances(),
		manufacturers: src.Manufacturers(),
		clients:       src.Clients(),
		employees:     src.Employees(),
		identities:    src.Identities(),
		timeline:      src.Timeline(),
		outbox:        outbox,
	}
}

// initRuntimeDependencies открывает хранилище по cfg.StorageDriver.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver)); driver {
	case "", StorageDriverMemory:
		store := memory.NewStore()
		deps := newRuntimeDependencies(store, store.Outbox())
		deps.storageCheck = func(context.Context) error { return nil }
		logger.WithField("storage_driver", StorageDriverMemory).Info("storage initialized")
		return deps, nil

	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, errors.New("postgres dsn is required for postgres storage driver")
		}
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}

		deps := newRuntimeDependencies(store, store.Outbox())
		deps.storageCheck = store.Ping
		deps.closeFn = store.Close
		logger.WithFields(log.Fields{
			"storage_driver": StorageDriverPostgres,
			"auto_migrate":   cfg.PostgresAutoMigrate,
		}).Info("storage initialized")
		return deps, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// attemptStore — счётчики попыток входа и то, что нужно для их обслуживания.
type attemptStore struct {
	store auth.AttemptStore
	// sweeper задан только для хранилища в памяти; Redis чистит ключи по TTL.
	sweeper auth.ExpiredSweeper
	check   healthcheck.CheckFunc
	closeFn func() error
}

// initAttemptStore выбирает Redis, если задан адрес, иначе память процесса.
func initAttemptStore(ctx context.Context, cfg Config, logger *log.Entry) (*attemptStore, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		store := auth.NewMemoryAttemptStore(time.Now)
		return &attemptStore{store: store, sweeper: store}, nil
	}

	store, err := redis.Open(ctx, redis.Options{Addr: addr})
	if err != nil {
		return nil, err
	}
	logger.WithField("redis_addr", addr).Info("login attempts are stored in redis")
	return &attemptStore{store: store, check: store.Ping, closeFn: store.Close}, nil
}
