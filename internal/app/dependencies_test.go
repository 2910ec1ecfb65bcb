package app

import (
	"context"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/service/auth"
)

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
	}, log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initRuntimeDependencies(memory) failed: %v", err)
	}
	if deps.orders == nil || deps.appliances == nil || deps.manufacturers == nil {
		t.Fatal("order and catalog repositories should not be nil for memory storage")
	}
	if deps.clients == nil || deps.employees == nil || deps.identities == nil {
		t.Fatal("party repositories should not be nil for memory storage")
	}
	if deps.timeline == nil || deps.outbox == nil {
		t.Fatal("timeline and outbox repositories should not be nil for memory storage")
	}
	if deps.storageCheck == nil {
		t.Fatal("storage check should not be nil")
	}
	if err := deps.storageCheck(context.Background()); err != nil {
		t.Fatalf("memory storage check failed: %v", err)
	}
	if deps.closeFn != nil {
		t.Fatal("memory storage needs no close func")
	}
}

func TestInitRuntimeDependencies_EmptyDriverMeansMemory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{}, log.WithField("test", "empty-driver"))
	if err != nil {
		t.Fatalf("initRuntimeDependencies(empty) failed: %v", err)
	}
	if deps.orders == nil {
		t.Fatal("orders should not be nil")
	}
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverPostgres,
	}, log.WithField("test", "postgres-missing-dsn"))
	if err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: "sqlite",
	}, log.WithField("test", "unsupported-driver"))
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestInitAttemptStore_MemoryByDefault(t *testing.T) {
	t.Parallel()

	attempts, err := initAttemptStore(context.Background(), Config{}, log.WithField("test", "attempts"))
	if err != nil {
		t.Fatalf("initAttemptStore failed: %v", err)
	}
	if _, ok := attempts.store.(*auth.MemoryAttemptStore); !ok {
		t.Fatalf("expected memory attempt store, got %T", attempts.store)
	}
	if attempts.sweeper == nil {
		t.Fatal("memory attempt store must be swept")
	}
	if attempts.check != nil || attempts.closeFn != nil {
		t.Fatal("memory attempt store needs neither health check nor close func")
	}
}

func TestInitAttemptStore_UnreachableRedis(t *testing.T) {
	t.Parallel()

	_, err := initAttemptStore(context.Background(), Config{
		RedisAddr: "127.0.0.1:1",
	}, log.WithField("test", "attempts-redis"))
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
