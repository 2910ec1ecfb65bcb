package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "appliances:login-attempts"
	defaultTimeout   = 2 * time.Second
)

// Options — параметры подключения к Redis.
type Options struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix отделяет ключи счётчиков от остальных данных в базе.
	KeyPrefix string
}

// AttemptStore хранит счётчики неудачных входов в Redis. Окно задаётся TTL ключа,
// который ставится только при первой попытке.
type AttemptStore struct {
	client *goredis.Client
	prefix string
}

// Open подключается к Redis и проверяет доступность сервера.
func Open(ctx context.Context, opts Options) (*AttemptStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return NewAttemptStore(client, opts.KeyPrefix), nil
}

// NewAttemptStore оборачивает готовый клиент; пустой prefix заменяется значением по умолчанию.
func NewAttemptStore(client *goredis.Client, prefix string) *AttemptStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &AttemptStore{client: client, prefix: prefix}
}

// incrementScript ставит TTL только на первой попытке. Скрипт вместо EXPIRE NX
// работает и на серверах Redis старше 7.0.
var incrementScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Increment увеличивает счётчик. Последующие попытки не продлевают окно.
func (s *AttemptStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := incrementScript.Run(ctx, s.client, []string{s.key(key)}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("increment login attempts: %w", err)
	}
	return count, nil
}

func (s *AttemptStore) Count(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, s.key(key)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read login attempts: %w", err)
	}
	return count, nil
}

func (s *AttemptStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}

// Ping используется readiness-проверкой.
func (s *AttemptStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *AttemptStore) Close() error {
	return s.client.Close()
}

func (s *AttemptStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
