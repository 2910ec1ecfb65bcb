package auth

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultMaxAttempts — число неудачных попыток до блокировки.
	DefaultMaxAttempts = 5
	// DefaultBlockWindow — окно блокировки от первой неудачной попытки.
	DefaultBlockWindow = 10 * time.Second
)

// LoginLimiter блокирует вход после MaxAttempts неудач в пределах окна.
type LoginLimiter struct {
	store       AttemptStore
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter создаёт ограничитель; неположительные параметры заменяются значениями по умолчанию.
func NewLoginLimiter(store AttemptStore, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultBlockWindow
	}
	return &LoginLimiter{store: store, maxAttempts: int64(maxAttempts), window: window}
}

// Blocked сообщает, исчерпан ли лимит попыток для ключа.
func (l *LoginLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Count(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read login attempts: %w", err)
	}
	return count >= l.maxAttempts, nil
}

// Failed регистрирует неудачную попытку.
func (l *LoginLimiter) Failed(ctx context.Context, key string) error {
	if _, err := l.store.Increment(ctx, key, l.window); err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

// Succeeded сбрасывает счётчик после успешного входа.
func (l *LoginLimiter) Succeeded(ctx context.Context, key string) error {
	if err := l.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}
