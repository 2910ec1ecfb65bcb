package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLoginLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewLoginLimiter(NewMemoryAttemptStore(clock.Now), 5, 10*time.Second)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, limiter.Failed(ctx, "a@example.com"))
	}
	blocked, err := limiter.Blocked(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, limiter.Failed(ctx, "a@example.com"))
	blocked, err = limiter.Blocked(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, blocked)

	other, err := limiter.Blocked(ctx, "b@example.com")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestLoginLimiter_WindowStartsAtFirstFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewLoginLimiter(NewMemoryAttemptStore(clock.Now), 2, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, limiter.Failed(ctx, "a@example.com"))
	clock.Advance(9 * time.Second)
	require.NoError(t, limiter.Failed(ctx, "a@example.com"))

	blocked, _ := limiter.Blocked(ctx, "a@example.com")
	assert.True(t, blocked)

	clock.Advance(time.Second)
	blocked, _ = limiter.Blocked(ctx, "a@example.com")
	assert.False(t, blocked, "window expires 10s after the first failure")

	require.NoError(t, limiter.Failed(ctx, "a@example.com"))
	blocked, _ = limiter.Blocked(ctx, "a@example.com")
	assert.False(t, blocked, "a new window starts with a fresh counter")
}

func TestLoginLimiter_SuccessResets(t *testing.T) {
	limiter := NewLoginLimiter(NewMemoryAttemptStore(nil), 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Failed(ctx, "a@example.com"))
	blocked, _ := limiter.Blocked(ctx, "a@example.com")
	require.True(t, blocked)

	require.NoError(t, limiter.Succeeded(ctx, "a@example.com"))
	blocked, _ = limiter.Blocked(ctx, "a@example.com")
	assert.False(t, blocked)
}

func TestNewLoginLimiter_Defaults(t *testing.T) {
	limiter := NewLoginLimiter(NewMemoryAttemptStore(nil), 0, 0)

	assert.Equal(t, int64(DefaultMaxAttempts), limiter.maxAttempts)
	assert.Equal(t, DefaultBlockWindow, limiter.window)
}
