package auth

import (
	"context"
	"sync"
	"time"
)

// AttemptStore хранит счётчики неудачных попыток входа с истечением по окну.
// Окно отсчитывается от первой неудачной попытки.
type AttemptStore interface {
	// Increment увеличивает счётчик ключа; окно начинается с первой попытки.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Count возвращает текущее значение счётчика или 0, если окно истекло.
	Count(ctx context.Context, key string) (int64, error)
	// Reset удаляет счётчик ключа.
	Reset(ctx context.Context, key string) error
}

type attemptEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryAttemptStore — AttemptStore в памяти процесса с внедряемыми часами.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	entries map[string]attemptEntry
	now     func() time.Time
}

// NewMemoryAttemptStore создаёт хранилище; nil clock означает time.Now.
func NewMemoryAttemptStore(clock func() time.Time) *MemoryAttemptStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryAttemptStore{
		entries: make(map[string]attemptEntry),
		now:     clock,
	}
}

func (s *MemoryAttemptStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = attemptEntry{expiresAt: now.Add(window)}
	}
	entry.count++
	s.entries[key] = entry
	return entry.count, nil
}

func (s *MemoryAttemptStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !s.now().Before(entry.expiresAt) {
		return 0, nil
	}
	return entry.count, nil
}

func (s *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// DeleteExpired удаляет до limit счётчиков с окном, истёкшим к before.
func (s *MemoryAttemptStore) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key, entry := range s.entries {
		if limit > 0 && deleted >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if !before.Before(entry.expiresAt) {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// Len возвращает число хранимых счётчиков, включая истёкшие.
func (s *MemoryAttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ AttemptStore = (*MemoryAttemptStore)(nil)
