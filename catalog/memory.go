package catalog

import (
	"context"
	"sync"
)

// MemoryBackend keeps users in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	byEmail map[string]User
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{byEmail: make(map[string]User)}
}

// InsertIfAbsent checks and inserts under one exclusive lock.
func (b *MemoryBackend) InsertIfAbsent(ctx context.Context, user User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byEmail[user.Email]; exists {
		return false, nil
	}
	b.byEmail[user.Email] = user
	return true, nil
}

func (b *MemoryBackend) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	user, ok := b.byEmail[email]
	return user, ok, nil
}

// Len reports the number of stored users.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byEmail)
}
