package repository

import (
	"context"
	"sync"
	"time"
)

type IdempotencyCacheEntry struct {
	Key          string
	RequestHash  string
	Pending      bool
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// IdempotencyRepository keeps replayable responses in process memory.
// Expired entries are dropped on lookup.
type IdempotencyRepository struct {
	mu      sync.Mutex
	entries map[string]*IdempotencyCacheEntry
	now     func() time.Time
}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{
		entries: make(map[string]*IdempotencyCacheEntry),
		now:     time.Now,
	}
}

// Reserve claims key for a request with the given hash. It returns nil once
// the caller holds the key; otherwise it returns the live entry already
// holding it, which is Pending while its request is still running.
func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, ttl time.Duration) (*IdempotencyCacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if entry, ok := r.entries[key]; ok {
		if now.Before(entry.ExpiresAt) {
			return copyEntry(entry), nil
		}
		delete(r.entries, key)
	}

	r.entries[key] = &IdempotencyCacheEntry{
		Key:         key,
		RequestHash: requestHash,
		Pending:     true,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	return nil, nil
}

// Set records the response for a key. It completes a pending reservation but
// never replaces a completed live entry.
func (r *IdempotencyRepository) Set(_ context.Context, entry *IdempotencyCacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[entry.Key]; ok && !existing.Pending && r.now().Before(existing.ExpiresAt) {
		return nil
	}

	stored := copyEntry(entry)
	stored.Pending = false
	r.entries[entry.Key] = stored
	return nil
}

// Release drops a pending reservation so the key can be retried.
func (r *IdempotencyRepository) Release(_ context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[key]; ok && entry.Pending {
		delete(r.entries, key)
	}
}

// Purge removes every expired entry and returns how many were dropped.
func (r *IdempotencyRepository) Purge(_ context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for key, entry := range r.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}

func copyEntry(e *IdempotencyCacheEntry) *IdempotencyCacheEntry {
	out := *e
	out.ResponseBody = append([]byte(nil), e.ResponseBody...)
	return &out
}
