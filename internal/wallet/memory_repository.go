package wallet

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]PassRecord
}

// NewMemoryRepository constructs an in-memory repository for dev and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]PassRecord)}
}

func (r *memoryRepository) Create(_ context.Context, rec PassRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[rec.ID]; exists {
		return nil
	}
	r.storage[rec.ID] = rec
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (PassRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.storage[id]
	if !ok {
		return PassRecord{}, ErrPassNotFound
	}
	return rec, nil
}

func (r *memoryRepository) MarkSaveIssued(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.storage[id]
	if !ok {
		return ErrPassNotFound
	}
	at = at.UTC()
	rec.Status = StatusSaveTokenIssued
	rec.SaveIssuedAt = &at
	r.storage[id] = rec
	return nil
}
