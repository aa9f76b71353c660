// Package memory is a post repository that keeps documents in process memory.
// It is used for local runs without external dependencies and for end-to-end handler tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"blogapi/internal/model"
	"blogapi/internal/repository"
)

// PostMemory stores encoded post documents in a map guarded by a mutex.
type PostMemory struct {
	mu    sync.RWMutex
	items map[string][]byte
	ids   []string
}

// NewPostMemory creates an empty store.
func NewPostMemory() *PostMemory {
	return &PostMemory{items: map[string][]byte{}}
}

var _ repository.PostRepository = (*PostMemory)(nil)

// Insert stores a new post under a fresh UUID.
func (m *PostMemory) Insert(ctx context.Context, draft model.PostDraft) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := repository.EncodeDocument(repository.NewDocument(draft))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.items[id] = raw
	m.ids = append(m.ids, id)
	return repository.DecodeDocument(id, raw)
}

// FindAll returns posts in insertion order.
func (m *PostMemory) FindAll(ctx context.Context) ([]model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]model.Post, 0, len(m.ids))
	for _, id := range m.ids {
		p, err := repository.DecodeDocument(id, m.items[id])
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, nil
}

// FindByID returns a post by id.
func (m *PostMemory) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, found := m.items[id]
	if !found {
		return nil, repository.ErrNotFound
	}
	return repository.DecodeDocument(id, raw)
}

// UpdateByID merges patch into the stored document under the write lock.
func (m *PostMemory) UpdateByID(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, found := m.items[id]
	if !found {
		return nil, repository.ErrNotFound
	}
	merged, err := repository.MergeDocument(raw, patch)
	if err != nil {
		return nil, err
	}
	m.items[id] = merged
	return repository.DecodeDocument(id, merged)
}

// DeleteByID removes a post.
func (m *PostMemory) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, found := m.items[id]; !found {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	for i, v := range m.ids {
		if v == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return nil
}

// Ping always succeeds.
func (m *PostMemory) Ping(ctx context.Context) error {
	return ctx.Err()
}
