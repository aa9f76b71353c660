// Package objectstore keeps each post as one JSON object in an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"blogapi/internal/model"
	"blogapi/internal/repository"
	"blogapi/internal/storage"
)

const (
	// DefaultPrefix is the key prefix under which post documents are written.
	DefaultPrefix = "posts/"

	suffix      = ".json"
	contentType = "application/json"
)

// PostObjectStore maps posts to objects keyed "<prefix><uuid>.json".
// Updates read, merge and rewrite the object; concurrent writers resolve last-writer-wins.
type PostObjectStore struct {
	store  storage.Storage
	prefix string
}

// NewPostObjectStore creates a repository on top of store. An empty prefix uses DefaultPrefix.
func NewPostObjectStore(store storage.Storage, prefix string) *PostObjectStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &PostObjectStore{store: store, prefix: prefix}
}

var _ repository.PostRepository = (*PostObjectStore)(nil)

func (r *PostObjectStore) key(id string) string {
	return r.prefix + id + suffix
}

// idFromKey returns the post id for key, or false for objects that are not post documents.
func (r *PostObjectStore) idFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, r.prefix) || !strings.HasSuffix(key, suffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, r.prefix), suffix)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (r *PostObjectStore) read(ctx context.Context, id string) ([]byte, error) {
	rc, _, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read post %s: %w", id, err)
	}
	return raw, nil
}

func (r *PostObjectStore) write(ctx context.Context, id string, raw []byte) error {
	_, err := r.store.Put(ctx, r.key(id), bytes.NewReader(raw), storage.PutObjectOptions{
		Size:        int64(len(raw)),
		ContentType: contentType,
	})
	return err
}

// Insert writes a new object under a fresh UUID.
func (r *PostObjectStore) Insert(ctx context.Context, draft model.PostDraft) (*model.Post, error) {
	raw, err := repository.EncodeDocument(repository.NewDocument(draft))
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	if err := r.write(ctx, id, raw); err != nil {
		return nil, fmt.Errorf("put post: %w", err)
	}
	return repository.DecodeDocument(id, raw)
}

// FindAll lists the prefix and loads every post document in key order.
// Objects deleted between listing and reading are skipped.
func (r *PostObjectStore) FindAll(ctx context.Context) ([]model.Post, error) {
	objs, err := r.store.List(ctx, r.prefix)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	items := make([]model.Post, 0, len(objs))
	for _, obj := range objs {
		id, ok := r.idFromKey(obj.Key)
		if !ok {
			continue
		}
		raw, err := r.read(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p, err := repository.DecodeDocument(id, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, nil
}

// FindByID loads a single post document.
func (r *PostObjectStore) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	raw, err := r.read(ctx, id)
	if err != nil {
		return nil, err
	}
	return repository.DecodeDocument(id, raw)
}

// UpdateByID merges patch into the stored document and rewrites it.
func (r *PostObjectStore) UpdateByID(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	raw, err := r.read(ctx, id)
	if err != nil {
		return nil, err
	}
	merged, err := repository.MergeDocument(raw, patch)
	if err != nil {
		return nil, err
	}
	if err := r.write(ctx, id, merged); err != nil {
		return nil, fmt.Errorf("put post: %w", err)
	}
	return repository.DecodeDocument(id, merged)
}

// DeleteByID removes a post document. S3 deletes of missing keys succeed, so presence is checked first.
func (r *PostObjectStore) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	if _, err := r.store.Stat(ctx, r.key(id)); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	return r.store.Delete(ctx, r.key(id))
}

// Ping checks the bucket.
func (r *PostObjectStore) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
