package repository

import (
	"context"
	"errors"

	"blogapi/internal/model"
)

// ErrNotFound is returned by drivers when no post exists under an id, including ids that are not
// well-formed for the driver's identity scheme. Any other driver error means the store failed.
var ErrNotFound = errors.New("post not found")

// PostRepository is the driver boundary to the document store. Implementations own the id
// encoding and must apply each call atomically per post. No business rules live here.
type PostRepository interface {
	// Insert stores a new post. The store assigns the id.
	Insert(ctx context.Context, draft model.PostDraft) (*model.Post, error)

	// FindAll returns every stored post in store-defined order, or an empty slice.
	FindAll(ctx context.Context) ([]model.Post, error)

	// FindByID returns a single post.
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// UpdateByID overwrites only the fields set in patch and returns the stored result.
	UpdateByID(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)

	// DeleteByID removes a post. It returns ErrNotFound if the post was not present.
	DeleteByID(ctx context.Context, id string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
