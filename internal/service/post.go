package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"blogapi/internal/model"
	"blogapi/internal/repository"
)

// DefaultStoreTimeout bounds every store round trip when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

var (
	// ErrNotFound means the post does not exist or the id is malformed.
	ErrNotFound = errors.New("post not found")
	// ErrStoreUnavailable means the store could not be reached or did not answer in time.
	ErrStoreUnavailable = errors.New("store unavailable")
)

var tracer = otel.Tracer("blogapi/internal/service")

// PostService is the persistence gateway for blog posts. It owns the mapping from ids to stored
// documents and re-signals store failures as ErrNotFound or ErrStoreUnavailable.
type PostService interface {
	// Create stores a validated draft. A zero Created defaults to now.
	Create(ctx context.Context, draft model.PostDraft) (*model.Post, error)

	// List returns all posts. No posts is an empty slice, not an error.
	List(ctx context.Context) ([]model.Post, error)

	// Get returns a single post by its ID.
	Get(ctx context.Context, id string) (*model.Post, error)

	// Update applies a partial update. An empty patch returns the post unchanged.
	Update(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)

	// Delete removes a post by ID.
	Delete(ctx context.Context, id string) error
}

// postService is a concrete implementation of PostService.
type postService struct {
	repo    repository.PostRepository
	timeout time.Duration
	now     func() time.Time
}

// NewPostService constructs a new PostService. A non-positive timeout uses DefaultStoreTimeout.
func NewPostService(repo repository.PostRepository, timeout time.Duration) PostService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &postService{repo: repo, timeout: timeout, now: time.Now}
}

// call runs fn against the store with the configured timeout inside a span.
func (s *postService) call(ctx context.Context, op, id string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "PostService."+op, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	if id != "" {
		span.SetAttributes(attribute.String("post.id", id))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := translate(fn(ctx))
	if errors.Is(err, ErrStoreUnavailable) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store unavailable")
	}
	return err
}

// translate maps driver errors onto the service error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func (s *postService) Create(ctx context.Context, draft model.PostDraft) (*model.Post, error) {
	if draft.Created.IsZero() {
		draft.Created = model.NormalizeTime(s.now())
	}
	var out *model.Post
	err := s.call(ctx, "Create", "", func(ctx context.Context) (err error) {
		out, err = s.repo.Insert(ctx, draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *postService) List(ctx context.Context) ([]model.Post, error) {
	var out []model.Post
	err := s.call(ctx, "List", "", func(ctx context.Context) (err error) {
		out, err = s.repo.FindAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Post{}
	}
	return out, nil
}

func (s *postService) Get(ctx context.Context, id string) (*model.Post, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var out *model.Post
	err := s.call(ctx, "Get", id, func(ctx context.Context) (err error) {
		out, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *postService) Update(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var out *model.Post
	err := s.call(ctx, "Update", id, func(ctx context.Context) (err error) {
		if patch.IsEmpty() {
			out, err = s.repo.FindByID(ctx, id)
			return err
		}
		out, err = s.repo.UpdateByID(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *postService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return s.call(ctx, "Delete", id, func(ctx context.Context) error {
		return s.repo.DeleteByID(ctx, id)
	})
}
