package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"blogapi/internal/model"
	"blogapi/internal/repository"
)

// PostPostgres stores posts as JSONB documents in PostgreSQL.
// Ids are UUIDs generated by the database; created_at mirrors the document timestamp for ordering.
type PostPostgres struct {
	db *sql.DB
}

// NewPostPostgres creates a new PostPostgres repository.
func NewPostPostgres(db *sql.DB) *PostPostgres {
	return &PostPostgres{db: db}
}

var _ repository.PostRepository = (*PostPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*model.Post, error) {
	var (
		id  string
		raw []byte
	)
	if err := s.Scan(&id, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return repository.DecodeDocument(id, raw)
}

// validID reports whether id can address a row. Anything else can never match.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Insert stores a new post and returns it with the generated id.
func (r *PostPostgres) Insert(ctx context.Context, draft model.PostDraft) (*model.Post, error) {
	const q = `
		INSERT INTO posts (document, created_at)
		VALUES ($1::jsonb, $2)
		RETURNING id, document
	`
	doc, err := repository.EncodeDocument(repository.NewDocument(draft))
	if err != nil {
		return nil, err
	}
	return scanPost(r.db.QueryRowContext(ctx, q, string(doc), draft.Created))
}

// FindAll returns all posts ordered by creation time.
func (r *PostPostgres) FindAll(ctx context.Context) ([]model.Post, error) {
	const q = `
		SELECT id, document
		FROM posts
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single post.
func (r *PostPostgres) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const q = `
		SELECT id, document
		FROM posts
		WHERE id = $1
	`
	return scanPost(r.db.QueryRowContext(ctx, q, id))
}

// UpdateByID merges patch into the stored document in a single statement.
// JSONB concatenation replaces top-level keys, so author is always replaced as a whole.
func (r *PostPostgres) UpdateByID(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const q = `
		UPDATE posts
		SET document = document || $2::jsonb
		WHERE id = $1
		RETURNING id, document
	`
	p, err := repository.PatchDocument(patch)
	if err != nil {
		return nil, err
	}
	return scanPost(r.db.QueryRowContext(ctx, q, id, string(p)))
}

// DeleteByID removes a post. It returns repository.ErrNotFound when no row was deleted.
func (r *PostPostgres) DeleteByID(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	const q = `DELETE FROM posts WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (r *PostPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
