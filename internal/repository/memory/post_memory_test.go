package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/model"
	"blogapi/internal/repository"
)

func draft(title string) model.PostDraft {
	return model.PostDraft{
		Title:   title,
		Content: "content of " + title,
		Author:  model.Author{FirstName: "J", LastName: "D"},
		Created: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPostMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewPostMemory()

	p, err := m.Insert(ctx, draft("A"))
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := m.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)

	content := "X"
	updated, err := m.UpdateByID(ctx, p.ID, model.PostPatch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Content)
	assert.Equal(t, p.Title, updated.Title)
	assert.Equal(t, p.Author, updated.Author)
	assert.True(t, p.Created.Equal(updated.Created))

	require.NoError(t, m.DeleteByID(ctx, p.ID))
	assert.ErrorIs(t, m.DeleteByID(ctx, p.ID), repository.ErrNotFound)
	_, err = m.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = m.UpdateByID(ctx, p.ID, model.PostPatch{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostMemory_FindAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewPostMemory()

	posts, err := m.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	var ids []string
	for i := 0; i < 5; i++ {
		p, err := m.Insert(ctx, draft(fmt.Sprintf("post-%d", i)))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	require.NoError(t, m.DeleteByID(ctx, ids[2]))

	posts, err = m.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 4)
	for i, want := range []string{ids[0], ids[1], ids[3], ids[4]} {
		assert.Equal(t, want, posts[i].ID)
	}
}

func TestPostMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPostMemory().Insert(ctx, draft("A"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostMemory_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	m := NewPostMemory()
	p, err := m.Insert(ctx, draft("A"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := fmt.Sprintf("title-%d", i)
			_, err := m.UpdateByID(ctx, p.ID, model.PostPatch{Title: &title})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := m.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Title, "title-")
	assert.Equal(t, p.Content, got.Content)
}
