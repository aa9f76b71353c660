package model

import (
	"time"
)

// WireTimeLayout is the fixed textual format used for timestamps in API responses.
const WireTimeLayout = "2006-01-02T15:04:05.000Z"

// Author is the structured author of a blog post. It is the only form that is ever persisted.
type Author struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName joins first and last name the way the API exposes it.
func (a Author) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Post is a stored blog post.
// It has no database-specific tags; drivers translate it to their own document shape.
type Post struct {
	ID      string
	Title   string
	Content string
	Author  Author
	Created time.Time
}

// PostDraft is a validated post that has not been stored yet, so it has no ID.
type PostDraft struct {
	Title   string
	Content string
	Author  Author
	Created time.Time
}

// PostPatch carries the fields of a partial update. A nil field was not supplied and keeps its stored value.
type PostPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Author  *Author `json:"author,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Author == nil
}

// Apply returns a copy of post with the patch fields overwritten.
func (p PostPatch) Apply(post Post) Post {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Author != nil {
		post.Author = *p.Author
	}
	return post
}

// WirePost is the client-facing representation of a post.
type WirePost struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Created string `json:"created"`
}

// ToWire converts a stored post to its wire representation.
func ToWire(p Post) WirePost {
	return WirePost{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Author:  p.Author.FullName(),
		Created: FormatTime(p.Created),
	}
}

// ToWireList converts posts to wire form. The result is never nil so it encodes as [].
func ToWireList(posts []Post) []WirePost {
	out := make([]WirePost, 0, len(posts))
	for _, p := range posts {
		out = append(out, ToWire(p))
	}
	return out
}

// FormatTime renders t in UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(WireTimeLayout)
}

// NormalizeTime truncates t to the precision the API exposes.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
