package repository

import (
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch"

	"blogapi/internal/model"
)

// Document is the stored JSON shape of a post. The id is the document key and is not part of the body.
type Document struct {
	Title   string       `json:"title"`
	Content string       `json:"content"`
	Author  model.Author `json:"author"`
	Created time.Time    `json:"created"`
}

// NewDocument builds the stored document for a draft.
func NewDocument(d model.PostDraft) Document {
	return Document{
		Title:   d.Title,
		Content: d.Content,
		Author:  d.Author,
		Created: d.Created.UTC(),
	}
}

// Post attaches id to the document.
func (d Document) Post(id string) model.Post {
	return model.Post{
		ID:      id,
		Title:   d.Title,
		Content: d.Content,
		Author:  d.Author,
		Created: d.Created,
	}
}

// EncodeDocument returns the stored JSON for d.
func EncodeDocument(d Document) ([]byte, error) {
	return json.Marshal(d)
}

// DecodeDocument parses a stored document and returns it as the post with the given id.
func DecodeDocument(id string, raw []byte) (*model.Post, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", id, err)
	}
	p := d.Post(id)
	return &p, nil
}

// PatchDocument encodes patch as a JSON merge patch holding only the supplied fields.
func PatchDocument(patch model.PostPatch) ([]byte, error) {
	return json.Marshal(patch)
}

// MergeDocument applies patch to a stored document (RFC 7386). Absent fields are left untouched.
func MergeDocument(raw []byte, patch model.PostPatch) ([]byte, error) {
	p, err := PatchDocument(patch)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(raw, p)
	if err != nil {
		return nil, fmt.Errorf("merge patch: %w", err)
	}
	return merged, nil
}
