package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrMalformedBody means the request body is not a JSON object.
	ErrMalformedBody = errors.New("malformed request body")

	errNotString    = validation.NewError("validation_is_string", "must be a string")
	errAuthorFormat = validation.NewError("validation_author_format", "must be an object with firstName and lastName")
	errInvalidType  = validation.NewError("validation_invalid_type", "has an invalid type")

	// notBlank rejects whitespace-only text. Values are stored exactly as sent.
	notBlank = validation.NewStringRuleWithError(func(s string) bool {
		return strings.TrimSpace(s) != ""
	}, validation.ErrRequired)
)

// ValidationError lists the request fields that failed validation, keyed by wire field name.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string { return e.Fields.Error() }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Fields }

// Details flattens nested field errors into dotted keys, e.g. "author.firstName".
func (e *ValidationError) Details() map[string]string {
	out := make(map[string]string)
	flatten("", e.Fields, out)
	return out
}

// FieldNames returns the sorted dotted names of the invalid fields.
func (e *ValidationError) FieldNames() []string {
	d := e.Details()
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func flatten(prefix string, errs validation.Errors, out map[string]string) {
	for k, err := range errs {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}

func newValidationError(err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}

// Validate checks that both names are present.
func (a Author) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.FirstName, validation.Required, notBlank),
		validation.Field(&a.LastName, validation.Required, notBlank),
	)
}

// CreatePostInput is the body of a create request. Any client-supplied id is dropped during decoding.
type CreatePostInput struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Author  *Author `json:"author"`
	Created string  `json:"created"`
}

// Validate checks required fields and the optional created timestamp.
func (in CreatePostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, notBlank),
		validation.Field(&in.Content, validation.Required, notBlank),
		validation.Field(&in.Author, validation.Required),
		validation.Field(&in.Created, validation.Date(time.RFC3339)),
	)
}

// DecodeCreate decodes a create request body. Type mismatches on known fields are reported as
// validation errors so the client learns which field was wrong.
func DecodeCreate(body []byte) (CreatePostInput, error) {
	var in CreatePostInput
	if err := json.Unmarshal(body, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return in, &ValidationError{Fields: validation.Errors{typeErr.Field: errInvalidType}}
		}
		return in, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return in, nil
}

// FromWireCreate validates a create request and turns it into a draft.
// A missing created timestamp defaults to now.
func FromWireCreate(in CreatePostInput, now time.Time) (PostDraft, error) {
	if err := in.Validate(); err != nil {
		return PostDraft{}, newValidationError(err)
	}

	created := now
	if in.Created != "" {
		// already validated by the Date rule
		created, _ = time.Parse(time.RFC3339, in.Created)
	}

	return PostDraft{
		Title:   in.Title,
		Content: in.Content,
		Author:  *in.Author,
		Created: NormalizeTime(created),
	}, nil
}

// UpdatePostInput is a decoded update body. Nil fields were absent from the request.
type UpdatePostInput struct {
	ID      *string
	Title   *string
	Content *string
	Author  *Author
	Created *time.Time
}

// Patch returns the fields the update may change. Created is immutable and never part of it.
func (in UpdatePostInput) Patch() PostPatch {
	return PostPatch{
		Title:   in.Title,
		Content: in.Content,
		Author:  in.Author,
	}
}

// ParseUpdate decodes an update body, keeping track of which keys were present.
// Unknown keys are ignored. Present keys must carry valid values.
func ParseUpdate(body []byte) (UpdatePostInput, error) {
	var in UpdatePostInput

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return in, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if raw == nil {
		return in, fmt.Errorf("%w: body must be a JSON object", ErrMalformedBody)
	}

	errs := validation.Errors{}

	if v, ok := raw["id"]; ok {
		var id string
		if err := json.Unmarshal(v, &id); err != nil || isNull(v) {
			errs["id"] = errNotString
		} else {
			in.ID = &id
		}
	}
	if v, ok := raw["title"]; ok {
		in.Title = parseText(v, "title", errs)
	}
	if v, ok := raw["content"]; ok {
		in.Content = parseText(v, "content", errs)
	}
	if v, ok := raw["author"]; ok {
		a, err := parseAuthor(v)
		if err != nil {
			errs["author"] = err
		} else {
			in.Author = &a
		}
	}
	if v, ok := raw["created"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			errs["created"] = errNotString
		} else if t, err := time.Parse(time.RFC3339, s); err != nil {
			errs["created"] = validation.ErrDateInvalid
		} else {
			in.Created = &t
		}
	}

	if err := errs.Filter(); err != nil {
		return UpdatePostInput{}, newValidationError(err)
	}
	return in, nil
}

func parseText(v json.RawMessage, key string, errs validation.Errors) *string {
	var s string
	if err := json.Unmarshal(v, &s); err != nil || isNull(v) {
		errs[key] = errNotString
		return nil
	}
	if err := validation.Validate(s, validation.Required, notBlank); err != nil {
		errs[key] = err
		return nil
	}
	return &s
}

// isNull reports whether v is the JSON literal null, which json.Unmarshal accepts for a string.
func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// parseAuthor accepts the structured form, or a legacy "First Last" string that splits on exactly one space.
func parseAuthor(v json.RawMessage) (Author, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return Author{}, errAuthorFormat
	}

	switch v[0] {
	case '{':
		var a Author
		if err := json.Unmarshal(v, &a); err != nil {
			return Author{}, errAuthorFormat
		}
		if err := a.Validate(); err != nil {
			return Author{}, err
		}
		return a, nil
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return Author{}, errAuthorFormat
		}
		parts := strings.Split(s, " ")
		if len(parts) != 2 {
			return Author{}, errAuthorFormat
		}
		a := Author{FirstName: parts[0], LastName: parts[1]}
		if a.Validate() != nil {
			return Author{}, errAuthorFormat
		}
		return a, nil
	default:
		return Author{}, errAuthorFormat
	}
}
