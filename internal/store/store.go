// Package store is the document datastore used by every service. A store is
// constructed once at startup and passed explicitly to the services.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names.
const (
	Users    = "user"
	Products = "product"
	Chats    = "chat"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is a stored record: its id plus a JSON-compatible field tree.
type Document struct {
	ID     string
	Fields map[string]any
}

// Update is one partial write. Path addresses a field with dots for nesting
// ("meetup.location.lat"). With Append set, Value is appended to the array at
// Path instead of replacing it.
type Update struct {
	Path   string
	Value  any
	Append bool
}

// DocumentStore is the collection-of-documents contract the services rely on.
// Each Update call is applied atomically to a single document; nothing wider
// is guaranteed.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	// Create stores fields under id, or under a generated id when id is
	// empty, and returns the id used.
	Create(ctx context.Context, collection, id string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, updates []Update) error
	Close() error
}

// ToFields converts a tagged struct (or any JSON-marshalable value) into the
// generic field tree stored by the backends.
func ToFields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Decode fills out from the document's fields.
func (d *Document) Decode(out any) error {
	b, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

// normalize turns structs, typed slices and times into plain JSON values so
// both backends persist the same shapes.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return out, nil
}
