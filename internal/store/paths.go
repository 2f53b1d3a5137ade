package store

import (
	"fmt"
	"strings"
)

// applyUpdate mutates fields in place.
func applyUpdate(fields map[string]any, u Update) error {
	if u.Path == "" {
		return fmt.Errorf("empty update path")
	}
	value, err := normalize(u.Value)
	if err != nil {
		return err
	}

	keys := strings.Split(u.Path, ".")
	parent := fields
	for _, k := range keys[:len(keys)-1] {
		if k == "" {
			return fmt.Errorf("invalid update path %q", u.Path)
		}
		next, ok := parent[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			parent[k] = next
		}
		parent = next
	}

	leaf := keys[len(keys)-1]
	if leaf == "" {
		return fmt.Errorf("invalid update path %q", u.Path)
	}
	if !u.Append {
		parent[leaf] = value
		return nil
	}

	switch existing := parent[leaf].(type) {
	case nil:
		parent[leaf] = []any{value}
	case []any:
		parent[leaf] = append(existing, value)
	default:
		return fmt.Errorf("cannot append to non-array field %q", u.Path)
	}
	return nil
}
