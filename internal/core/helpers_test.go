package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"swapmeet.ie/marketplace/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "core.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sequenceTokens(tokens ...string) TokenGenerator {
	i := 0
	return func() (string, error) {
		tok := tokens[i%len(tokens)]
		i++
		return tok, nil
	}
}

func ptr[T any](v T) *T {
	return &v
}
