package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreContract(t, newTestSQLiteStore(t))
}

func TestFirestoreStore_Contract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	s, err := NewFirestoreStore(context.Background(), "marketplace-test", "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	runStoreContract(t, s)
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	first, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	id, err := first.Create(context.Background(), Products, "", map[string]any{"title": "lamp"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer second.Close()

	doc, err := second.Get(context.Background(), Products, id)
	require.NoError(t, err)
	assert.Equal(t, "lamp", doc.Fields["title"])
}

// runStoreContract exercises the behaviour every backend must share. Ids are
// unique per run so it can target a long-lived emulator.
func runStoreContract(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	collection := "contract_" + time.Now().Format("150405.000000")

	t.Run("create with generated id and get", func(t *testing.T) {
		id, err := s.Create(ctx, collection, "", map[string]any{
			"title":  "bike",
			"price":  120.0,
			"images": []string{"https://img/1.jpg"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.Get(ctx, collection, id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "bike", doc.Fields["title"])
		assert.Equal(t, 120.0, doc.Fields["price"])
		assert.Equal(t, []any{"https://img/1.jpg"}, doc.Fields["images"])
	})

	t.Run("explicit id conflicts", func(t *testing.T) {
		_, err := s.Create(ctx, collection, "a@b.com", map[string]any{"email": "a@b.com"})
		require.NoError(t, err)

		_, err = s.Create(ctx, collection, "a@b.com", map[string]any{"email": "a@b.com"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := s.Get(ctx, collection, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.Update(ctx, collection, "nope", []Update{{Path: "x", Value: 1}})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("nested partial update keeps siblings", func(t *testing.T) {
		id, err := s.Create(ctx, collection, "", map[string]any{
			"meetup": map[string]any{"agreed": false, "time": "", "price": nil},
			"otp":    map[string]any{"token": "", "confirmed": false},
		})
		require.NoError(t, err)

		err = s.Update(ctx, collection, id, []Update{
			{Path: "meetup.agreed", Value: true},
			{Path: "otp.token", Value: "ABC123"},
		})
		require.NoError(t, err)

		doc, err := s.Get(ctx, collection, id)
		require.NoError(t, err)
		meetup := doc.Fields["meetup"].(map[string]any)
		otp := doc.Fields["otp"].(map[string]any)
		assert.Equal(t, true, meetup["agreed"])
		assert.Equal(t, "", meetup["time"])
		assert.Equal(t, "ABC123", otp["token"])
		assert.Equal(t, false, otp["confirmed"])
	})

	t.Run("append adds to array", func(t *testing.T) {
		id, err := s.Create(ctx, collection, "", map[string]any{"messages": []any{}})
		require.NoError(t, err)

		type msg struct {
			Sender string `json:"sender"`
			Text   string `json:"text"`
		}
		require.NoError(t, s.Update(ctx, collection, id, []Update{{Path: "messages", Value: msg{"a", "hi"}, Append: true}}))
		require.NoError(t, s.Update(ctx, collection, id, []Update{{Path: "messages", Value: msg{"b", "hello"}, Append: true}}))

		doc, err := s.Get(ctx, collection, id)
		require.NoError(t, err)
		assert.Equal(t, []any{
			map[string]any{"sender": "a", "text": "hi"},
			map[string]any{"sender": "b", "text": "hello"},
		}, doc.Fields["messages"])
	})

	t.Run("list returns created documents", func(t *testing.T) {
		docs, err := s.List(ctx, collection)
		require.NoError(t, err)
		assert.Len(t, docs, 4)
	})
}

func TestApplyUpdate(t *testing.T) {
	fields := map[string]any{"meetup": "not-a-map", "tags": "x"}

	require.NoError(t, applyUpdate(fields, Update{Path: "meetup.location.lat", Value: 1.5}))
	assert.Equal(t, map[string]any{"location": map[string]any{"lat": 1.5}}, fields["meetup"])

	assert.Error(t, applyUpdate(fields, Update{Path: "tags", Value: "y", Append: true}))
	assert.Error(t, applyUpdate(fields, Update{Path: "", Value: 1}))
	assert.Error(t, applyUpdate(fields, Update{Path: "a..b", Value: 1}))
}

func TestDocumentDecode(t *testing.T) {
	doc := Document{ID: "c1", Fields: map[string]any{"otp": map[string]any{"token": "T", "confirmed": true}}}

	var out struct {
		OTP struct {
			Token     string `json:"token"`
			Confirmed bool   `json:"confirmed"`
		} `json:"otp"`
	}
	require.NoError(t, doc.Decode(&out))
	assert.Equal(t, "T", out.OTP.Token)
	assert.True(t, out.OTP.Confirmed)
}
