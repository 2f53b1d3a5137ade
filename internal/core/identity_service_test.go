package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapmeet.ie/marketplace/internal/auth"
	"swapmeet.ie/marketplace/internal/logging"
	"swapmeet.ie/marketplace/internal/store"
)

func newTestIdentity(t *testing.T) (*IdentityService, *store.SQLiteStore, *auth.TokenIssuer) {
	t.Helper()
	s := newTestStore(t)
	tokens := auth.NewTokenIssuer("test-secret", 2*time.Hour)
	return NewIdentityService(s, tokens, 4, logging.Nop()), s, tokens
}

func TestIdentity_RegisterStoresHash(t *testing.T) {
	ctx := context.Background()
	svc, s, _ := newTestIdentity(t)

	id, err := svc.Register(ctx, "Alice@Example.com", "hunter2", &store.UserLocation{Latitude: 53.3, Longitude: -6.2})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id)

	doc, err := s.Get(ctx, store.Users, id)
	require.NoError(t, err)
	var user store.User
	require.NoError(t, doc.Decode(&user))

	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "hunter2", user.PasswordHash)
	assert.True(t, auth.CheckPasswordHash("hunter2", user.PasswordHash))
	assert.Empty(t, user.Chats)
	assert.NotNil(t, user.Chats)
	assert.False(t, user.IsSeller)
	require.NotNil(t, user.Location)
	assert.Equal(t, 53.3, user.Location.Latitude)
}

func TestIdentity_RegisterErrors(t *testing.T) {
	ctx := context.Background()
	svc, s, _ := newTestIdentity(t)

	_, err := svc.Register(ctx, "", "pw", nil)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, "bob@example.com", "", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "   ", "pw", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "bob@example.com", "pw", nil)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "BOB@example.com", "other", nil)
	require.ErrorIs(t, err, ErrConflict)
	_, err = svc.Register(ctx, " bob@example.com ", "other", nil)
	require.ErrorIs(t, err, ErrConflict)

	users, err := s.List(ctx, store.Users)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].ID)
}

func TestIdentity_DuplicateSignupSkipsHashing(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestIdentity(t)

	hashes := 0
	svc.hash = func(plain string, cost int) (string, error) {
		hashes++
		return auth.HashPassword(plain, cost)
	}

	_, err := svc.Register(ctx, "frank@example.com", "pw", nil)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "frank@example.com", "pw", nil)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, hashes)
}

func TestIdentity_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newTestIdentity(t)

	_, err := svc.Register(ctx, "carol@example.com", "s3cret", nil)
	require.NoError(t, err)

	session, err := svc.Authenticate(ctx, "Carol@example.com", "s3cret", nil)
	require.NoError(t, err)
	assert.False(t, session.IsSeller)

	sub, err := tokens.ValidateJWT(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", sub)
}

func TestIdentity_AuthenticateErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestIdentity(t)

	_, err := svc.Register(ctx, "dave@example.com", "right", nil)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "dave@example.com", "", nil)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Authenticate(ctx, "  ", "right", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "right", nil)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Authenticate(ctx, "dave@example.com", "wrong", nil)
	require.ErrorIs(t, err, ErrAuth)
}

func TestIdentity_AuthenticateUpdatesLocation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestIdentity(t)

	_, err := svc.Register(ctx, "erin@example.com", "pw", nil)
	require.NoError(t, err)

	loc, err := svc.Location(ctx, "erin@example.com")
	require.NoError(t, err)
	assert.Nil(t, loc)

	_, err = svc.Authenticate(ctx, "erin@example.com", "pw", &store.UserLocation{Latitude: 51.9, Longitude: -8.5})
	require.NoError(t, err)

	loc, err = svc.Location(ctx, "erin@example.com")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, store.UserLocation{Latitude: 51.9, Longitude: -8.5}, *loc)

	// a failed login leaves the location alone
	_, err = svc.Authenticate(ctx, "erin@example.com", "bad", &store.UserLocation{Latitude: 1, Longitude: 1})
	require.ErrorIs(t, err, ErrAuth)
	loc, err = svc.Location(ctx, "erin@example.com")
	require.NoError(t, err)
	assert.Equal(t, 51.9, loc.Latitude)
}

func TestIdentity_LocationMissingUser(t *testing.T) {
	svc, _, _ := newTestIdentity(t)
	_, err := svc.Location(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIdentity_Logout(t *testing.T) {
	svc, _, _ := newTestIdentity(t)
	assert.Contains(t, svc.Logout(context.Background()), "Logout successful")
}
