package core

import (
	"context"
	"errors"
	"strings"

	"swapmeet.ie/marketplace/internal/auth"
	"swapmeet.ie/marketplace/internal/logging"
	"swapmeet.ie/marketplace/internal/store"
)

const logoutMessage = "Logout successful. Please discard your token on the client side."

// Session is what a successful login hands back to the client.
type Session struct {
	Token    string
	IsSeller bool
}

type IdentityService struct {
	store      store.DocumentStore
	tokens     *auth.TokenIssuer
	bcryptCost int
	hash       func(plain string, cost int) (string, error)
	logger     logging.Logger
}

func NewIdentityService(s store.DocumentStore, tokens *auth.TokenIssuer, bcryptCost int, logger logging.Logger) *IdentityService {
	return &IdentityService{
		store:      s,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		hash:       auth.HashPassword,
		logger:     logger.With("service", "identity"),
	}
}

// Register creates an account keyed by the lowercased email and returns that id.
func (s *IdentityService) Register(ctx context.Context, email, password string, location *store.UserLocation) (string, error) {
	userID := normalizeEmail(email)
	if userID == "" || password == "" {
		return "", validationError("Email and password are required")
	}

	// Create below still catches a concurrent signup.
	if _, err := s.store.Get(ctx, store.Users, userID); err == nil {
		return "", newError(ErrConflict, nil, "User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", storageError(err, "failed to read user")
	}

	hash, err := s.hash(password, s.bcryptCost)
	if err != nil {
		return "", storageError(err, "failed to hash password")
	}

	fields, err := store.ToFields(store.User{
		Email:        userID,
		PasswordHash: hash,
		Location:     location,
		Chats:        []string{},
		IsSeller:     false,
	})
	if err != nil {
		return "", storageError(err, "failed to create user")
	}

	if _, err := s.store.Create(ctx, store.Users, userID, fields); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", newError(ErrConflict, nil, "User already exists")
		}
		return "", storageError(err, "failed to create user")
	}
	s.logger.Info(ctx, "user registered", "user_id", userID)
	return userID, nil
}

// Authenticate verifies the credentials and issues a session token. A
// location carrying both coordinates replaces the stored one.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string, location *store.UserLocation) (*Session, error) {
	userID := normalizeEmail(email)
	if userID == "" || password == "" {
		return nil, validationError("Email and password are required")
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		s.logger.Warn(ctx, "login rejected", "user_id", userID)
		return nil, newError(ErrAuth, nil, "Invalid credentials")
	}

	token, err := s.tokens.GenerateJWT(userID)
	if err != nil {
		return nil, storageError(err, "failed to sign token")
	}

	if location != nil {
		err := s.store.Update(ctx, store.Users, userID, []store.Update{{Path: "location", Value: location}})
		if err != nil {
			return nil, storageError(err, "Failed to update location")
		}
	}

	s.logger.Info(ctx, "user logged in", "user_id", userID)
	return &Session{Token: token, IsSeller: user.IsSeller}, nil
}

// Logout is stateless: tokens expire on their own and the client drops them.
func (s *IdentityService) Logout(ctx context.Context) string {
	return logoutMessage
}

// Location returns the last location stored for the user, or nil if none.
func (s *IdentityService) Location(ctx context.Context, userID string) (*store.UserLocation, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Location, nil
}

func (s *IdentityService) user(ctx context.Context, userID string) (*store.User, error) {
	doc, err := s.store.Get(ctx, store.Users, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("User does not exist")
		}
		return nil, storageError(err, "failed to read user")
	}
	var user store.User
	if err := doc.Decode(&user); err != nil {
		return nil, storageError(err, "failed to read user %s", userID)
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
