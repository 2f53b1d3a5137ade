package core

import (
	"context"
	"crypto/subtle"
	"sort"
	"time"

	"swapmeet.ie/marketplace/internal/logging"
	"swapmeet.ie/marketplace/internal/store"
)

// chatUpdatable lists the paths a generic chat update may write. OTP state
// and the message log are owned by the dedicated operations.
var chatUpdatable = map[string]func(any) bool{
	"meetup.agreed":        isBool,
	"meetup.time":          isStringOrNil,
	"meetup.location":      isNil,
	"meetup.location.lat":  isNumberOrNil,
	"meetup.location.long": isNumberOrNil,
	"meetup.price":         isNumberOrNil,
}

// MeetupTerms are the terms a buyer and seller agree on.
type MeetupTerms struct {
	Time     string         `json:"time"`
	Location store.Location `json:"location"`
	Price    *float64       `json:"price"`
}

// NegotiationService runs the chat and meetup handshake:
//
//	Proposed (agreed=false) -> Agreed (token issued) -> Confirmed
//
// Any later agreement reopens Agreed with a fresh token.
type NegotiationService struct {
	store    store.DocumentStore
	newToken TokenGenerator
	now      func() time.Time
	logger   logging.Logger
}

func NewNegotiationService(s store.DocumentStore, logger logging.Logger) *NegotiationService {
	return &NegotiationService{
		store:    s,
		newToken: GenerateOTP,
		now:      time.Now,
		logger:   logger.With("service", "negotiation"),
	}
}

func (s *NegotiationService) List(ctx context.Context) ([]store.Chat, error) {
	docs, err := s.store.List(ctx, store.Chats)
	if err != nil {
		return nil, storageError(err, "failed to list chats")
	}

	chats := make([]store.Chat, 0, len(docs))
	for _, doc := range docs {
		var chat store.Chat
		if err := doc.Decode(&chat); err != nil {
			return nil, storageError(err, "failed to read chat %s", doc.ID)
		}
		chat.ID = doc.ID
		chats = append(chats, chat)
	}
	return chats, nil
}

func (s *NegotiationService) Get(ctx context.Context, chatID string) (*store.Chat, error) {
	doc, err := s.store.Get(ctx, store.Chats, chatID)
	if err != nil {
		return nil, fromStore(err, "Chat", chatID, "read chat")
	}
	var chat store.Chat
	if err := doc.Decode(&chat); err != nil {
		return nil, storageError(err, "failed to read chat %s", chatID)
	}
	chat.ID = doc.ID
	return &chat, nil
}

// CreateChat opens an empty thread in the Proposed state.
func (s *NegotiationService) CreateChat(ctx context.Context) (string, error) {
	fields, err := store.ToFields(store.Chat{Messages: []store.Message{}})
	if err != nil {
		return "", storageError(err, "failed to create chat")
	}
	id, err := s.store.Create(ctx, store.Chats, "", fields)
	if err != nil {
		return "", storageError(err, "failed to create chat")
	}
	s.logger.Info(ctx, "chat created", "chat_id", id)
	return id, nil
}

// AddMessage appends to the chat's message log. A zero timestamp means now.
func (s *NegotiationService) AddMessage(ctx context.Context, chatID, sender, text string, timestamp time.Time) error {
	if sender == "" || text == "" {
		return validationError("Missing required fields: 'sender' and 'text'")
	}
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	msg := store.Message{Sender: sender, Text: text, Timestamp: timestamp.UTC()}
	err := s.store.Update(ctx, store.Chats, chatID, []store.Update{
		{Path: "messages", Value: msg, Append: true},
	})
	if err != nil {
		return fromStore(err, "Chat", chatID, "add message")
	}
	return nil
}

// AgreeMeetup records the terms, moves the chat to Agreed and returns the
// freshly issued confirmation code. Calling it again issues a new code and
// invalidates the previous one.
func (s *NegotiationService) AgreeMeetup(ctx context.Context, chatID string, terms MeetupTerms) (string, error) {
	token, updates, err := s.agreement()
	if err != nil {
		return "", err
	}
	updates = append(updates,
		store.Update{Path: "meetup.time", Value: terms.Time},
		store.Update{Path: "meetup.location", Value: terms.Location},
		store.Update{Path: "meetup.price", Value: terms.Price},
	)

	if err := s.store.Update(ctx, store.Chats, chatID, updates); err != nil {
		return "", fromStore(err, "Chat", chatID, "agree meetup")
	}
	s.logger.Info(ctx, "meetup agreed", "chat_id", chatID)
	return token, nil
}

// UpdateChat applies a partial update. Keys may be dotted ("meetup.time") or
// nested objects. Setting meetup.agreed to true goes through the same token
// issue as AgreeMeetup; the new token is returned, otherwise "".
func (s *NegotiationService) UpdateChat(ctx context.Context, chatID string, fields map[string]any) (string, error) {
	flat := map[string]any{}
	flatten("", fields, flat)
	if len(flat) == 0 {
		return "", validationError("No chat data provided")
	}

	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	agreed, _ := flat["meetup.agreed"].(bool)
	updates := make([]store.Update, 0, len(paths)+2)
	for _, p := range paths {
		check, ok := chatUpdatable[p]
		if !ok {
			return "", validationError("field %q cannot be updated", p)
		}
		if !check(flat[p]) {
			return "", validationError("invalid value for field %q", p)
		}
		if p == "meetup.agreed" && agreed {
			continue // written by agreement below
		}
		updates = append(updates, store.Update{Path: p, Value: flat[p]})
	}
	if _, whole := flat["meetup.location"]; whole {
		if _, lat := flat["meetup.location.lat"]; lat {
			return "", validationError("meetup.location conflicts with meetup.location.lat")
		}
		if _, long := flat["meetup.location.long"]; long {
			return "", validationError("meetup.location conflicts with meetup.location.long")
		}
	}

	var token string
	if agreed {
		var agreement []store.Update
		var err error
		token, agreement, err = s.agreement()
		if err != nil {
			return "", err
		}
		updates = append(updates, agreement...)
	}

	if err := s.store.Update(ctx, store.Chats, chatID, updates); err != nil {
		return "", fromStore(err, "Chat", chatID, "update chat")
	}
	if token != "" {
		s.logger.Info(ctx, "meetup agreed", "chat_id", chatID)
	}
	return token, nil
}

// ConfirmOTP marks the meetup confirmed when token matches the current code.
// Confirming twice with the same code succeeds.
func (s *NegotiationService) ConfirmOTP(ctx context.Context, chatID, token string) error {
	if token == "" {
		return validationError("No OTP provided")
	}
	chat, err := s.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(chat.OTP.Token), []byte(token)) != 1 {
		s.logger.Warn(ctx, "otp mismatch", "chat_id", chatID)
		return newError(ErrAuth, nil, "Invalid OTP")
	}

	err = s.store.Update(ctx, store.Chats, chatID, []store.Update{{Path: "otp.confirmed", Value: true}})
	if err != nil {
		return fromStore(err, "Chat", chatID, "confirm otp")
	}
	s.logger.Info(ctx, "meetup confirmed", "chat_id", chatID)
	return nil
}

// agreement issues a new code and returns the writes that put a chat into
// the Agreed state.
func (s *NegotiationService) agreement() (string, []store.Update, error) {
	token, err := s.newToken()
	if err != nil {
		return "", nil, newError(ErrStorage, err, "failed to generate otp")
	}
	return token, []store.Update{
		{Path: "meetup.agreed", Value: true},
		{Path: "otp.token", Value: token},
		{Path: "otp.confirmed", Value: false},
	}, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(path, nested, out)
			continue
		}
		out[path] = v
	}
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isNil(v any) bool {
	return v == nil
}

func isStringOrNil(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(string)
	return ok
}

func isNumberOrNil(v any) bool {
	switch v.(type) {
	case nil, float64, float32, int, int64:
		return true
	}
	return false
}
