// Package messaging holds the conversation list, the active conversation, and
// the message history for that conversation. Lists are replaced wholesale on
// every reload; unread counts and previews are server-computed and never
// patched in place.
package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/mannaz/internal/models"
)

// MinSearchLength is the shortest user-search query that reaches the server.
const MinSearchLength = 2

// API is the slice of the remote client the messaging store depends on.
type API interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	MessagesWith(ctx context.Context, userID string) ([]models.Message, error)
	SendMessage(ctx context.Context, recipientID, content string) (models.Message, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// Snapshot is the externally visible messaging state. Current being non-nil
// signals the surface to render the message thread instead of the inbox.
type Snapshot struct {
	Conversations []models.Conversation
	Current       *models.Conversation
	Messages      []models.Message
	Loading       bool
	Err           error
}

// Store is the messaging state container.
type Store struct {
	api    API
	logger *slog.Logger

	mu            sync.Mutex
	conversations []models.Conversation
	current       *models.Conversation
	messages      []models.Message
	loading       bool
	err           error
}

// New creates an empty messaging store.
func New(api API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: api, logger: logger}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Conversations: append([]models.Conversation(nil), s.conversations...),
		Messages:      append([]models.Message(nil), s.messages...),
		Loading:       s.loading,
		Err:           s.err,
	}
	if s.current != nil {
		c := *s.current
		snap.Current = &c
	}
	return snap
}

// LoadConversations replaces the inbox wholesale. Best-effort: a failure is
// recorded on the store, not returned.
func (s *Store) LoadConversations(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	convs, err := s.api.Conversations(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("messaging: load conversations failed", slog.String("error", err.Error()))
		s.err = err
		return
	}
	s.conversations = convs
	s.err = nil
}

// LoadMessages replaces the message history for the given counterpart. No
// merge with prior state.
func (s *Store) LoadMessages(ctx context.Context, userID string) {
	s.setLoading(true)
	defer s.setLoading(false)

	msgs, err := s.api.MessagesWith(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("messaging: load messages failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		s.err = err
		return
	}
	s.messages = msgs
	s.err = nil
}

// SendMessage delivers the message, appends the confirmed copy to the open
// thread, then reloads the whole conversation list so previews and unread
// counts stay server-computed. The send error propagates to the caller.
func (s *Store) SendMessage(ctx context.Context, recipientID, content string) error {
	msg, err := s.api.SendMessage(ctx, recipientID, content)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.err = nil
	s.mu.Unlock()

	s.LoadConversations(ctx)
	return nil
}

// SearchUsers finds message recipients. Queries shorter than MinSearchLength
// return empty without a network call; server failures are swallowed into an
// empty result, search is never fatal.
func (s *Store) SearchUsers(ctx context.Context, query string) []models.User {
	if len([]rune(query)) < MinSearchLength {
		return nil
	}
	users, err := s.api.SearchUsers(ctx, query)
	if err != nil {
		s.logger.Warn("messaging: user search failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return nil
	}
	return users
}

// SetCurrent selects the active conversation; nil returns to the inbox.
func (s *Store) SetCurrent(conv *models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv == nil {
		s.current = nil
		return
	}
	c := *conv
	s.current = &c
}

// ClearError resets the store-local error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}
