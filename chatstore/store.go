// Package chatstore reconciles provider conversations and messages with
// local state. It owns the per-conversation message lists, the selected
// conversation and the optimistic send flow.
package chatstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"imchat/events"
	"imchat/gateway"
	"imchat/logger"
	"imchat/models"
)

// Journal persists confirmed state. Failures are logged by the store and
// never returned to callers.
type Journal interface {
	SaveConversations(owner string, conversations []models.Conversation) error
	SaveMessages(owner string, messages []models.Message) error
}

// Options configures a Store.
type Options struct {
	Gateway *gateway.Gateway
	Journal Journal
	Logger  *zap.Logger
	Now     func() time.Time
}

type pageState struct {
	nextCursor string
	isLastPage bool
}

// Store is the conversation/message state consumed by views. All readers
// return copies.
type Store struct {
	gw      *gateway.Gateway
	journal Journal
	log     *zap.Logger
	now     func() time.Time
	tempSeq atomic.Uint64

	subs events.Group

	mu            sync.RWMutex
	isLogin       bool
	loading       bool
	status        models.SessionStatus
	owner         string
	currentUser   *models.User
	conversations []models.Conversation
	current       *models.Conversation
	messages      map[string][]models.Message
	pages         map[string]pageState
	pushCtx       context.Context
	pushCancel    context.CancelFunc
}

// New creates an empty store bound to a gateway.
func New(options Options) (*Store, error) {
	if options.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	s := &Store{
		gw:      options.Gateway,
		journal: options.Journal,
		log:     logger.OrNop(options.Logger).Named("chatstore"),
		now:     options.Now,
	}
	s.resetLocked()
	return s, nil
}

// Login subscribes to provider pushes, authenticates and performs the
// initial load of the current user profile and conversation list.
func (s *Store) Login(ctx context.Context, cfg models.LoginConfig) error {
	s.subs.Close()
	s.subscribe()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if err := s.gw.Login(ctx, cfg); err != nil {
		s.subs.Close()
		s.log.Error("login failed", zap.String("user_id", cfg.UserID), zap.Error(err))
		return err
	}

	pushCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.pushCancel != nil {
		s.pushCancel()
	}
	s.isLogin = true
	s.owner = cfg.UserID
	s.pushCtx, s.pushCancel = pushCtx, cancel
	s.mu.Unlock()

	user := models.User{UserID: cfg.UserID}
	if profiles := s.gw.GetUserProfile(ctx, []string{cfg.UserID}); len(profiles) > 0 {
		user = profiles[0]
	}
	s.mu.Lock()
	s.currentUser = &user
	s.mu.Unlock()

	s.LoadConversations(ctx)
	return nil
}

// Logout ends the session and clears all state. On failure the state is
// kept and the error is returned.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.gw.Logout(ctx); err != nil {
		s.log.Error("logout failed", zap.Error(err))
		return err
	}

	s.subs.Close()

	s.mu.Lock()
	if s.pushCancel != nil {
		s.pushCancel()
	}
	s.resetLocked()
	s.mu.Unlock()
	return nil
}

func (s *Store) resetLocked() {
	s.isLogin = false
	s.loading = false
	s.status = models.SessionInit
	s.owner = ""
	s.currentUser = nil
	s.conversations = []models.Conversation{}
	s.current = nil
	s.messages = make(map[string][]models.Message)
	s.pages = make(map[string]pageState)
	s.pushCtx = nil
	s.pushCancel = nil
}

// IsLogin reports whether a login completed and no logout followed.
func (s *Store) IsLogin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLogin
}

// Loading reports whether a login is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Status returns the last connection status pushed by the provider.
func (s *Store) Status() models.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// CurrentUser returns the profile of the logged-in user, or nil.
func (s *Store) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return nil
	}
	user := *s.currentUser
	return &user
}

// Conversations returns the conversation list.
func (s *Store) Conversations() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Conversation(nil), s.conversations...)
}

// CurrentConversation returns the selected conversation, or nil.
func (s *Store) CurrentConversation() *models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	conv := *s.current
	return &conv
}

// Messages returns the messages of conversationID, oldest first.
func (s *Store) Messages(conversationID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages[conversationID]...)
}

// CurrentMessages returns the messages of the selected conversation.
func (s *Store) CurrentMessages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return []models.Message{}
	}
	return append([]models.Message{}, s.messages[s.current.ConversationID]...)
}

// HasMoreMessages reports whether older history of conversationID can be
// requested. Conversations that were never loaded report true.
func (s *Store) HasMoreMessages(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[conversationID]
	if !ok {
		return true
	}
	return !page.isLastPage && page.nextCursor != ""
}

func (s *Store) ready() bool {
	return s.gw.IsReady()
}

func (s *Store) journalConversations(owner string, conversations []models.Conversation) {
	if s.journal == nil || owner == "" {
		return
	}
	if err := s.journal.SaveConversations(owner, conversations); err != nil {
		s.log.Warn("journal conversations failed", zap.String("owner", owner), zap.Error(err))
	}
}

func (s *Store) journalMessages(owner string, messages []models.Message) {
	if s.journal == nil || owner == "" || len(messages) == 0 {
		return
	}
	confirmed := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.IsTemporary() && msg.Status == models.StatusSent {
			confirmed = append(confirmed, msg)
		}
	}
	if len(confirmed) == 0 {
		return
	}
	if err := s.journal.SaveMessages(owner, confirmed); err != nil {
		s.log.Warn("journal messages failed", zap.String("owner", owner), zap.Int("count", len(confirmed)), zap.Error(err))
	}
}
