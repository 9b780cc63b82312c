package chatstore

import (
	"context"

	"go.uber.org/zap"

	"imchat/models"
)

func (s *Store) subscribe() {
	registry := s.gw.Registry()
	s.subs.Add(registry.SubscribeMessages(s.onMessage))
	s.subs.Add(registry.SubscribeConversations(s.onConversations))
	s.subs.Add(registry.SubscribeStatus(s.onStatus))
}

// onMessage appends a pushed message to its conversation and refreshes the
// conversation list.
func (s *Store) onMessage(msg models.Message) {
	s.mu.Lock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	owner := s.owner
	ctx := s.pushCtx
	s.mu.Unlock()

	s.log.Debug("message pushed", zap.String("conversation_id", msg.ConversationID), zap.String("message_id", msg.ID))
	s.journalMessages(owner, []models.Message{msg})

	if ctx == nil {
		ctx = context.Background()
	}
	s.LoadConversations(ctx)
}

func (s *Store) onConversations(conversations []models.Conversation) {
	list := append([]models.Conversation(nil), conversations...)

	s.mu.Lock()
	s.conversations = list
	owner := s.owner
	s.mu.Unlock()

	s.journalConversations(owner, list)
}

func (s *Store) onStatus(status models.SessionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if status != models.SessionReady {
		s.log.Warn("session status changed", zap.String("status", string(status)))
	}
}
