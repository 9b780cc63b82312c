package chatstore

import (
	"context"

	"imchat/models"
)

// LoadConversations replaces the conversation list with the provider's.
// When nothing is selected yet the first conversation is selected in the
// same critical section, so a concurrent SelectConversation is never
// overwritten.
func (s *Store) LoadConversations(ctx context.Context) {
	if !s.ready() {
		return
	}

	list := s.gw.GetConversationList(ctx)

	s.mu.Lock()
	s.conversations = list
	owner := s.owner
	var load string
	if len(list) > 0 && s.current == nil {
		conv := list[0]
		s.current = &conv
		if _, loaded := s.pages[conv.ConversationID]; !loaded {
			load = conv.ConversationID
		}
	}
	s.mu.Unlock()

	s.journalConversations(owner, list)

	if load != "" {
		s.LoadMessages(ctx, load, "")
	}
}

// SelectConversation makes conv the current conversation and loads its
// first history page unless it was loaded before.
func (s *Store) SelectConversation(ctx context.Context, conv models.Conversation) {
	s.mu.Lock()
	s.current = &conv
	_, loaded := s.pages[conv.ConversationID]
	s.mu.Unlock()

	if !loaded {
		s.LoadMessages(ctx, conv.ConversationID, "")
	}
}
