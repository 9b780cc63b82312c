package chatstore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"imchat/gateway"
	"imchat/models"
	"imchat/provider"
)

// LoadMessages fetches one history page of conversationID and merges it
// oldest first. The first load replaces the list, keeping unconfirmed
// local entries at its end; later loads prepend.
func (s *Store) LoadMessages(ctx context.Context, conversationID, cursor string) {
	if !s.ready() {
		return
	}

	page := s.gw.GetMessageList(ctx, conversationID, cursor)
	older := make([]models.Message, len(page.Messages))
	for i, msg := range page.Messages {
		older[len(older)-1-i] = msg
	}

	s.mu.Lock()
	existing := s.messages[conversationID]
	if _, loaded := s.pages[conversationID]; !loaded {
		merged := older
		for _, msg := range existing {
			if msg.IsTemporary() {
				merged = append(merged, msg)
			}
		}
		s.messages[conversationID] = merged
	} else {
		merged := make([]models.Message, 0, len(older)+len(existing))
		merged = append(merged, older...)
		merged = append(merged, existing...)
		s.messages[conversationID] = merged
	}
	s.pages[conversationID] = pageState{nextCursor: page.NextCursor, isLastPage: page.IsLastPage}
	owner := s.owner
	s.mu.Unlock()

	s.journalMessages(owner, older)
}

// LoadOlderMessages loads the page preceding the oldest loaded message of
// the current conversation. It reports whether a page was requested.
func (s *Store) LoadOlderMessages(ctx context.Context) bool {
	s.mu.RLock()
	if s.current == nil {
		s.mu.RUnlock()
		return false
	}
	conversationID := s.current.ConversationID
	page, loaded := s.pages[conversationID]
	s.mu.RUnlock()

	if loaded && (page.isLastPage || page.nextCursor == "") {
		return false
	}
	s.LoadMessages(ctx, conversationID, page.nextCursor)
	return true
}

// SendMessage sends text to the current conversation. An optimistic entry
// is appended first and replaced in place by the confirmed message, or
// marked failed when the send fails. The confirmed message keeps the
// conversation id it was sent from.
func (s *Store) SendMessage(ctx context.Context, text string) (models.Message, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return models.Message{}, &gateway.InvalidStateError{Op: "send", Reason: "no conversation selected"}
	}
	conv := *s.current
	s.mu.Unlock()

	if !s.ready() {
		return models.Message{}, &gateway.InvalidStateError{Op: "send", Reason: "not logged in"}
	}
	to, peerErr := peerID(conv)

	now := s.now()
	temp := models.Message{
		ID:             fmt.Sprintf("%s%d_%d", models.TempIDPrefix, now.UnixMilli(), s.tempSeq.Add(1)),
		ConversationID: conv.ConversationID,
		To:             to,
		Type:           models.MessageTypeText,
		Content:        text,
		Direction:      models.DirectionSent,
		Timestamp:      now.Unix(),
		Status:         models.StatusSending,
	}

	s.mu.Lock()
	if s.currentUser != nil {
		temp.From = s.currentUser.UserID
	}
	s.messages[conv.ConversationID] = append(s.messages[conv.ConversationID], temp)
	owner := s.owner
	s.mu.Unlock()

	if peerErr != nil {
		return s.failSend(temp, peerErr)
	}

	sent, err := s.gw.SendTextMessage(ctx, to, text)
	if err != nil {
		return s.failSend(temp, err)
	}
	sent.ConversationID = conv.ConversationID

	s.mu.Lock()
	if i := indexOf(s.messages[conv.ConversationID], temp.ID); i >= 0 {
		s.messages[conv.ConversationID][i] = sent
	}
	s.mu.Unlock()

	s.journalMessages(owner, []models.Message{sent})
	return sent, nil
}

// failSend marks the optimistic entry temp failed in place.
func (s *Store) failSend(temp models.Message, err error) (models.Message, error) {
	s.mu.Lock()
	if i := indexOf(s.messages[temp.ConversationID], temp.ID); i >= 0 {
		s.messages[temp.ConversationID][i].Status = models.StatusFailed
	}
	s.mu.Unlock()

	temp.Status = models.StatusFailed
	s.log.Warn("send failed", zap.String("conversation_id", temp.ConversationID), zap.String("temp_id", temp.ID), zap.Error(err))
	return temp, err
}

// peerID returns the user a text send to conv is addressed to. Only
// one-to-one conversations accept text sends.
func peerID(conv models.Conversation) (string, error) {
	if conv.Type != "" && conv.Type != provider.ConversationC2C {
		return "", &gateway.SendError{
			To:      conv.ConversationID,
			Code:    -1,
			Message: fmt.Sprintf("conversation type %q does not accept text sends", conv.Type),
		}
	}
	to := strings.TrimPrefix(conv.ConversationID, provider.ConversationC2C)
	if to == "" {
		return "", &gateway.SendError{To: conv.ConversationID, Code: -1, Message: "conversation has no peer"}
	}
	return to, nil
}

func indexOf(list []models.Message, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
