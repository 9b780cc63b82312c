package chatstore

import (
	"context"
	"fmt"
	"strings"

	"imchat/gateway"
	"imchat/models"
)

// UpdateStreamingMessage overwrites the content of message id in the
// current conversation. isEnd marks the stream as finished. Unknown ids
// are ignored.
func (s *Store) UpdateStreamingMessage(id, content string, isEnd bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	list := s.messages[s.current.ConversationID]
	i := indexOf(list, id)
	if i < 0 {
		return
	}
	list[i].Content = content
	if isEnd {
		list[i].IsStreaming = false
	}
}

// AppendStreamingMessage inserts msg into the current conversation as a
// streaming entry and returns it as stored. A missing id is replaced by a
// temporary one.
func (s *Store) AppendStreamingMessage(msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return models.Message{}, &gateway.InvalidStateError{Op: "stream", Reason: "no conversation selected"}
	}

	now := s.now()
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%s%d_%d", models.TempIDPrefix, now.UnixMilli(), s.tempSeq.Add(1))
	}
	if msg.Type == "" {
		msg.Type = models.MessageTypeText
	}
	if msg.Direction == "" {
		msg.Direction = models.DirectionReceived
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = now.Unix()
	}
	msg.ConversationID = s.current.ConversationID
	msg.Status = models.StatusSent
	msg.IsStreaming = true

	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return msg, nil
}

// ConsumeStream applies chunks to message id until a chunk marks the end,
// chunks is closed or ctx is done. Content accumulates across chunks. The
// message is always left finished.
func (s *Store) ConsumeStream(ctx context.Context, id string, chunks <-chan models.StreamChunk) error {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			s.UpdateStreamingMessage(id, b.String(), true)
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				s.UpdateStreamingMessage(id, b.String(), true)
				return nil
			}
			b.WriteString(chunk.Content)
			s.UpdateStreamingMessage(id, b.String(), chunk.IsEnd)
			if chunk.IsEnd {
				return nil
			}
		}
	}
}
