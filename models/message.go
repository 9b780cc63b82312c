package models

import "strings"

// MessageType is the canonical content kind of a message.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeAudio  MessageType = "audio"
	MessageTypeVideo  MessageType = "video"
	MessageTypeCustom MessageType = "custom"
)

// Direction tells whether the local user sent or received a message.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// MessageStatus is the delivery lifecycle of a message in local state.
type MessageStatus string

const (
	StatusSending MessageStatus = "sending"
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
)

// TempIDPrefix marks locally generated ids of optimistic entries.
const TempIDPrefix = "temp_"

// Message is the normalized message shape consumed by views.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	Type           MessageType   `json:"type"`
	Content        string        `json:"content"`
	Direction      Direction     `json:"direction"`
	Timestamp      int64         `json:"timestamp"`
	Status         MessageStatus `json:"status"`
	IsStreaming    bool          `json:"is_streaming,omitempty"`
}

// IsTemporary reports whether the message still carries a client-generated id.
func (m Message) IsTemporary() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

// StreamChunk is one increment of a streamed message body.
type StreamChunk struct {
	Content string `json:"content"`
	IsEnd   bool   `json:"is_end"`
}
