package models

// Conversation is an addressable thread with one peer or group.
type Conversation struct {
	ConversationID  string `json:"conversation_id"`
	Type            string `json:"type"`
	Name            string `json:"name"`
	Avatar          string `json:"avatar,omitempty"`
	LastMessage     string `json:"last_message,omitempty"`
	LastMessageTime int64  `json:"last_message_time,omitempty"`
	UnreadCount     int    `json:"unread_count"`
}
