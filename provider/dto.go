package provider

// Provider element types as reported on the wire.
const (
	ElemText   = "TIMTextElem"
	ElemImage  = "TIMImageElem"
	ElemSound  = "TIMSoundElem"
	ElemVideo  = "TIMVideoFileElem"
	ElemCustom = "TIMCustomElem"
)

// Conversation types as reported on the wire.
const (
	ConversationC2C   = "C2C"
	ConversationGroup = "GROUP"
)

// MessagePayload is the element body of a provider message.
type MessagePayload struct {
	Text string `json:"text,omitempty" mapstructure:"text"`
	Data string `json:"data,omitempty" mapstructure:"data"`
}

// MessageDTO is a provider message object.
type MessageDTO struct {
	ID             string          `json:"ID" mapstructure:"ID"`
	ConversationID string          `json:"conversationID" mapstructure:"conversationID"`
	From           string          `json:"from" mapstructure:"from"`
	To             string          `json:"to" mapstructure:"to"`
	Type           string          `json:"type" mapstructure:"type"`
	Time           int64           `json:"time" mapstructure:"time"`
	Payload        *MessagePayload `json:"payload,omitempty" mapstructure:"payload"`
}

// ProfileDTO is a provider user profile.
type ProfileDTO struct {
	UserID   string `json:"userID" mapstructure:"userID"`
	NickName string `json:"nick,omitempty" mapstructure:"nick"`
	Avatar   string `json:"avatar,omitempty" mapstructure:"avatar"`
}

// GroupProfileDTO is a provider group profile.
type GroupProfileDTO struct {
	GroupID string `json:"groupID" mapstructure:"groupID"`
	Name    string `json:"name,omitempty" mapstructure:"name"`
	Avatar  string `json:"avatar,omitempty" mapstructure:"avatar"`
}

// LastMessageDTO summarizes the latest message of a conversation.
type LastMessageDTO struct {
	LastTime int64           `json:"lastTime" mapstructure:"lastTime"`
	Payload  *MessagePayload `json:"payload,omitempty" mapstructure:"payload"`
}

// ConversationDTO is a provider conversation object.
type ConversationDTO struct {
	ConversationID string           `json:"conversationID" mapstructure:"conversationID"`
	Type           string           `json:"type" mapstructure:"type"`
	UnreadCount    int              `json:"unreadCount" mapstructure:"unreadCount"`
	UserProfile    *ProfileDTO      `json:"userProfile,omitempty" mapstructure:"userProfile"`
	GroupProfile   *GroupProfileDTO `json:"groupProfile,omitempty" mapstructure:"groupProfile"`
	LastMessage    *LastMessageDTO  `json:"lastMessage,omitempty" mapstructure:"lastMessage"`
}

// MessagePage is one newest-first page of conversation history.
type MessagePage struct {
	Messages   []MessageDTO `json:"messageList" mapstructure:"messageList"`
	NextCursor string       `json:"nextReqMessageID" mapstructure:"nextReqMessageID"`
	IsLastPage bool         `json:"isCompleted" mapstructure:"isCompleted"`
}
