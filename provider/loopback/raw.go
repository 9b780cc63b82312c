package loopback

import "imchat/provider"

// EmitRaw pushes untyped message objects to a listener that accepts them.
// It reports false when the listener only takes typed pushes.
func (p *Provider) EmitRaw(messages ...map[string]any) bool {
	raw, ok := p.currentListener().(provider.RawListener)
	if !ok {
		return false
	}
	raw.RawMessagesReceived(messages)
	return true
}

func pushMessages(listener provider.Listener, messages []provider.MessageDTO) {
	raw, ok := listener.(provider.RawListener)
	if !ok {
		listener.MessageReceived(messages)
		return
	}
	objects := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		objects = append(objects, rawMessage(msg))
	}
	raw.RawMessagesReceived(objects)
}

func pushConversations(listener provider.Listener, conversations []provider.ConversationDTO) {
	raw, ok := listener.(provider.RawListener)
	if !ok {
		listener.ConversationListUpdated(conversations)
		return
	}
	objects := make([]map[string]any, 0, len(conversations))
	for _, conv := range conversations {
		objects = append(objects, rawConversation(conv))
	}
	raw.RawConversationListUpdated(objects)
}

// rawMessage renders msg the way a JSON-decoding SDK delivers it: numbers
// arrive as float64 and nested objects as maps.
func rawMessage(msg provider.MessageDTO) map[string]any {
	obj := map[string]any{
		"ID":             msg.ID,
		"conversationID": msg.ConversationID,
		"from":           msg.From,
		"to":             msg.To,
		"type":           msg.Type,
		"time":           float64(msg.Time),
	}
	if msg.Payload != nil {
		obj["payload"] = rawPayload(msg.Payload)
	}
	return obj
}

func rawConversation(conv provider.ConversationDTO) map[string]any {
	obj := map[string]any{
		"conversationID": conv.ConversationID,
		"type":           conv.Type,
		"unreadCount":    float64(conv.UnreadCount),
	}
	if conv.UserProfile != nil {
		obj["userProfile"] = map[string]any{
			"userID": conv.UserProfile.UserID,
			"nick":   conv.UserProfile.NickName,
			"avatar": conv.UserProfile.Avatar,
		}
	}
	if conv.GroupProfile != nil {
		obj["groupProfile"] = map[string]any{
			"groupID": conv.GroupProfile.GroupID,
			"name":    conv.GroupProfile.Name,
			"avatar":  conv.GroupProfile.Avatar,
		}
	}
	if conv.LastMessage != nil {
		last := map[string]any{"lastTime": float64(conv.LastMessage.LastTime)}
		if conv.LastMessage.Payload != nil {
			last["payload"] = rawPayload(conv.LastMessage.Payload)
		}
		obj["lastMessage"] = last
	}
	return obj
}

func rawPayload(payload *provider.MessagePayload) map[string]any {
	obj := map[string]any{"text": payload.Text}
	if payload.Data != "" {
		obj["data"] = payload.Data
	}
	return obj
}
