// Package normalize maps provider DTOs onto the canonical models. All
// functions are pure.
package normalize

import (
	"imchat/models"
	"imchat/provider"
)

// UnknownName is shown for conversations without any usable profile name.
const UnknownName = "Unknown"

// MessageType maps a provider element type onto the canonical enum.
// Unrecognized element types are treated as custom.
func MessageType(elem string) models.MessageType {
	switch elem {
	case provider.ElemText:
		return models.MessageTypeText
	case provider.ElemImage:
		return models.MessageTypeImage
	case provider.ElemSound:
		return models.MessageTypeAudio
	case provider.ElemVideo:
		return models.MessageTypeVideo
	default:
		return models.MessageTypeCustom
	}
}

// Message converts a provider message. Direction is derived by comparing
// the sender with the authenticated local user.
func Message(dto provider.MessageDTO, localUserID string) models.Message {
	direction := models.DirectionReceived
	if localUserID != "" && dto.From == localUserID {
		direction = models.DirectionSent
	}

	return models.Message{
		ID:             dto.ID,
		ConversationID: dto.ConversationID,
		From:           dto.From,
		To:             dto.To,
		Type:           MessageType(dto.Type),
		Content:        payloadText(dto.Payload),
		Direction:      direction,
		Timestamp:      dto.Time,
		Status:         models.StatusSent,
	}
}

// Messages converts a batch preserving order.
func Messages(dtos []provider.MessageDTO, localUserID string) []models.Message {
	out := make([]models.Message, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, Message(dto, localUserID))
	}
	return out
}

// Conversation converts a provider conversation.
func Conversation(dto provider.ConversationDTO) models.Conversation {
	conv := models.Conversation{
		ConversationID: dto.ConversationID,
		Type:           dto.Type,
		Name:           conversationName(dto),
		UnreadCount:    dto.UnreadCount,
	}

	if dto.GroupProfile != nil && dto.Type == provider.ConversationGroup {
		conv.Avatar = dto.GroupProfile.Avatar
	} else if dto.UserProfile != nil {
		conv.Avatar = dto.UserProfile.Avatar
	}

	if dto.LastMessage != nil {
		conv.LastMessage = payloadText(dto.LastMessage.Payload)
		conv.LastMessageTime = dto.LastMessage.LastTime
	}

	return conv
}

// Conversations converts a batch preserving order.
func Conversations(dtos []provider.ConversationDTO) []models.Conversation {
	out := make([]models.Conversation, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, Conversation(dto))
	}
	return out
}

// User converts a provider profile.
func User(dto provider.ProfileDTO) models.User {
	return models.User{
		UserID:   dto.UserID,
		NickName: dto.NickName,
		Avatar:   dto.Avatar,
	}
}

// Users converts a batch preserving order.
func Users(dtos []provider.ProfileDTO) []models.User {
	out := make([]models.User, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, User(dto))
	}
	return out
}

func conversationName(dto provider.ConversationDTO) string {
	if dto.Type == provider.ConversationGroup && dto.GroupProfile != nil && dto.GroupProfile.Name != "" {
		return dto.GroupProfile.Name
	}
	if dto.UserProfile != nil {
		if dto.UserProfile.NickName != "" {
			return dto.UserProfile.NickName
		}
		if dto.UserProfile.UserID != "" {
			return dto.UserProfile.UserID
		}
	}
	return UnknownName
}

func payloadText(payload *provider.MessagePayload) string {
	if payload == nil {
		return ""
	}
	return payload.Text
}
