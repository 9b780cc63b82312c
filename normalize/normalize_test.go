package normalize

import (
	"strings"
	"testing"

	"imchat/models"
	"imchat/provider"
)

func TestMessageDirectionUsesLocalIdentity(t *testing.T) {
	dto := provider.MessageDTO{
		ID:             "m-1",
		ConversationID: "C2Cbob",
		From:           "alice",
		To:             "bob",
		Type:           provider.ElemText,
		Time:           1700000000,
		Payload:        &provider.MessagePayload{Text: "hi"},
	}

	sent := Message(dto, "alice")
	if sent.Direction != models.DirectionSent {
		t.Fatalf("expected sent direction for local sender, got %q", sent.Direction)
	}
	if sent.Content != "hi" || sent.Type != models.MessageTypeText || sent.Status != models.StatusSent {
		t.Fatalf("unexpected normalized message: %+v", sent)
	}

	received := Message(dto, "bob")
	if received.Direction != models.DirectionReceived {
		t.Fatalf("expected received direction for remote sender, got %q", received.Direction)
	}

	// The literal "user" carries no special meaning.
	dto.From = "user"
	if got := Message(dto, "alice").Direction; got != models.DirectionReceived {
		t.Fatalf("expected literal \"user\" sender to be received, got %q", got)
	}
}

func TestMessageContentFallsBackToEmpty(t *testing.T) {
	msg := Message(provider.MessageDTO{ID: "img-1", Type: provider.ElemImage}, "alice")
	if msg.Content != "" {
		t.Fatalf("expected empty content, got %q", msg.Content)
	}
	if msg.Type != models.MessageTypeImage {
		t.Fatalf("expected image type, got %q", msg.Type)
	}

	if got := MessageType("TIMLocationElem"); got != models.MessageTypeCustom {
		t.Fatalf("expected unknown elem to map to custom, got %q", got)
	}
}

func TestConversationNameFallbacks(t *testing.T) {
	cases := []struct {
		name string
		dto  provider.ConversationDTO
		want string
	}{
		{
			name: "nickname",
			dto:  provider.ConversationDTO{UserProfile: &provider.ProfileDTO{UserID: "bob", NickName: "Bob"}},
			want: "Bob",
		},
		{
			name: "user id",
			dto:  provider.ConversationDTO{UserProfile: &provider.ProfileDTO{UserID: "bob"}},
			want: "bob",
		},
		{
			name: "no profile",
			dto:  provider.ConversationDTO{},
			want: UnknownName,
		},
		{
			name: "empty profile",
			dto:  provider.ConversationDTO{UserProfile: &provider.ProfileDTO{}},
			want: UnknownName,
		},
		{
			name: "group",
			dto: provider.ConversationDTO{
				Type:         provider.ConversationGroup,
				GroupProfile: &provider.GroupProfileDTO{GroupID: "g1", Name: "Team"},
			},
			want: "Team",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Conversation(tc.dto).Name; got != tc.want {
				t.Fatalf("expected name %q, got %q", tc.want, got)
			}
		})
	}
}

func TestConversationLastMessage(t *testing.T) {
	conv := Conversation(provider.ConversationDTO{
		ConversationID: "C2Cbob",
		Type:           provider.ConversationC2C,
		UnreadCount:    3,
		UserProfile:    &provider.ProfileDTO{UserID: "bob", Avatar: "https://example.test/bob.png"},
		LastMessage: &provider.LastMessageDTO{
			LastTime: 1700000100,
			Payload:  &provider.MessagePayload{Text: "see you"},
		},
	})

	if conv.LastMessage != "see you" || conv.LastMessageTime != 1700000100 {
		t.Fatalf("unexpected last message fields: %+v", conv)
	}
	if conv.UnreadCount != 3 || conv.Avatar != "https://example.test/bob.png" {
		t.Fatalf("unexpected conversation fields: %+v", conv)
	}

	empty := Conversation(provider.ConversationDTO{ConversationID: "C2Ccarol"})
	if empty.LastMessage != "" || empty.LastMessageTime != 0 {
		t.Fatalf("expected zero last message fields, got %+v", empty)
	}
}

func TestDecodeMessageWeaklyTyped(t *testing.T) {
	dto, err := DecodeMessage(map[string]any{
		"ID":             "m-7",
		"conversationID": "C2Cbob",
		"from":           "bob",
		"to":             "alice",
		"type":           provider.ElemText,
		"time":           float64(1700000000),
		"payload":        map[string]any{"text": "hello"},
		"flow":           "in",
	})
	if err != nil {
		t.Fatalf("DecodeMessage failed: %v", err)
	}
	if dto.Time != 1700000000 {
		t.Fatalf("expected decoded time, got %d", dto.Time)
	}
	if dto.Payload == nil || dto.Payload.Text != "hello" {
		t.Fatalf("expected decoded payload, got %+v", dto.Payload)
	}

	dto, err = DecodeMessage(map[string]any{
		"ID":      "m-8",
		"time":    "1700000001",
		"payload": `{"text":"from json"}`,
	})
	if err != nil {
		t.Fatalf("DecodeMessage with string fields failed: %v", err)
	}
	if dto.Time != 1700000001 {
		t.Fatalf("expected string time to decode, got %d", dto.Time)
	}
	if dto.Payload == nil || dto.Payload.Text != "from json" {
		t.Fatalf("expected JSON string payload to decode, got %+v", dto.Payload)
	}

	if _, err := DecodeMessage(nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestDecodeConversations(t *testing.T) {
	conv, err := DecodeConversation(map[string]any{
		"conversationID": "GROUPteam",
		"type":           provider.ConversationGroup,
		"unreadCount":    "2",
		"groupProfile":   map[string]any{"groupID": "team", "name": "Team"},
	})
	if err != nil {
		t.Fatalf("DecodeConversation failed: %v", err)
	}
	if got := Conversation(conv); got.Name != "Team" || got.UnreadCount != 2 {
		t.Fatalf("unexpected conversation: %+v", got)
	}

	list, err := DecodeConversations([]map[string]any{
		{"conversationID": "C2Cbob", "type": provider.ConversationC2C, "userProfile": map[string]any{"userID": "bob"}},
		{"conversationID": "C2Ccarol", "type": provider.ConversationC2C, "unreadCount": 1.0},
	})
	if err != nil {
		t.Fatalf("DecodeConversations failed: %v", err)
	}
	if len(list) != 2 || list[0].UserProfile == nil || list[0].UserProfile.UserID != "bob" || list[1].UnreadCount != 1 {
		t.Fatalf("unexpected conversations: %+v", list)
	}
}

func TestDecodeBatchesStopAtMalformedEntry(t *testing.T) {
	_, err := DecodeMessages([]map[string]any{
		{"ID": "m-1", "time": 1700000001.0},
		{"ID": "m-2", "time": "yesterday"},
	})
	if err == nil || !strings.Contains(err.Error(), "entry 1") {
		t.Fatalf("expected error naming entry 1, got %v", err)
	}

	if _, err := DecodeConversations([]map[string]any{nil}); err == nil {
		t.Fatalf("expected error for nil conversation entry")
	}
}
