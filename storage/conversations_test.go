package storage

import (
	"testing"

	"imchat/models"
)

func TestSaveConversationsReplacesSnapshot(t *testing.T) {
	store := newTestStore(t)

	first := []models.Conversation{
		{ConversationID: "C2Cbob", Type: "C2C", Name: "Bob", LastMessage: "hi", LastMessageTime: 1700000001, UnreadCount: 2},
		{ConversationID: "C2Ccarol", Type: "C2C", Name: "carol"},
	}
	if err := store.SaveConversations("alice", first); err != nil {
		t.Fatalf("SaveConversations failed: %v", err)
	}

	got, err := store.ListConversations("alice")
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(got) != 2 || got[0] != first[0] || got[1] != first[1] {
		t.Fatalf("unexpected cached conversations: %+v", got)
	}

	second := []models.Conversation{
		{ConversationID: "C2Ccarol", Type: "C2C", Name: "carol", LastMessage: "new", UnreadCount: 1},
	}
	if err := store.SaveConversations("alice", second); err != nil {
		t.Fatalf("second SaveConversations failed: %v", err)
	}
	got, err = store.ListConversations("alice")
	if err != nil {
		t.Fatalf("ListConversations after replace failed: %v", err)
	}
	if len(got) != 1 || got[0] != second[0] {
		t.Fatalf("expected snapshot replacement, got %+v", got)
	}

	if other, err := store.ListConversations("carol"); err != nil || len(other) != 0 {
		t.Fatalf("expected no conversations for another owner, got %+v err=%v", other, err)
	}
}

func TestSaveConversationsValidation(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveConversations("", nil); err == nil {
		t.Fatalf("expected missing owner to be rejected")
	}
	if err := store.SaveConversations("alice", []models.Conversation{{Name: "nameless"}}); err == nil {
		t.Fatalf("expected missing conversation id to be rejected")
	}
}
