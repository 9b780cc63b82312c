package storage

import (
	"errors"
	"testing"

	"imchat/models"
)

func textMessage(id, from, to string, ts int64, direction models.Direction) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: "C2Cbob",
		From:           from,
		To:             to,
		Type:           models.MessageTypeText,
		Content:        "content of " + id,
		Direction:      direction,
		Timestamp:      ts,
		Status:         models.StatusSent,
	}
}

func TestMessageCRUD(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveMessages("alice", []models.Message{
		textMessage("msg-new", "alice", "bob", 1700000002, models.DirectionSent),
		textMessage("msg-old", "bob", "alice", 1700000001, models.DirectionReceived),
	}); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	conversation, err := store.GetMessages("alice", "C2Cbob", 10, 0)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(conversation) != 2 {
		t.Fatalf("expected 2 conversation messages, got %d", len(conversation))
	}
	if conversation[0].ID != "msg-old" || conversation[1].ID != "msg-new" {
		t.Fatalf("messages are not ordered by timestamp ascending")
	}
	if conversation[0].Direction != models.DirectionReceived || conversation[0].Status != models.StatusSent {
		t.Fatalf("unexpected scanned message: %+v", conversation[0])
	}

	updated := textMessage("msg-new", "alice", "bob", 1700000002, models.DirectionSent)
	updated.Content = "edited"
	if err := store.SaveMessages("alice", []models.Message{updated}); err != nil {
		t.Fatalf("SaveMessages upsert failed: %v", err)
	}
	got, err := store.GetMessageByID("alice", "msg-new")
	if err != nil {
		t.Fatalf("GetMessageByID failed: %v", err)
	}
	if got.Content != "edited" {
		t.Fatalf("expected upsert to replace content, got %q", got.Content)
	}

	count, err := store.CountMessages("alice", "C2Cbob")
	if err != nil {
		t.Fatalf("CountMessages failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected upsert to keep 2 rows, got %d", count)
	}

	page, err := store.GetMessages("alice", "C2Cbob", 1, 1)
	if err != nil {
		t.Fatalf("GetMessages with offset failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != "msg-new" {
		t.Fatalf("unexpected offset page: %+v", page)
	}

	if _, err := store.GetMessageByID("alice", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessagesAreScopedByOwner(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveMessages("alice", []models.Message{textMessage("m-1", "alice", "bob", 1, models.DirectionSent)}); err != nil {
		t.Fatalf("SaveMessages alice failed: %v", err)
	}
	if err := store.SaveMessages("carol", []models.Message{textMessage("m-1", "bob", "carol", 1, models.DirectionReceived)}); err != nil {
		t.Fatalf("SaveMessages carol failed: %v", err)
	}

	aliceMessages, err := store.GetMessages("alice", "C2Cbob", 0, 0)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(aliceMessages) != 1 || aliceMessages[0].Direction != models.DirectionSent {
		t.Fatalf("unexpected alice messages: %+v", aliceMessages)
	}

	deleted, err := store.DeleteOwner("alice")
	if err != nil {
		t.Fatalf("DeleteOwner failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted message, got %d", deleted)
	}
	if count, _ := store.CountMessages("carol", "C2Cbob"); count != 1 {
		t.Fatalf("expected carol's cache to be untouched, got %d", count)
	}
}

func TestSaveMessagesValidation(t *testing.T) {
	store := newTestStore(t)

	temp := textMessage(models.TempIDPrefix+"1700000000000_1", "alice", "bob", 1, models.DirectionSent)
	confirmed := textMessage("m-ok", "alice", "bob", 1, models.DirectionSent)
	if err := store.SaveMessages("alice", []models.Message{confirmed, temp}); !errors.Is(err, ErrTemporaryMessage) {
		t.Fatalf("expected ErrTemporaryMessage, got %v", err)
	}
	if count, _ := store.CountMessages("alice", "C2Cbob"); count != 0 {
		t.Fatalf("expected rejected batch to write nothing, got %d rows", count)
	}

	bad := textMessage("m-bad", "alice", "bob", 1, models.Direction("sideways"))
	if err := store.SaveMessages("alice", []models.Message{bad}); err == nil {
		t.Fatalf("expected invalid direction to be rejected")
	}
	if err := store.SaveMessages("", []models.Message{confirmed}); err == nil {
		t.Fatalf("expected missing owner to be rejected")
	}
	if err := store.SaveMessages("alice", nil); err != nil {
		t.Fatalf("expected empty batch to be accepted, got %v", err)
	}
}
