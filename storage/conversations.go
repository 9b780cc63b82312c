package storage

import (
	"errors"
	"fmt"

	"imchat/models"
)

// SaveConversations replaces the cached conversation list of owner. List
// order is preserved.
func (s *Store) SaveConversations(owner string, conversations []models.Conversation) error {
	if owner == "" {
		return errors.New("owner_user_id is required")
	}
	for _, conv := range conversations {
		if conv.ConversationID == "" {
			return errors.New("conversation_id is required")
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save conversations: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(`DELETE FROM conversations WHERE owner_user_id = ?`, owner); err != nil {
		return fmt.Errorf("clear conversations of %q: %w", owner, err)
	}

	updatedAt := nowUnixMilli()
	for position, conv := range conversations {
		if _, err := tx.Exec(
			`INSERT INTO conversations (
				owner_user_id,
				conversation_id,
				type,
				name,
				avatar,
				last_message,
				last_message_time,
				unread_count,
				position,
				updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			owner,
			conv.ConversationID,
			conv.Type,
			conv.Name,
			conv.Avatar,
			conv.LastMessage,
			conv.LastMessageTime,
			conv.UnreadCount,
			position,
			updatedAt,
		); err != nil {
			return fmt.Errorf("insert conversation %q: %w", conv.ConversationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save conversations: %w", err)
	}
	return nil
}

// ListConversations returns the cached conversation list of owner in the
// order it was saved.
func (s *Store) ListConversations(owner string) ([]models.Conversation, error) {
	if owner == "" {
		return nil, errors.New("owner_user_id is required")
	}

	rows, err := s.db.Query(
		`SELECT
			conversation_id,
			type,
			name,
			avatar,
			last_message,
			last_message_time,
			unread_count
		FROM conversations
		WHERE owner_user_id = ?
		ORDER BY position ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations of %q: %w", owner, err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ConversationID,
			&conv.Type,
			&conv.Name,
			&conv.Avatar,
			&conv.LastMessage,
			&conv.LastMessageTime,
			&conv.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}

	return conversations, nil
}
