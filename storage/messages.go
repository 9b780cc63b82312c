package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"imchat/models"
)

// SaveMessages upserts confirmed messages for owner in one transaction.
// Temporary ids are rejected with ErrTemporaryMessage and nothing is written.
func (s *Store) SaveMessages(owner string, messages []models.Message) error {
	if owner == "" {
		return errors.New("owner_user_id is required")
	}
	for _, message := range messages {
		if message.ID == "" {
			return errors.New("message_id is required")
		}
		if message.IsTemporary() {
			return fmt.Errorf("save message %q: %w", message.ID, ErrTemporaryMessage)
		}
		if message.ConversationID == "" {
			return fmt.Errorf("save message %q: conversation_id is required", message.ID)
		}
		if err := validateDirection(message.Direction); err != nil {
			return err
		}
		if message.Type != "" {
			if err := validateContentType(message.Type); err != nil {
				return err
			}
		}
	}
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save messages: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(
		`INSERT INTO messages (
			owner_user_id,
			message_id,
			conversation_id,
			from_user_id,
			to_user_id,
			content_type,
			content,
			direction,
			timestamp,
			stored_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_user_id, message_id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			from_user_id = excluded.from_user_id,
			to_user_id = excluded.to_user_id,
			content_type = excluded.content_type,
			content = excluded.content,
			direction = excluded.direction,
			timestamp = excluded.timestamp,
			stored_at = excluded.stored_at`,
	)
	if err != nil {
		return fmt.Errorf("prepare save messages: %w", err)
	}
	defer stmt.Close()

	storedAt := nowUnixMilli()
	for _, message := range messages {
		contentType := message.Type
		if contentType == "" {
			contentType = models.MessageTypeText
		}
		if _, err := stmt.Exec(
			owner,
			message.ID,
			message.ConversationID,
			message.From,
			message.To,
			string(contentType),
			message.Content,
			string(message.Direction),
			message.Timestamp,
			storedAt,
		); err != nil {
			return fmt.Errorf("upsert message %q: %w", message.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save messages: %w", err)
	}
	return nil
}

// GetMessages returns cached messages of one conversation ordered oldest
// to newest.
func (s *Store) GetMessages(owner, conversationID string, limit, offset int) ([]models.Message, error) {
	if owner == "" {
		return nil, errors.New("owner_user_id is required")
	}
	if conversationID == "" {
		return nil, errors.New("conversation_id is required")
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(
		`SELECT
			message_id,
			conversation_id,
			from_user_id,
			to_user_id,
			content_type,
			content,
			direction,
			timestamp
		FROM messages
		WHERE owner_user_id = ? AND conversation_id = ?
		ORDER BY timestamp ASC, stored_at ASC, message_id ASC
		LIMIT ? OFFSET ?`,
		owner,
		conversationID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages for conversation %q: %w", conversationID, err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}

// GetMessageByID fetches one cached message.
func (s *Store) GetMessageByID(owner, messageID string) (*models.Message, error) {
	if owner == "" {
		return nil, errors.New("owner_user_id is required")
	}
	if messageID == "" {
		return nil, errors.New("message_id is required")
	}

	row := s.db.QueryRow(
		`SELECT
			message_id,
			conversation_id,
			from_user_id,
			to_user_id,
			content_type,
			content,
			direction,
			timestamp
		FROM messages
		WHERE owner_user_id = ? AND message_id = ?`,
		owner,
		messageID,
	)

	message, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get message %q: %w", messageID, err)
	}
	return message, nil
}

// CountMessages returns the number of cached messages of one conversation.
func (s *Store) CountMessages(owner, conversationID string) (int, error) {
	var count int
	if err := s.db.QueryRow(
		`SELECT COUNT(1) FROM messages WHERE owner_user_id = ? AND conversation_id = ?`,
		owner,
		conversationID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages for conversation %q: %w", conversationID, err)
	}
	return count, nil
}

// DeleteOwner removes every cached row of owner. It returns the number of
// deleted messages.
func (s *Store) DeleteOwner(owner string) (int64, error) {
	if owner == "" {
		return 0, errors.New("owner_user_id is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin delete owner: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.Exec(`DELETE FROM messages WHERE owner_user_id = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("delete messages of %q: %w", owner, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for delete owner %q: %w", owner, err)
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE owner_user_id = ?`, owner); err != nil {
		return 0, fmt.Errorf("delete conversations of %q: %w", owner, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete owner: %w", err)
	}
	return deleted, nil
}

func scanMessage(row scanner) (*models.Message, error) {
	var (
		message     models.Message
		contentType string
		direction   string
	)

	if err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.From,
		&message.To,
		&contentType,
		&message.Content,
		&direction,
		&message.Timestamp,
	); err != nil {
		return nil, err
	}

	message.Type = models.MessageType(contentType)
	message.Direction = models.Direction(direction)
	message.Status = models.StatusSent
	return &message, nil
}
