package storage

import (
	"errors"
	"fmt"
	"time"

	"imchat/models"
)

var (
	// ErrNotFound indicates a requested row does not exist.
	ErrNotFound = errors.New("storage: record not found")
	// ErrTemporaryMessage rejects optimistic entries that were never confirmed.
	ErrTemporaryMessage = errors.New("storage: temporary message ids are not stored")
)

// defaultMessageLimit caps GetMessages when no limit is given.
const defaultMessageLimit = 100

type scanner interface {
	Scan(dest ...any) error
}

func validateContentType(contentType models.MessageType) error {
	switch contentType {
	case models.MessageTypeText, models.MessageTypeImage, models.MessageTypeAudio, models.MessageTypeVideo, models.MessageTypeCustom:
		return nil
	default:
		return fmt.Errorf("invalid content type %q", contentType)
	}
}

func validateDirection(direction models.Direction) error {
	switch direction {
	case models.DirectionSent, models.DirectionReceived:
		return nil
	default:
		return fmt.Errorf("invalid direction %q", direction)
	}
}

func nowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
