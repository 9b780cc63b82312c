// Package provider defines the boundary to the instant-messaging SDK that
// owns transport, protocol and delivery. Everything behind Provider is an
// external collaborator; the rest of the module only sees DTOs.
package provider

import (
	"context"
	"fmt"
)

// DefaultPageSize is the number of messages requested per history page.
const DefaultPageSize = 20

// Handle is an opaque provider connection returned by Initialize.
type Handle interface {
	AppID() int
}

// Listener receives asynchronous pushes from the provider. Implementations
// must tolerate calls from any goroutine.
type Listener interface {
	MessageReceived(messages []MessageDTO)
	ConversationListUpdated(conversations []ConversationDTO)
	Ready()
	KickedOut()
	Error(detail string)
}

// RawListener is a Listener that also accepts pushes as untyped objects,
// the shape SDKs hand them over in. Providers that only have decoded JSON
// push through it when the listener supports it.
type RawListener interface {
	Listener
	RawMessagesReceived(messages []map[string]any)
	RawConversationListUpdated(conversations []map[string]any)
}

// Provider is the instant-messaging SDK collaborator.
type Provider interface {
	Initialize(appID int, listener Listener) (Handle, error)
	Authenticate(ctx context.Context, h Handle, userID, userSig string) error
	Deauthenticate(ctx context.Context, h Handle) error
	IsReady(h Handle) bool

	ListConversations(ctx context.Context, h Handle) ([]ConversationDTO, error)
	ListMessages(ctx context.Context, h Handle, conversationID, cursor string, count int) (MessagePage, error)
	SendText(ctx context.Context, h Handle, to, text string) (MessageDTO, error)
	FetchProfiles(ctx context.Context, h Handle, userIDs []string) ([]ProfileDTO, error)
}

// ResultError is a provider response carrying a non-zero result code.
type ResultError struct {
	Code    int
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("provider: code %d: %s", e.Code, e.Message)
}
