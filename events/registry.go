// Package events fans provider pushes out to interested subscribers.
package events

import (
	"sync"

	"imchat/models"
)

// Kind identifies one of the independent subscriber lists.
type Kind string

const (
	KindMessage      Kind = "message"
	KindConversation Kind = "conversation"
	KindStatus       Kind = "status"
)

// MessageHandler receives one pushed message.
type MessageHandler func(models.Message)

// ConversationHandler receives a full conversation list snapshot.
type ConversationHandler func([]models.Conversation)

// StatusHandler receives connection status changes.
type StatusHandler func(models.SessionStatus)

type registration struct {
	id      uint64
	message MessageHandler
	convs   ConversationHandler
	status  StatusHandler
}

// Registry keeps three ordered subscriber lists. Delivery is synchronous
// and follows subscription order; identical handlers are not deduplicated.
type Registry struct {
	mu     sync.RWMutex
	nextID uint64
	lists  map[Kind][]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		lists: make(map[Kind][]registration),
	}
}

// SubscribeMessages registers a message-received handler.
func (r *Registry) SubscribeMessages(handler MessageHandler) *Subscription {
	return r.add(KindMessage, registration{message: handler})
}

// SubscribeConversations registers a conversation-list-updated handler.
func (r *Registry) SubscribeConversations(handler ConversationHandler) *Subscription {
	return r.add(KindConversation, registration{convs: handler})
}

// SubscribeStatus registers a connection-status handler.
func (r *Registry) SubscribeStatus(handler StatusHandler) *Subscription {
	return r.add(KindStatus, registration{status: handler})
}

// PublishMessage delivers message to every message subscriber.
func (r *Registry) PublishMessage(message models.Message) {
	for _, reg := range r.snapshot(KindMessage) {
		reg.message(message)
	}
}

// PublishConversations delivers a conversation list to every conversation subscriber.
func (r *Registry) PublishConversations(conversations []models.Conversation) {
	for _, reg := range r.snapshot(KindConversation) {
		reg.convs(conversations)
	}
}

// PublishStatus delivers a status change to every status subscriber.
func (r *Registry) PublishStatus(status models.SessionStatus) {
	for _, reg := range r.snapshot(KindStatus) {
		reg.status(status)
	}
}

// Len returns the number of live registrations for kind.
func (r *Registry) Len(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lists[kind])
}

func (r *Registry) add(kind Kind, reg registration) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	reg.id = r.nextID
	r.lists[kind] = append(r.lists[kind], reg)

	return &Subscription{registry: r, kind: kind, id: reg.id}
}

func (r *Registry) remove(kind Kind, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.lists[kind]
	for i, reg := range list {
		if reg.id != id {
			continue
		}
		next := make([]registration, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		r.lists[kind] = next
		return true
	}
	return false
}

// snapshot copies the list so handlers may unsubscribe while being delivered to.
func (r *Registry) snapshot(kind Kind) []registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]registration(nil), r.lists[kind]...)
}
