package loopback

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"imchat/provider"
)

// AddUser registers a profile returned by FetchProfiles.
func (p *Provider) AddUser(profile provider.ProfileDTO) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[profile.UserID] = profile
}

// AddConversation appends conv to the end of the conversation list, or
// replaces the entry with the same id.
func (p *Provider) AddConversation(conv provider.ConversationDTO) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conv = cloneConversation(conv)
	for i, existing := range p.conversations {
		if existing.ConversationID == conv.ConversationID {
			p.conversations[i] = conv
			return
		}
	}
	p.conversations = append(p.conversations, conv)
}

// AddHistory appends messages, given oldest first, to a conversation's
// history without touching the conversation list.
func (p *Provider) AddHistory(conversationID string, messages ...provider.MessageDTO) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, msg := range messages {
		msg = cloneMessage(msg)
		if msg.ConversationID == "" {
			msg.ConversationID = conversationID
		}
		p.history[conversationID] = append(p.history[conversationID], msg)
	}
}

// FailNext makes the next call of op fail with a provider result code.
// Multiple calls queue failures in order.
func (p *Provider) FailNext(op Op, code int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], &provider.ResultError{Code: code, Message: message})
}

// HoldSends makes every subsequent SendText wait for the returned gate.
func (p *Provider) HoldSends() *Gate {
	gate := &Gate{
		tokens: make(chan struct{}),
		open:   make(chan struct{}),
	}
	p.mu.Lock()
	p.gate = gate
	p.mu.Unlock()
	return gate
}

// Deliver records a text message from a remote user to the authenticated
// user and pushes it to the listener, untyped when the listener accepts
// raw pushes.
func (p *Provider) Deliver(from, text string) provider.MessageDTO {
	p.mu.Lock()
	msg := provider.MessageDTO{
		ID:             uuid.NewString(),
		ConversationID: C2CConversationID(from),
		From:           from,
		To:             p.authedUser,
		Type:           provider.ElemText,
		Time:           p.now().Unix(),
		Payload:        &provider.MessagePayload{Text: text},
	}
	p.appendLocked(msg)
	listener := p.listener
	p.mu.Unlock()

	if listener != nil {
		pushMessages(listener, []provider.MessageDTO{cloneMessage(msg)})
	}
	return msg
}

// EmitMessages pushes messages to the listener as-is.
func (p *Provider) EmitMessages(messages ...provider.MessageDTO) {
	if listener := p.currentListener(); listener != nil {
		listener.MessageReceived(messages)
	}
}

// EmitConversations pushes the current conversation list to the listener,
// untyped when the listener accepts raw pushes.
func (p *Provider) EmitConversations() {
	p.mu.Lock()
	list := make([]provider.ConversationDTO, 0, len(p.conversations))
	for _, conv := range p.conversations {
		list = append(list, cloneConversation(conv))
	}
	listener := p.listener
	p.mu.Unlock()

	if listener != nil {
		pushConversations(listener, list)
	}
}

// EmitKickedOut drops the session and pushes the kicked-out notification.
func (p *Provider) EmitKickedOut() {
	p.mu.Lock()
	p.ready = false
	listener := p.listener
	p.mu.Unlock()

	if listener != nil {
		listener.KickedOut()
	}
}

// EmitError pushes a provider error notification.
func (p *Provider) EmitError(detail string) {
	if listener := p.currentListener(); listener != nil {
		listener.Error(detail)
	}
}

func (p *Provider) currentListener() provider.Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listener
}

// Gate holds SendText calls until released.
type Gate struct {
	tokens chan struct{}
	open   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	waiting int
}

// Waiting returns the number of sends currently blocked on the gate.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting
}

// Release lets exactly one blocked send continue. It blocks until a send
// takes the token.
func (g *Gate) Release() {
	select {
	case g.tokens <- struct{}{}:
	case <-g.open:
	}
}

// Open lets every current and future send through.
func (g *Gate) Open() {
	g.once.Do(func() {
		close(g.open)
	})
}

func (g *Gate) wait(ctx context.Context) error {
	g.mu.Lock()
	g.waiting++
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.waiting--
		g.mu.Unlock()
	}()

	select {
	case <-g.tokens:
		return nil
	case <-g.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
