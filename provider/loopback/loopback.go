// Package loopback is an in-memory provider.Provider. It backs the sandbox
// command and the tests of the packages built on top of the provider
// boundary.
package loopback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"imchat/provider"
)

// Op names a provider operation for failure injection.
type Op string

const (
	OpInitialize        Op = "initialize"
	OpAuthenticate      Op = "authenticate"
	OpDeauthenticate    Op = "deauthenticate"
	OpListConversations Op = "list_conversations"
	OpListMessages      Op = "list_messages"
	OpSendText          Op = "send_text"
	OpFetchProfiles     Op = "fetch_profiles"
)

// ErrNotInitialized is returned for calls made with a handle this provider did not issue.
var ErrNotInitialized = errors.New("loopback: handle not initialized")

type handle struct {
	appID int
}

func (h *handle) AppID() int {
	return h.appID
}

// Provider keeps users, conversations and history in memory.
type Provider struct {
	mu sync.Mutex

	handle   *handle
	listener provider.Listener
	initN    int

	credentials map[string]string
	authedUser  string
	ready       bool

	users         map[string]provider.ProfileDTO
	conversations []provider.ConversationDTO
	// history is kept oldest-first per conversation.
	history map[string][]provider.MessageDTO

	failures map[Op][]*provider.ResultError
	gate     *Gate
	now      func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the time source used for sent messages.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCredential requires userSig for userID at Authenticate. Without any
// registered credential every non-empty signature is accepted.
func WithCredential(userID, userSig string) Option {
	return func(p *Provider) {
		p.credentials[userID] = userSig
	}
}

// New creates an empty loopback provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		credentials: make(map[string]string),
		users:       make(map[string]provider.ProfileDTO),
		history:     make(map[string][]provider.MessageDTO),
		failures:    make(map[Op][]*provider.ResultError),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// C2CConversationID returns the conversation id the provider uses for a one-to-one chat.
func C2CConversationID(userID string) string {
	return provider.ConversationC2C + userID
}

// Initialize issues a new handle and replaces the push listener.
func (p *Provider) Initialize(appID int, listener provider.Listener) (provider.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.takeFailureLocked(OpInitialize); err != nil {
		return nil, err
	}
	if appID <= 0 {
		return nil, &provider.ResultError{Code: 6013, Message: "invalid SDKAppID"}
	}

	p.initN++
	p.handle = &handle{appID: appID}
	p.listener = listener
	p.ready = false
	p.authedUser = ""
	return p.handle, nil
}

// InitializeCalls reports how many times Initialize succeeded.
func (p *Provider) InitializeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initN
}

// Authenticate logs userID in and reports the ready push.
func (p *Provider) Authenticate(ctx context.Context, h provider.Handle, userID, userSig string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	if err := p.checkHandleLocked(h); err != nil {
		p.mu.Unlock()
		return err
	}
	if err := p.takeFailureLocked(OpAuthenticate); err != nil {
		p.mu.Unlock()
		return err
	}
	if userID == "" || userSig == "" {
		p.mu.Unlock()
		return &provider.ResultError{Code: 70001, Message: "userSig or userID is empty"}
	}
	if want, ok := p.credentials[userID]; ok && want != userSig {
		p.mu.Unlock()
		return &provider.ResultError{Code: 70003, Message: "userSig is invalid"}
	}
	p.authedUser = userID
	p.ready = true
	if _, ok := p.users[userID]; !ok {
		p.users[userID] = provider.ProfileDTO{UserID: userID}
	}
	listener := p.listener
	p.mu.Unlock()

	if listener != nil {
		listener.Ready()
	}
	return nil
}

// Deauthenticate logs the current user out.
func (p *Provider) Deauthenticate(ctx context.Context, h provider.Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkHandleLocked(h); err != nil {
		return err
	}
	if err := p.takeFailureLocked(OpDeauthenticate); err != nil {
		return err
	}
	p.authedUser = ""
	p.ready = false
	return nil
}

// IsReady reports whether h is authenticated.
func (p *Provider) IsReady(h provider.Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkHandleLocked(h) == nil && p.ready
}

// ListConversations returns the conversation list, most recently active first.
func (p *Provider) ListConversations(ctx context.Context, h provider.Handle) ([]provider.ConversationDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkReadyLocked(h); err != nil {
		return nil, err
	}
	if err := p.takeFailureLocked(OpListConversations); err != nil {
		return nil, err
	}

	out := make([]provider.ConversationDTO, 0, len(p.conversations))
	for _, conv := range p.conversations {
		out = append(out, cloneConversation(conv))
	}
	return out, nil
}

// ListMessages returns up to count messages, newest first, starting at the
// message identified by cursor or at the newest message when cursor is empty.
func (p *Provider) ListMessages(ctx context.Context, h provider.Handle, conversationID, cursor string, count int) (provider.MessagePage, error) {
	if err := ctx.Err(); err != nil {
		return provider.MessagePage{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkReadyLocked(h); err != nil {
		return provider.MessagePage{}, err
	}
	if err := p.takeFailureLocked(OpListMessages); err != nil {
		return provider.MessagePage{}, err
	}
	if count <= 0 {
		count = provider.DefaultPageSize
	}

	history := p.history[conversationID]
	end := len(history) - 1
	if cursor != "" {
		end = -1
		for i, msg := range history {
			if msg.ID == cursor {
				end = i
				break
			}
		}
		if end < 0 {
			return provider.MessagePage{}, &provider.ResultError{Code: 10015, Message: fmt.Sprintf("unknown cursor %q", cursor)}
		}
	}

	start := end - count + 1
	if start < 0 {
		start = 0
	}

	page := provider.MessagePage{
		Messages:   make([]provider.MessageDTO, 0, end-start+1),
		IsLastPage: start == 0,
	}
	for i := end; i >= start; i-- {
		page.Messages = append(page.Messages, cloneMessage(history[i]))
	}
	if start > 0 {
		page.NextCursor = history[start-1].ID
	}
	return page, nil
}

// SendText records a text message to the C2C conversation with to and
// echoes it back with a generated id.
func (p *Provider) SendText(ctx context.Context, h provider.Handle, to, text string) (provider.MessageDTO, error) {
	if err := ctx.Err(); err != nil {
		return provider.MessageDTO{}, err
	}

	p.mu.Lock()
	if err := p.checkReadyLocked(h); err != nil {
		p.mu.Unlock()
		return provider.MessageDTO{}, err
	}
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		if err := gate.wait(ctx); err != nil {
			return provider.MessageDTO{}, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.takeFailureLocked(OpSendText); err != nil {
		return provider.MessageDTO{}, err
	}
	if to == "" {
		return provider.MessageDTO{}, &provider.ResultError{Code: 20003, Message: "invalid receiver"}
	}

	msg := provider.MessageDTO{
		ID:             uuid.NewString(),
		ConversationID: C2CConversationID(to),
		From:           p.authedUser,
		To:             to,
		Type:           provider.ElemText,
		Time:           p.now().Unix(),
		Payload:        &provider.MessagePayload{Text: text},
	}
	p.appendLocked(msg)
	return cloneMessage(msg), nil
}

// FetchProfiles returns profiles for the known ids among userIDs.
func (p *Provider) FetchProfiles(ctx context.Context, h provider.Handle, userIDs []string) ([]provider.ProfileDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkReadyLocked(h); err != nil {
		return nil, err
	}
	if err := p.takeFailureLocked(OpFetchProfiles); err != nil {
		return nil, err
	}

	out := make([]provider.ProfileDTO, 0, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := p.users[id]; ok {
			out = append(out, profile)
		}
	}
	return out, nil
}

func (p *Provider) checkHandleLocked(h provider.Handle) error {
	if p.handle == nil || h == nil {
		return ErrNotInitialized
	}
	if issued, ok := h.(*handle); !ok || issued != p.handle {
		return ErrNotInitialized
	}
	return nil
}

func (p *Provider) checkReadyLocked(h provider.Handle) error {
	if err := p.checkHandleLocked(h); err != nil {
		return err
	}
	if !p.ready {
		return &provider.ResultError{Code: 6014, Message: "user not logged in"}
	}
	return nil
}

func (p *Provider) takeFailureLocked(op Op) error {
	queue := p.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	p.failures[op] = queue[1:]
	return err
}

// appendLocked stores msg and moves its conversation to the top of the list.
func (p *Provider) appendLocked(msg provider.MessageDTO) {
	p.history[msg.ConversationID] = append(p.history[msg.ConversationID], msg)

	idx := -1
	for i, conv := range p.conversations {
		if conv.ConversationID == msg.ConversationID {
			idx = i
			break
		}
	}

	var conv provider.ConversationDTO
	if idx >= 0 {
		conv = p.conversations[idx]
		p.conversations = append(p.conversations[:idx], p.conversations[idx+1:]...)
	} else {
		peer := msg.To
		if peer == p.authedUser {
			peer = msg.From
		}
		profile, ok := p.users[peer]
		if !ok {
			profile = provider.ProfileDTO{UserID: peer}
		}
		conv = provider.ConversationDTO{
			ConversationID: msg.ConversationID,
			Type:           provider.ConversationC2C,
			UserProfile:    &profile,
		}
	}
	conv.LastMessage = &provider.LastMessageDTO{LastTime: msg.Time, Payload: msg.Payload}
	if msg.From != p.authedUser {
		conv.UnreadCount++
	}
	p.conversations = append([]provider.ConversationDTO{conv}, p.conversations...)
}

func cloneMessage(msg provider.MessageDTO) provider.MessageDTO {
	if msg.Payload != nil {
		payload := *msg.Payload
		msg.Payload = &payload
	}
	return msg
}

func cloneConversation(conv provider.ConversationDTO) provider.ConversationDTO {
	if conv.UserProfile != nil {
		profile := *conv.UserProfile
		conv.UserProfile = &profile
	}
	if conv.GroupProfile != nil {
		group := *conv.GroupProfile
		conv.GroupProfile = &group
	}
	if conv.LastMessage != nil {
		last := *conv.LastMessage
		if last.Payload != nil {
			payload := *last.Payload
			last.Payload = &payload
		}
		conv.LastMessage = &last
	}
	return conv
}
