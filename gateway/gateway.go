// Package gateway wraps the instant-messaging provider behind a session
// object. It owns the provider handle, translates provider failures into
// typed errors and republishes provider pushes on an events.Registry.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"imchat/crypto"
	"imchat/events"
	"imchat/logger"
	"imchat/metrics"
	"imchat/models"
	"imchat/normalize"
	"imchat/provider"
)

// Read and push-decoding operation names used in logs and metrics.
const (
	OpConversationList = "conversation_list"
	OpMessageList      = "message_list"
	OpUserProfile      = "user_profile"

	OpDecodeMessages      = "decode_messages"
	OpDecodeConversations = "decode_conversations"
)

// Options configures a Gateway.
type Options struct {
	Provider provider.Provider
	Registry *events.Registry

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// PageSize is the number of messages requested per history page.
	PageSize int

	Now func() time.Time
}

// MessagePage is one normalized history page, newest first as delivered
// by the provider.
type MessagePage struct {
	Messages   []models.Message
	NextCursor string
	IsLastPage bool
}

// Gateway is the single entry point to the provider.
type Gateway struct {
	options Options
	log     *zap.Logger

	mu      sync.RWMutex
	handle  provider.Handle
	session *Session
}

// New creates a gateway with validated options.
func New(options Options) (*Gateway, error) {
	if options.Provider == nil {
		return nil, errors.New("provider is required")
	}
	if options.Registry == nil {
		options.Registry = events.NewRegistry()
	}
	if options.PageSize <= 0 {
		options.PageSize = provider.DefaultPageSize
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Gateway{
		options: options,
		log:     logger.OrNop(options.Logger).Named("gateway"),
	}, nil
}

// Registry returns the registry provider pushes are published on.
func (g *Gateway) Registry() *events.Registry {
	return g.options.Registry
}

// Initialize opens the provider connection. Calling it again while a
// connection exists logs a warning and keeps the existing connection.
func (g *Gateway) Initialize(appID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initializeLocked(appID)
}

func (g *Gateway) initializeLocked(appID int) error {
	if g.handle != nil {
		g.log.Warn("provider already initialized",
			zap.Int("app_id", g.handle.AppID()),
			zap.Int("requested_app_id", appID),
		)
		return nil
	}

	h, err := g.options.Provider.Initialize(appID, &pushAdapter{g: g})
	if err != nil {
		return newAuthError("initialize", err)
	}
	g.handle = h
	g.log.Debug("provider initialized", zap.Int("app_id", appID))
	return nil
}

// Login initializes the provider when needed and authenticates the user.
func (g *Gateway) Login(ctx context.Context, cfg models.LoginConfig) error {
	fingerprint := crypto.FormatFingerprint(crypto.CredentialFingerprint(cfg.SDKAppID, cfg.UserID, cfg.UserSig))

	g.mu.Lock()
	if g.handle == nil {
		if err := g.initializeLocked(cfg.SDKAppID); err != nil {
			g.mu.Unlock()
			g.options.Metrics.ObserveLogin(err)
			g.log.Error("login failed", zap.String("user_id", cfg.UserID), zap.Error(err))
			return err
		}
	}
	h := g.handle
	g.mu.Unlock()

	if err := g.options.Provider.Authenticate(ctx, h, cfg.UserID, cfg.UserSig); err != nil {
		authErr := newAuthError("login", err)
		g.options.Metrics.ObserveLogin(authErr)
		g.log.Error("login failed",
			zap.String("user_id", cfg.UserID),
			zap.String("credential", fingerprint),
			zap.Int("code", authErr.Code),
			zap.Error(err),
		)
		return authErr
	}

	g.mu.Lock()
	g.session = newSession(cfg, g.options.Now())
	g.mu.Unlock()

	g.options.Metrics.ObserveLogin(nil)
	g.log.Info("login succeeded", zap.String("user_id", cfg.UserID), zap.String("credential", fingerprint))
	return nil
}

// Logout deauthenticates the current user and discards the session. It is
// a no-op when the provider was never initialized.
func (g *Gateway) Logout(ctx context.Context) error {
	h := g.currentHandle()
	if h == nil {
		return nil
	}

	if err := g.options.Provider.Deauthenticate(ctx, h); err != nil {
		authErr := newAuthError("logout", err)
		g.log.Error("logout failed", zap.Int("code", authErr.Code), zap.Error(err))
		return authErr
	}

	g.mu.Lock()
	userID := g.session.UserID()
	g.session = nil
	g.mu.Unlock()

	g.log.Info("logout succeeded", zap.String("user_id", userID))
	return nil
}

// Session returns the active session, or nil when logged out.
func (g *Gateway) Session() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// IsReady reports whether the provider is initialized and ready for calls.
func (g *Gateway) IsReady() bool {
	h := g.currentHandle()
	if h == nil {
		return false
	}
	return g.options.Provider.IsReady(h)
}

// SendTextMessage submits text to the one-to-one conversation with to and
// returns the confirmed message.
func (g *Gateway) SendTextMessage(ctx context.Context, to, text string) (models.Message, error) {
	h := g.currentHandle()
	if h == nil {
		return models.Message{}, &InvalidStateError{Op: "send", Reason: "provider not initialized"}
	}

	dto, err := g.options.Provider.SendText(ctx, h, to, text)
	if err != nil {
		sendErr := newSendError(to, err)
		g.options.Metrics.ObserveSend(sendErr)
		g.log.Error("send failed", zap.String("to", to), zap.Int("code", sendErr.Code), zap.Error(err))
		return models.Message{}, sendErr
	}
	g.options.Metrics.ObserveSend(nil)

	msg := normalize.Message(dto, g.localUserID())
	msg.Content = text
	msg.Direction = models.DirectionSent
	msg.Status = models.StatusSent
	return msg, nil
}

// GetConversationList returns the normalized conversation list. Failures
// yield an empty list.
func (g *Gateway) GetConversationList(ctx context.Context) []models.Conversation {
	h := g.currentHandle()
	if h == nil {
		return []models.Conversation{}
	}

	dtos, err := g.options.Provider.ListConversations(ctx, h)
	if err != nil {
		g.readFailed(OpConversationList, err)
		return []models.Conversation{}
	}
	return normalize.Conversations(dtos)
}

// GetMessageList returns one history page of conversationID starting at
// cursor. Failures yield an empty, completed page.
func (g *Gateway) GetMessageList(ctx context.Context, conversationID, cursor string) MessagePage {
	empty := MessagePage{Messages: []models.Message{}, IsLastPage: true}

	h := g.currentHandle()
	if h == nil {
		return empty
	}

	page, err := g.options.Provider.ListMessages(ctx, h, conversationID, cursor, g.options.PageSize)
	if err != nil {
		g.readFailed(OpMessageList, err, zap.String("conversation_id", conversationID))
		return empty
	}

	return MessagePage{
		Messages:   normalize.Messages(page.Messages, g.localUserID()),
		NextCursor: page.NextCursor,
		IsLastPage: page.IsLastPage,
	}
}

// GetUserProfile returns the profiles of userIDs. Failures yield an empty list.
func (g *Gateway) GetUserProfile(ctx context.Context, userIDs []string) []models.User {
	h := g.currentHandle()
	if h == nil || len(userIDs) == 0 {
		return []models.User{}
	}

	dtos, err := g.options.Provider.FetchProfiles(ctx, h, userIDs)
	if err != nil {
		g.readFailed(OpUserProfile, err, zap.Strings("user_ids", userIDs))
		return []models.User{}
	}
	return normalize.Users(dtos)
}

func (g *Gateway) readFailed(op string, err error, fields ...zap.Field) {
	readErr := &ProviderReadError{Op: op, Err: err}
	g.options.Metrics.ReadFailed(op)
	g.log.Error("provider read failed", append(fields, zap.String("op", op), zap.Error(readErr))...)
}

func (g *Gateway) currentHandle() provider.Handle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.handle
}

func (g *Gateway) localUserID() string {
	return g.Session().UserID()
}
