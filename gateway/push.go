package gateway

import (
	"go.uber.org/zap"

	"imchat/events"
	"imchat/models"
	"imchat/normalize"
	"imchat/provider"
)

// pushAdapter receives provider pushes and republishes them, normalized,
// on the gateway registry.
type pushAdapter struct {
	g *Gateway
}

var _ provider.RawListener = (*pushAdapter)(nil)

func (a *pushAdapter) MessageReceived(messages []provider.MessageDTO) {
	localUserID := a.g.localUserID()
	for _, dto := range messages {
		a.g.options.Metrics.Pushed(string(events.KindMessage))
		a.g.options.Registry.PublishMessage(normalize.Message(dto, localUserID))
	}
}

func (a *pushAdapter) ConversationListUpdated(conversations []provider.ConversationDTO) {
	a.g.options.Metrics.Pushed(string(events.KindConversation))
	a.g.options.Registry.PublishConversations(normalize.Conversations(conversations))
}

// RawMessagesReceived decodes untyped message objects. A batch with a
// malformed entry is dropped whole.
func (a *pushAdapter) RawMessagesReceived(raws []map[string]any) {
	messages, err := normalize.DecodeMessages(raws)
	if err != nil {
		a.malformed(OpDecodeMessages, err)
		return
	}
	a.MessageReceived(messages)
}

func (a *pushAdapter) RawConversationListUpdated(raws []map[string]any) {
	conversations, err := normalize.DecodeConversations(raws)
	if err != nil {
		a.malformed(OpDecodeConversations, err)
		return
	}
	a.ConversationListUpdated(conversations)
}

func (a *pushAdapter) malformed(op string, err error) {
	a.g.log.Warn("malformed push dropped", zap.String("op", op), zap.Error(err))
	a.g.options.Metrics.ReadFailed(op)
}

func (a *pushAdapter) Ready() {
	a.g.log.Info("provider ready")
	a.status(models.SessionReady)
}

func (a *pushAdapter) KickedOut() {
	a.g.log.Warn("session kicked out", zap.String("user_id", a.g.localUserID()))
	a.status(models.SessionKickedOut)
}

func (a *pushAdapter) Error(detail string) {
	a.g.log.Error("provider error", zap.String("detail", detail))
	a.status(models.SessionError)
}

func (a *pushAdapter) status(status models.SessionStatus) {
	a.g.options.Metrics.Pushed(string(events.KindStatus))
	a.g.options.Registry.PublishStatus(status)
}
