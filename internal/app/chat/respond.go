package chat

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/PabloGalante/farum-panel/internal/domain"
	"github.com/PabloGalante/farum-panel/internal/observability"
)

// awaitBinding re-checks the trigger every retryDelay until it is bound to a
// tab. There is no retry limit: the wait ends when the trigger is removed
// (tab closed or history cleared) or the controller shuts down.
func (c *Controller) awaitBinding(ctx context.Context, triggerID domain.TriggerID) (domain.TriggerEvent, bool) {
	for {
		ev, ok := c.Triggers.Get(triggerID)
		if !ok {
			return domain.TriggerEvent{}, false
		}
		if ev.Bound() {
			return ev, true
		}

		select {
		case <-ctx.Done():
			return domain.TriggerEvent{}, false
		case <-c.after(c.retryDelay):
		}
	}
}

// generateResponse sends the request for triggerID once its tab is known and
// routes the outcome to that tab.
func (c *Controller) generateResponse(ctx context.Context, payload domain.TriggerPayload, triggerID domain.TriggerID) {
	ev, ok := c.awaitBinding(ctx, triggerID)
	if !ok {
		observability.LoggerFromContext(ctx).Debug("trigger gone before tab binding",
			zap.String("trigger_id", string(triggerID)))
		return
	}

	tabID := ev.TabID
	ctx = observability.WithTabID(ctx, string(tabID))
	log := observability.LoggerFromContext(ctx).With(zap.String("trigger_id", string(triggerID)))

	authState, err := c.Auth.GetCredentialState(ctx)
	if err != nil {
		c.processException(ctx, err, tabID)
		return
	}
	if authState != nil {
		log.Info("chat needs authentication", zap.String("auth_status", string(authState.Status)))
		if err := c.Messenger.SendAuthNeeded(ctx, *authState, tabID, triggerID); err != nil {
			log.Warn("failed to deliver auth notification", zap.Error(err))
		}
		return
	}

	req := triggerPayloadToChatRequest(payload)
	session, created := c.Sessions.getOrCreate(tabID)
	// Triggers go before sessions on reset, so a missing trigger here means
	// the reset may have run before the session was created.
	if _, ok := c.Triggers.Get(triggerID); !ok {
		if created {
			c.Sessions.discard(tabID, session)
		}
		log.Info("tab reset before request was sent")
		return
	}
	reqCtx, token := session.NewCancellationToken(ctx)
	defer token.Release()

	log.Info("sending chat request",
		zap.String("request_id", req.RequestID),
		zap.String("conversation_id", string(session.ConversationID())),
		zap.String("user_intent", string(req.UserIntent)))

	resp, err := session.Send(reqCtx, req)
	if _, ok := c.Triggers.Get(triggerID); !ok {
		log.Info("tab closed while request was in flight, discarding outcome")
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			log.Info("chat request cancelled")
			return
		}

		c.record(ctx, domain.MetricMessageResponseError, tabID, triggerID, map[string]any{
			"httpStatusCode": domain.HTTPStatusOf(err),
			"userIntent":     string(payload.UserIntent),
		})
		c.processException(ctx, err, tabID)
		return
	}

	c.record(ctx, domain.MetricEnterFocusConversation, tabID, triggerID, nil)
	c.record(ctx, domain.MetricStartConversation, tabID, triggerID, map[string]any{
		"triggerType":    string(ev.Type),
		"userIntent":     string(payload.UserIntent),
		"hasCodeSnippet": payload.CodeBlock != "",
	})

	log.Info("chat response received",
		zap.String("conversation_id", string(session.ConversationID())),
		zap.String("backend_request_id", resp.Metadata.RequestID))

	if err := c.Messenger.SendAIResponse(ctx, resp, session.ConversationID(), tabID, triggerID); err != nil {
		log.Warn("failed to deliver response", zap.Error(err))
	}
}

// failWhenBound reports err to the trigger's tab once the tab is known.
func (c *Controller) failWhenBound(ctx context.Context, triggerID domain.TriggerID, err error) {
	ev, ok := c.awaitBinding(ctx, triggerID)
	if !ok {
		return
	}
	c.processException(ctx, err, ev.TabID)
}

// sendStaticText answers a trigger without calling the backend.
func (c *Controller) sendStaticText(ctx context.Context, text string, triggerID domain.TriggerID) {
	ev, ok := c.awaitBinding(ctx, triggerID)
	if !ok {
		return
	}

	var conversationID domain.ConversationID
	if session, ok := c.Sessions.Get(ev.TabID); ok {
		conversationID = session.ConversationID()
	}
	resp := &domain.ChatResponse{Text: text}
	if err := c.Messenger.SendAIResponse(ctx, resp, conversationID, ev.TabID, triggerID); err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to deliver static response", zap.Error(err))
	}
}
