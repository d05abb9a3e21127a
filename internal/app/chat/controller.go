package chat

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/farum-panel/internal/domain"
	"github.com/PabloGalante/farum-panel/internal/observability"
)

// DefaultRetryDelay is how long the orchestrator waits before re-checking
// whether a trigger has been bound to a tab.
const DefaultRetryDelay = 20 * time.Millisecond

// Deps are the collaborators the controller consumes.
type Deps struct {
	Extractor domain.ContextExtractor
	Editor    domain.EditorActions
	Auth      domain.AuthStateProvider
	Prompts   domain.PromptGenerator
	Intents   domain.IntentRecognizer
	Messenger domain.Messenger
	Telemetry domain.Telemetry

	Triggers domain.TriggerEventStore
	Sessions *SessionStore
}

type Option func(*Controller)

// WithRetryDelay overrides DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) { c.retryDelay = d }
}

// WithTimer replaces time.After for the binding wait. Tests use it to
// fast-forward retries.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Controller) { c.after = after }
}

// WithIDGenerator replaces uuid-based trigger ids.
func WithIDGenerator(gen func() domain.TriggerID) Option {
	return func(c *Controller) { c.newTriggerID = gen }
}

// Controller routes panel events to the backend and responses back to tabs.
type Controller struct {
	Deps

	retryDelay   time.Duration
	after        func(time.Duration) <-chan time.Time
	newTriggerID func() domain.TriggerID
	now          func() time.Time

	seq atomic.Uint64

	// closedMu orders tab resets against handlers that add tab-bound
	// triggers after extracting context. resetAt holds the seq of each
	// tab's last close or clear.
	closedMu sync.Mutex
	resetAt  map[domain.TabID]uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewController(deps Deps, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		Deps:       deps,
		retryDelay: DefaultRetryDelay,
		after:      time.After,
		newTriggerID: func() domain.TriggerID {
			return domain.TriggerID(uuid.NewString())
		},
		now:     time.Now,
		resetAt: make(map[domain.TabID]uint64),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops every pending handler, including binding waits, and waits
// for them to return.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

// Dispatch handles one inbound event. Bookkeeping happens before Dispatch
// returns; work that waits on the editor, the tab binding or the backend
// continues in the background.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	seq := c.seq.Add(1)
	hctx := c.handlerContext(ctx)

	switch m := ev.(type) {
	case PromptMessage:
		c.processPromptMessage(hctx, m, seq)
	case FollowUpClicked:
		c.processFollowUp(hctx, m, seq)
	case ContextMenuCommand:
		c.processContextMenuCommand(hctx, m, seq)
	case OnboardingInteractionMessage:
		c.processOnboardingInteraction(hctx, m, seq)
	case TabIDBound:
		c.processTabIDBound(hctx, m)
	case StopResponse:
		c.processStopResponse(hctx, m)
	case TabCreated:
		c.record(hctx, domain.MetricOpenChat, m.TabID, "", nil)
	case TabClosed:
		c.processTabClosed(hctx, m, seq)
	case TabChanged:
		c.record(hctx, domain.MetricTabFocus, m.TabID, "", map[string]any{"prevTabId": string(m.PrevTabID)})
	case InsertCodeAtCursor:
		c.processInsertCodeAtCursor(hctx, m)
	case CopyCodeToClipboard:
		c.recordInteraction(hctx, m.TabID, m.MessageID, "copySnippet", map[string]any{"codeLength": len(m.Code)})
	case ItemVoted:
		c.recordInteraction(hctx, m.TabID, m.MessageID, string(m.Vote), nil)
	case ItemFeedback:
		c.record(hctx, domain.MetricFeedback, m.TabID, "", map[string]any{
			"messageId":      m.MessageID,
			"selectedOption": m.SelectedOption,
			"comment":        m.Comment,
		})
	case UIFocus:
		name := domain.MetricExitFocusChat
		if m.Focused {
			name = domain.MetricEnterFocusChat
		}
		c.record(hctx, name, "", "", nil)
	case SourceLinkClick:
		c.processLinkClick(hctx, m.TabID, m.MessageID, m.Link, "clickLink")
	case ResponseBodyLinkClick:
		c.processLinkClick(hctx, m.TabID, m.MessageID, m.Link, "clickBodyLink")
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	return nil
}

// handlerContext detaches handler work from the inbound request while
// keeping its request id for logs.
func (c *Controller) handlerContext(ctx context.Context) context.Context {
	hctx := c.ctx
	if reqID := observability.RequestIDFromContext(ctx); reqID != "" {
		hctx = observability.WithRequestID(hctx, reqID)
	}
	return hctx
}

// spawn runs fn in the background. Failures, including panics, are routed
// to the error path for tabID.
func (c *Controller) spawn(ctx context.Context, tabID domain.TabID, fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				observability.LoggerFromContext(ctx).Error("event handler panicked",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				c.processException(ctx, fmt.Errorf("internal error: %v", r), tabID)
			}
		}()

		if err := fn(ctx); err != nil {
			c.processException(ctx, err, tabID)
		}
	}()
}

func (c *Controller) processPromptMessage(ctx context.Context, m PromptMessage, seq uint64) {
	ctx = observability.WithTabID(ctx, string(m.TabID))
	log := observability.LoggerFromContext(ctx)

	command := strings.TrimPrefix(strings.TrimSpace(m.Command), "/")
	if command == "clear" {
		c.clearTab(ctx, m.TabID, seq)
		return
	}

	if command != "help" && strings.TrimSpace(m.Message) == "" {
		c.processException(ctx, domain.TextError("Message was empty"), m.TabID)
		return
	}

	log.Debug("processing prompt", zap.Uint64("seq", seq), zap.String("command", command))

	c.spawn(ctx, m.TabID, func(ctx context.Context) error {
		editorCtx, err := c.Extractor.ExtractContextForTrigger(ctx, domain.ExtractForChatMessage)
		if err != nil {
			log.Warn("context extraction failed", zap.Error(err))
			return err
		}

		triggerID := c.newTriggerID()
		added, err := c.addForTab(domain.TriggerEvent{
			ID:        triggerID,
			TabID:     m.TabID,
			Message:   m.Message,
			Type:      domain.TriggerChatMessage,
			Context:   editorCtx,
			Seq:       seq,
			CreatedAt: c.now(),
		})
		if err != nil {
			return err
		}
		if !added {
			log.Info("tab reset while extracting context, dropping prompt", zap.Uint64("seq", seq))
			return nil
		}

		if command == "help" {
			c.sendStaticText(ctx, c.Prompts.GenerateHelpText(), triggerID)
			return nil
		}

		payload := payloadFromContext(m.Message, editorCtx)
		payload.UserIntent = c.Intents.FromPromptMessage(m.Message)
		c.generateResponse(ctx, payload, triggerID)
		return nil
	})
}

// processFollowUp reuses the editor context of the last trigger in the tab.
func (c *Controller) processFollowUp(ctx context.Context, m FollowUpClicked, seq uint64) {
	ctx = observability.WithTabID(ctx, string(m.TabID))

	last, ok := c.Triggers.LastForTab(m.TabID)
	if !ok {
		c.processException(ctx, domain.ErrEmptyThread, m.TabID)
		return
	}

	followUp := m.FollowUp
	triggerID := c.newTriggerID()
	added, err := c.addForTab(domain.TriggerEvent{
		ID:        triggerID,
		TabID:     m.TabID,
		Message:   followUp.Prompt,
		Type:      domain.TriggerFollowUp,
		Context:   last.Context,
		FollowUp:  &followUp,
		Seq:       seq,
		CreatedAt: c.now(),
	})
	if err != nil {
		c.processException(ctx, err, m.TabID)
		return
	}
	if !added {
		return
	}

	payload := payloadFromContext(followUp.Prompt, last.Context)
	payload.UserIntent = c.Intents.FromFollowUpType(followUp.Type)

	c.spawn(ctx, m.TabID, func(ctx context.Context) error {
		c.generateResponse(ctx, payload, triggerID)
		return nil
	})
}

func (c *Controller) processContextMenuCommand(ctx context.Context, m ContextMenuCommand, seq uint64) {
	log := observability.LoggerFromContext(ctx).With(zap.String("command", string(m.Command)))

	if !c.Extractor.IsCodeBlockSelected(ctx) {
		log.Debug("context menu command without selection")
		return
	}

	c.spawn(ctx, "", func(ctx context.Context) error {
		editorCtx, err := c.Extractor.ExtractContextForTrigger(ctx, domain.ExtractForContextMenu)
		if err != nil {
			log.Warn("context extraction failed", zap.Error(err))
			return err
		}

		triggerID := c.newTriggerID()
		codeBlock := codeBlockOf(editorCtx)
		echo := func() {
			if err := c.Messenger.SendEditorContextCommand(ctx, m.Command, codeBlock, triggerID); err != nil {
				log.Warn("failed to echo context menu command", zap.Error(err))
			}
			c.record(ctx, domain.MetricEditorContextCommand, "", triggerID, map[string]any{"command": string(m.Command)})
		}

		// The selection goes into the prompt box; the user sends it.
		if m.Command == domain.CommandSendToPrompt {
			echo()
			return nil
		}

		// The trigger must exist before the echo: the UI answers it with
		// the tab binding.
		command := m.Command
		prompt := c.Prompts.GenerateForContextMenuCommand(command)
		if err := c.Triggers.Add(domain.TriggerEvent{
			ID:        triggerID,
			Message:   prompt,
			Type:      domain.TriggerEditorContextCommand,
			Context:   editorCtx,
			Command:   &command,
			Seq:       seq,
			CreatedAt: c.now(),
		}); err != nil {
			return err
		}
		echo()

		if codeBlock == "" {
			c.failWhenBound(ctx, triggerID, domain.ErrUnsupportedContext)
			return nil
		}

		payload := payloadFromContext(prompt, editorCtx)
		payload.UserIntent = c.Intents.FromContextMenuCommand(command)
		c.generateResponse(ctx, payload, triggerID)
		return nil
	})
}

func (c *Controller) processOnboardingInteraction(ctx context.Context, m OnboardingInteractionMessage, seq uint64) {
	c.spawn(ctx, "", func(ctx context.Context) error {
		editorCtx, err := c.Extractor.ExtractContextForTrigger(ctx, domain.ExtractForOnboardingPage)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("context extraction failed", zap.Error(err))
			return err
		}

		interaction := m.Interaction
		prompt := c.Prompts.GenerateForOnboardingInteraction(interaction)
		triggerID := c.newTriggerID()
		if err := c.Triggers.Add(domain.TriggerEvent{
			ID:          triggerID,
			Message:     prompt,
			Type:        domain.TriggerOnboardingPageInteraction,
			Context:     editorCtx,
			Interaction: &interaction,
			Seq:         seq,
			CreatedAt:   c.now(),
		}); err != nil {
			return err
		}

		if err := c.Messenger.SendOnboardingInteraction(ctx, interaction, prompt, triggerID); err != nil {
			observability.LoggerFromContext(ctx).Warn("failed to echo onboarding interaction", zap.Error(err))
		}
		c.record(ctx, domain.MetricOnboardingInteraction, "", triggerID, map[string]any{"interaction": string(interaction.Type)})

		payload := payloadFromContext(prompt, editorCtx)
		payload.UserIntent = c.Intents.FromOnboardingInteraction(interaction)
		c.generateResponse(ctx, payload, triggerID)
		return nil
	})
}

func (c *Controller) processTabIDBound(ctx context.Context, m TabIDBound) {
	log := observability.LoggerFromContext(ctx).With(
		zap.String("trigger_id", string(m.TriggerID)),
		zap.String("tab_id", string(m.TabID)),
	)

	if m.TabID == "" {
		log.Info("no tab available for trigger, dropping it")
		c.Triggers.Remove(m.TriggerID)
		return
	}

	if err := c.Triggers.Rebind(m.TriggerID, m.TabID); err != nil {
		log.Error("failed to bind trigger to tab", zap.Error(err))
	}
}

// processStopResponse cancels the tab's current request. The in-flight
// orchestration resolves its own outcome; nothing is sent from here.
func (c *Controller) processStopResponse(ctx context.Context, m StopResponse) {
	log := observability.LoggerFromContext(ctx).With(zap.String("tab_id", string(m.TabID)))

	session, ok := c.Sessions.Get(m.TabID)
	if !ok {
		log.Warn("stop requested for tab without session")
		return
	}
	if !session.Cancel() {
		log.Debug("stop requested with no request in flight")
	}
}

// addForTab stores a tab-bound trigger unless the tab was closed or
// cleared after the trigger's event arrived.
func (c *Controller) addForTab(ev domain.TriggerEvent) (bool, error) {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()

	if c.resetAt[ev.TabID] > ev.Seq {
		return false, nil
	}
	return true, c.Triggers.Add(ev)
}

// resetTab drops the tab's session and triggers and marks seq as the point
// before which pending handlers must not add to the tab.
func (c *Controller) resetTab(tabID domain.TabID, seq uint64) int {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()

	if seq > c.resetAt[tabID] {
		c.resetAt[tabID] = seq
	}
	removed := c.Triggers.RemoveAllForTab(tabID)
	c.Sessions.Delete(tabID)
	return removed
}

func (c *Controller) processTabClosed(ctx context.Context, m TabClosed, seq uint64) {
	removed := c.resetTab(m.TabID, seq)

	observability.LoggerFromContext(ctx).Debug("tab closed",
		zap.String("tab_id", string(m.TabID)),
		zap.Int("triggers_removed", removed))
	c.record(ctx, domain.MetricCloseChat, m.TabID, "", nil)
}

func (c *Controller) clearTab(ctx context.Context, tabID domain.TabID, seq uint64) {
	c.resetTab(tabID, seq)
	c.record(ctx, domain.MetricRunCommand, tabID, "", map[string]any{"command": "clear"})
}

func (c *Controller) processInsertCodeAtCursor(ctx context.Context, m InsertCodeAtCursor) {
	if err := c.Editor.InsertTextAtCursor(ctx, m.TabID, m.Code); err != nil {
		observability.LoggerFromContext(ctx).Warn("insert at cursor failed",
			zap.String("tab_id", string(m.TabID)),
			zap.Error(err))
	}
	c.recordInteraction(ctx, m.TabID, m.MessageID, "insertAtCursor", map[string]any{"codeLength": len(m.Code)})
}

func (c *Controller) processLinkClick(ctx context.Context, tabID domain.TabID, messageID, link, kind string) {
	if err := c.Editor.OpenExternalURL(ctx, link); err != nil {
		observability.LoggerFromContext(ctx).Warn("open link failed",
			zap.String("link", link),
			zap.Error(err))
	}
	c.recordInteraction(ctx, tabID, messageID, kind, map[string]any{"link": link})
}

// processException normalizes err, shows it in the tab and resets the
// tab's session so the next message starts clean.
func (c *Controller) processException(ctx context.Context, err error, tabID domain.TabID) {
	message, requestID := NormalizeError(err)

	observability.LoggerFromContext(ctx).Error("chat request failed",
		zap.String("tab_id", string(tabID)),
		zap.String("backend_request_id", requestID),
		zap.Error(err))

	if sendErr := c.Messenger.SendErrorMessage(ctx, message, tabID, requestID); sendErr != nil {
		observability.LoggerFromContext(ctx).Warn("failed to deliver error message", zap.Error(sendErr))
	}
	c.Sessions.Delete(tabID)
}

func (c *Controller) record(ctx context.Context, name domain.TelemetryName, tabID domain.TabID, triggerID domain.TriggerID, attrs map[string]any) {
	if c.Telemetry == nil {
		return
	}
	c.Telemetry.Record(ctx, domain.TelemetryEvent{
		Name:       name,
		TabID:      tabID,
		TriggerID:  triggerID,
		Attributes: attrs,
		At:         c.now(),
	})
}

func (c *Controller) recordInteraction(ctx context.Context, tabID domain.TabID, messageID, kind string, attrs map[string]any) {
	if attrs == nil {
		attrs = make(map[string]any, 2)
	}
	attrs["messageId"] = messageID
	attrs["interactionType"] = kind
	c.record(ctx, domain.MetricInteractWithMessage, tabID, "", attrs)
}
