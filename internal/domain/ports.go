package domain

import "context"

// BackendClient sends one chat request. It must return promptly once ctx is
// cancelled, wrapping ctx.Err() in the returned error.
type BackendClient interface {
	SendMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ContextExtractor snapshots the editor for a trigger.
type ContextExtractor interface {
	ExtractContextForTrigger(ctx context.Context, trigger ExtractionTrigger) (*EditorContext, error)
	IsCodeBlockSelected(ctx context.Context) bool
}

// EditorActions performs side effects in the host editor.
type EditorActions interface {
	InsertTextAtCursor(ctx context.Context, tabID TabID, text string) error
	OpenExternalURL(ctx context.Context, url string) error
}

// AuthStateProvider returns a nil state when the user is authenticated.
type AuthStateProvider interface {
	GetCredentialState(ctx context.Context) (*AuthState, error)
}

// PromptGenerator turns non-typed interactions into prompt text.
type PromptGenerator interface {
	GenerateForContextMenuCommand(cmd EditorContextCommand) string
	GenerateForOnboardingInteraction(in OnboardingInteraction) string
	GenerateHelpText() string
}

// IntentRecognizer tags requests with a UserIntent. Unknown intent is "".
type IntentRecognizer interface {
	FromPromptMessage(message string) UserIntent
	FromContextMenuCommand(cmd EditorContextCommand) UserIntent
	FromOnboardingInteraction(in OnboardingInteraction) UserIntent
	FromFollowUpType(t FollowUpType) UserIntent
}

// Messenger delivers outbound messages to the panel UI.
type Messenger interface {
	SendAIResponse(ctx context.Context, resp *ChatResponse, conversationID ConversationID, tabID TabID, triggerID TriggerID) error
	SendErrorMessage(ctx context.Context, message string, tabID TabID, requestID string) error
	SendAuthNeeded(ctx context.Context, state AuthState, tabID TabID, triggerID TriggerID) error
	SendEditorContextCommand(ctx context.Context, cmd EditorContextCommand, codeBlock string, triggerID TriggerID) error
	SendOnboardingInteraction(ctx context.Context, in OnboardingInteraction, prompt string, triggerID TriggerID) error
}

// Telemetry records interaction metrics. Implementations must never block
// the caller for long and never fail it.
type Telemetry interface {
	Record(ctx context.Context, ev TelemetryEvent)
}

// TriggerEventStore holds trigger events keyed by correlation id.
type TriggerEventStore interface {
	Add(ev TriggerEvent) error
	Get(id TriggerID) (TriggerEvent, bool)
	LastForTab(tabID TabID) (TriggerEvent, bool)
	Rebind(id TriggerID, tabID TabID) error
	Remove(id TriggerID)
	RemoveAllForTab(tabID TabID) int
}
