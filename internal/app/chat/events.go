package chat

import "github.com/PabloGalante/farum-panel/internal/domain"

// Event is an inbound message from the panel UI or the editor host.
type Event interface {
	EventName() string
}

// PromptMessage is a prompt typed into a tab. Command carries quick actions
// such as "/clear" or "/help".
type PromptMessage struct {
	TabID   domain.TabID
	Message string
	Command string
}

type TabCreated struct {
	TabID domain.TabID
}

type TabClosed struct {
	TabID domain.TabID
}

type TabChanged struct {
	TabID     domain.TabID
	PrevTabID domain.TabID
}

type InsertCodeAtCursor struct {
	TabID     domain.TabID
	MessageID string
	Code      string
}

type CopyCodeToClipboard struct {
	TabID     domain.TabID
	MessageID string
	Code      string
}

type FollowUpClicked struct {
	TabID     domain.TabID
	MessageID string
	FollowUp  domain.FollowUp
}

// ContextMenuCommand is issued by the editor, so it carries no tab.
type ContextMenuCommand struct {
	Command domain.EditorContextCommand
}

// TabIDBound tells which tab the UI opened for a controller-initiated
// trigger. An empty TabID means the UI could not open one.
type TabIDBound struct {
	TriggerID domain.TriggerID
	TabID     domain.TabID
}

type StopResponse struct {
	TabID domain.TabID
}

type Vote string

const (
	VoteUp   Vote = "upvote"
	VoteDown Vote = "downvote"
)

type ItemVoted struct {
	TabID     domain.TabID
	MessageID string
	Vote      Vote
}

type ItemFeedback struct {
	TabID          domain.TabID
	MessageID      string
	SelectedOption string
	Comment        string
}

type UIFocus struct {
	Focused bool
}

type OnboardingInteractionMessage struct {
	Interaction domain.OnboardingInteraction
}

type SourceLinkClick struct {
	TabID     domain.TabID
	MessageID string
	Link      string
}

type ResponseBodyLinkClick struct {
	TabID     domain.TabID
	MessageID string
	Link      string
}

func (PromptMessage) EventName() string                { return "chat-prompt" }
func (TabCreated) EventName() string                   { return "new-tab-was-created" }
func (TabClosed) EventName() string                    { return "tab-was-removed" }
func (TabChanged) EventName() string                   { return "tab-was-changed" }
func (InsertCodeAtCursor) EventName() string           { return "insert_code_at_cursor_position" }
func (CopyCodeToClipboard) EventName() string          { return "code_was_copied_to_clipboard" }
func (FollowUpClicked) EventName() string              { return "follow-up-was-clicked" }
func (ContextMenuCommand) EventName() string           { return "editor-context-command" }
func (TabIDBound) EventName() string                   { return "trigger-tabID-received" }
func (StopResponse) EventName() string                 { return "stop-response" }
func (ItemVoted) EventName() string                    { return "chat-item-voted" }
func (ItemFeedback) EventName() string                 { return "chat-item-feedback" }
func (UIFocus) EventName() string                      { return "ui-focus" }
func (OnboardingInteractionMessage) EventName() string { return "onboarding-page-interaction" }
func (SourceLinkClick) EventName() string              { return "source-link-click" }
func (ResponseBodyLinkClick) EventName() string        { return "response-body-link-click" }
