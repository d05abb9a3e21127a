package domain

import "time"

type TriggerID string
type TabID string
type ConversationID string

// TriggerType is fixed when a trigger event is created.
type TriggerType string

const (
	TriggerChatMessage               TriggerType = "chat_message"
	TriggerFollowUp                  TriggerType = "follow_up"
	TriggerEditorContextCommand      TriggerType = "editor_context_command"
	TriggerOnboardingPageInteraction TriggerType = "onboarding_page_interaction"
)

// ExtractionTrigger tells the context extractor which UI path asked for a snapshot.
type ExtractionTrigger string

const (
	ExtractForChatMessage    ExtractionTrigger = "ChatMessage"
	ExtractForContextMenu    ExtractionTrigger = "ContextMenu"
	ExtractForOnboardingPage ExtractionTrigger = "OnboardingPageInteraction"
)

// ChatTriggerKind is the backend notion of why a request was made.
type ChatTriggerKind string

const (
	ChatTriggerManual ChatTriggerKind = "MANUAL"
	ChatTriggerInline ChatTriggerKind = "INLINE_CHAT"
)

// UserIntent tags a request with what the user is trying to do. Empty means unknown.
type UserIntent string

const (
	IntentExplainCodeSelection           UserIntent = "EXPLAIN_CODE_SELECTION"
	IntentSuggestAlternateImplementation UserIntent = "SUGGEST_ALTERNATE_IMPLEMENTATION"
	IntentApplyCommonBestPractices       UserIntent = "APPLY_COMMON_BEST_PRACTICES"
	IntentImproveCode                    UserIntent = "IMPROVE_CODE"
	IntentShowExamples                   UserIntent = "SHOW_EXAMPLES"
	IntentCiteSources                    UserIntent = "CITE_SOURCES"
	IntentExplainLineByLine              UserIntent = "EXPLAIN_LINE_BY_LINE"
)

type Timestamp = time.Time
