package domain

// EditorContext is a point-in-time snapshot of editor state. It is never
// mutated after it is attached to a trigger event.
type EditorContext struct {
	ActiveFile *ActiveFileContext
	FocusArea  *FocusAreaContext
	// Names of symbols in scope of the selection, used for request relevance.
	SymbolNames []string
	MatchPolicy *MatchPolicy
}

type ActiveFileContext struct {
	FilePath     string
	FileLanguage string
	FileText     string
}

type FocusAreaContext struct {
	// CodeBlock is the code the user is pointing at, extended to the enclosing block.
	CodeBlock string
	// SelectionInsideCodeBlock locates the raw selection within CodeBlock.
	SelectionInsideCodeBlock *Selection
	// CodeSelected is set when the user had a non-empty selection.
	CodeSelected bool
}

// Selection uses zero-based line and character positions.
type Selection struct {
	StartLine int
	StartChar int
	EndLine   int
	EndChar   int
}

type MatchPolicy struct {
	Must    []string
	Should  []string
	MustNot []string
}

// EditorContextCommand is a context-menu action issued from the editor.
type EditorContextCommand string

const (
	CommandExplainCode  EditorContextCommand = "explainCode"
	CommandRefactorCode EditorContextCommand = "refactorCode"
	CommandFixCode      EditorContextCommand = "fixCode"
	CommandOptimizeCode EditorContextCommand = "optimizeCode"
	CommandSendToPrompt EditorContextCommand = "sendToPrompt"
)

// OnboardingInteractionType identifies a click on the panel onboarding page.
type OnboardingInteractionType string

const (
	OnboardingHelpClicked OnboardingInteractionType = "onboarding-page-help-clicked"
	OnboardingStartChat   OnboardingInteractionType = "onboarding-page-start-chat-clicked"
)

type OnboardingInteraction struct {
	Type OnboardingInteractionType
}

// FollowUpType classifies follow-up suggestion chips rendered under a response.
type FollowUpType string

const (
	FollowUpAlternatives    FollowUpType = "alternatives"
	FollowUpCommonPractices FollowUpType = "common_practices"
	FollowUpImprovements    FollowUpType = "improvements"
	FollowUpMoreExamples    FollowUpType = "more_examples"
	FollowUpCiteSources     FollowUpType = "cite_sources"
	FollowUpLineByLine      FollowUpType = "line_by_line"
)

type FollowUp struct {
	Type   FollowUpType
	Pillar string
	Prompt string
}

// TriggerEvent is the durable record of one user action awaiting a
// response. Only TabID may change, and only from empty to a concrete tab.
type TriggerEvent struct {
	ID      TriggerID
	TabID   TabID
	Message string
	Type    TriggerType
	Context *EditorContext

	Command     *EditorContextCommand
	Interaction *OnboardingInteraction
	FollowUp    *FollowUp

	// Seq orders events by when their UI event was processed.
	Seq       uint64
	CreatedAt Timestamp
}

// Bound reports whether the event has a tab.
func (e TriggerEvent) Bound() bool {
	return e.TabID != ""
}

// TriggerPayload is everything the orchestrator needs to build a backend request.
type TriggerPayload struct {
	Message       string
	Trigger       ChatTriggerKind
	Query         string
	CodeSelection *Selection
	CodeBlock     string
	FileText      string
	FileLanguage  string
	FilePath      string
	SymbolNames   []string
	MatchPolicy   *MatchPolicy
	UserIntent    UserIntent
}
