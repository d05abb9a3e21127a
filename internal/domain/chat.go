package domain

// ChatRequest is what a Session sends to the backend assistant.
type ChatRequest struct {
	RequestID      string
	ConversationID ConversationID
	Message        string
	Trigger        ChatTriggerKind
	UserIntent     UserIntent
	Editor         *EditorState
}

// EditorState is the request-side view of the editor snapshot.
type EditorState struct {
	FilePath      string
	FileLanguage  string
	FileText      string
	CodeBlock     string
	CodeSelection *Selection
	SymbolNames   []string
	MatchPolicy   *MatchPolicy
}

// ChatResponse carries the backend answer and its metadata.
type ChatResponse struct {
	Text               string
	FollowUps          []FollowUp
	RelatedSuggestions []RelatedSuggestion

	ConversationID ConversationID
	Metadata       ResponseMetadata
}

type ResponseMetadata struct {
	RequestID      string
	HTTPStatusCode int
}

// RelatedSuggestion is a source link shown next to a response.
type RelatedSuggestion struct {
	Title   string
	URL     string
	Snippet string
}

// AuthStatus describes why chat is not available.
type AuthStatus string

const (
	AuthUnauthenticated AuthStatus = "unauthenticated"
	AuthExpired         AuthStatus = "expired"
)

// AuthState is reported only when the user must (re)authenticate.
type AuthState struct {
	Status  AuthStatus
	Message string
}
