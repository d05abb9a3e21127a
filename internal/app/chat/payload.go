package chat

import (
	"github.com/google/uuid"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

// payloadFromContext fills the editor fields of a payload from a snapshot.
func payloadFromContext(message string, ec *domain.EditorContext) domain.TriggerPayload {
	p := domain.TriggerPayload{
		Message: message,
		Trigger: domain.ChatTriggerManual,
		Query:   message,
	}
	if ec == nil {
		return p
	}

	if f := ec.ActiveFile; f != nil {
		p.FileText = f.FileText
		p.FileLanguage = f.FileLanguage
		p.FilePath = f.FilePath
	}
	if fa := ec.FocusArea; fa != nil {
		p.CodeBlock = fa.CodeBlock
		p.CodeSelection = fa.SelectionInsideCodeBlock
	}
	p.SymbolNames = ec.SymbolNames
	p.MatchPolicy = ec.MatchPolicy
	return p
}

func triggerPayloadToChatRequest(p domain.TriggerPayload) domain.ChatRequest {
	req := domain.ChatRequest{
		RequestID:  uuid.NewString(),
		Message:    p.Message,
		Trigger:    p.Trigger,
		UserIntent: p.UserIntent,
	}
	if req.Trigger == "" {
		req.Trigger = domain.ChatTriggerManual
	}

	if p.FilePath == "" && p.FileText == "" && p.CodeBlock == "" {
		return req
	}
	req.Editor = &domain.EditorState{
		FilePath:      p.FilePath,
		FileLanguage:  p.FileLanguage,
		FileText:      p.FileText,
		CodeBlock:     p.CodeBlock,
		CodeSelection: p.CodeSelection,
		SymbolNames:   p.SymbolNames,
		MatchPolicy:   p.MatchPolicy,
	}
	return req
}

func codeBlockOf(ec *domain.EditorContext) string {
	if ec == nil || ec.FocusArea == nil {
		return ""
	}
	return ec.FocusArea.CodeBlock
}
