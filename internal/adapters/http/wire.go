package httpadapter

import (
	"encoding/json"
	"fmt"

	"github.com/PabloGalante/farum-panel/internal/adapters/editor"
	"github.com/PabloGalante/farum-panel/internal/app/chat"
	"github.com/PabloGalante/farum-panel/internal/domain"
)

// ─────────────────────────────────────────────
// Inbound (panel UI → server)
// ─────────────────────────────────────────────

type inboundMessage struct {
	Command        string          `json:"command"`
	TabID          string          `json:"tabId"`
	PrevTabID      string          `json:"prevTabId"`
	TriggerID      string          `json:"triggerId"`
	MessageID      string          `json:"messageId"`
	ChatMessage    string          `json:"chatMessage"`
	ChatCommand    string          `json:"chatCommand"`
	Code           string          `json:"code"`
	FollowUp       *followUpWire   `json:"followUp"`
	Vote           string          `json:"vote"`
	SelectedOption string          `json:"selectedOption"`
	Comment        string          `json:"comment"`
	Focused        bool            `json:"focused"`
	Link           string          `json:"link"`
	EditorCommand  string          `json:"editorCommand"`
	Interaction    *onboardingWire `json:"interaction"`
}

type followUpWire struct {
	Type   string `json:"type"`
	Pillar string `json:"pillar,omitempty"`
	Prompt string `json:"prompt"`
}

type onboardingWire struct {
	Type string `json:"type"`
}

// decodeEvent turns one websocket frame into a controller event.
func decodeEvent(data []byte) (chat.Event, domain.TabID, error) {
	var m inboundMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", fmt.Errorf("invalid JSON message: %w", err)
	}

	tabID := domain.TabID(m.TabID)
	switch m.Command {
	case chat.PromptMessage{}.EventName():
		return chat.PromptMessage{TabID: tabID, Message: m.ChatMessage, Command: m.ChatCommand}, tabID, nil
	case chat.TabCreated{}.EventName():
		return chat.TabCreated{TabID: tabID}, tabID, nil
	case chat.TabClosed{}.EventName():
		return chat.TabClosed{TabID: tabID}, tabID, nil
	case chat.TabChanged{}.EventName():
		return chat.TabChanged{TabID: tabID, PrevTabID: domain.TabID(m.PrevTabID)}, tabID, nil
	case chat.InsertCodeAtCursor{}.EventName():
		return chat.InsertCodeAtCursor{TabID: tabID, MessageID: m.MessageID, Code: m.Code}, tabID, nil
	case chat.CopyCodeToClipboard{}.EventName():
		return chat.CopyCodeToClipboard{TabID: tabID, MessageID: m.MessageID, Code: m.Code}, tabID, nil
	case chat.FollowUpClicked{}.EventName():
		if m.FollowUp == nil {
			return nil, tabID, fmt.Errorf("%s: followUp is required", m.Command)
		}
		return chat.FollowUpClicked{
			TabID:     tabID,
			MessageID: m.MessageID,
			FollowUp: domain.FollowUp{
				Type:   domain.FollowUpType(m.FollowUp.Type),
				Pillar: m.FollowUp.Pillar,
				Prompt: m.FollowUp.Prompt,
			},
		}, tabID, nil
	case chat.ContextMenuCommand{}.EventName():
		return chat.ContextMenuCommand{Command: domain.EditorContextCommand(m.EditorCommand)}, "", nil
	case chat.TabIDBound{}.EventName():
		if m.TriggerID == "" {
			return nil, tabID, fmt.Errorf("%s: triggerId is required", m.Command)
		}
		return chat.TabIDBound{TriggerID: domain.TriggerID(m.TriggerID), TabID: tabID}, tabID, nil
	case chat.StopResponse{}.EventName():
		return chat.StopResponse{TabID: tabID}, tabID, nil
	case chat.ItemVoted{}.EventName():
		return chat.ItemVoted{TabID: tabID, MessageID: m.MessageID, Vote: chat.Vote(m.Vote)}, tabID, nil
	case chat.ItemFeedback{}.EventName():
		return chat.ItemFeedback{
			TabID:          tabID,
			MessageID:      m.MessageID,
			SelectedOption: m.SelectedOption,
			Comment:        m.Comment,
		}, tabID, nil
	case chat.UIFocus{}.EventName():
		return chat.UIFocus{Focused: m.Focused}, "", nil
	case chat.OnboardingInteractionMessage{}.EventName():
		if m.Interaction == nil {
			return nil, "", fmt.Errorf("%s: interaction is required", m.Command)
		}
		return chat.OnboardingInteractionMessage{
			Interaction: domain.OnboardingInteraction{Type: domain.OnboardingInteractionType(m.Interaction.Type)},
		}, "", nil
	case chat.SourceLinkClick{}.EventName():
		return chat.SourceLinkClick{TabID: tabID, MessageID: m.MessageID, Link: m.Link}, tabID, nil
	case chat.ResponseBodyLinkClick{}.EventName():
		return chat.ResponseBodyLinkClick{TabID: tabID, MessageID: m.MessageID, Link: m.Link}, tabID, nil
	default:
		return nil, tabID, fmt.Errorf("unknown command %q", m.Command)
	}
}

// ─────────────────────────────────────────────
// Outbound (server → panel UI)
// ─────────────────────────────────────────────

type outboundMessage struct {
	Type           string           `json:"type"`
	TabID          string           `json:"tabId,omitempty"`
	TriggerID      string           `json:"triggerId,omitempty"`
	ConversationID string           `json:"conversationId,omitempty"`
	RequestID      string           `json:"requestId,omitempty"`
	Message        string           `json:"message,omitempty"`
	FollowUps      []followUpWire   `json:"followUps,omitempty"`
	Suggestions    []suggestionWire `json:"relatedSuggestions,omitempty"`
	AuthStatus     string           `json:"authStatus,omitempty"`
	Command        string           `json:"command,omitempty"`
	CodeBlock      string           `json:"codeBlock,omitempty"`
	Interaction    *onboardingWire  `json:"interaction,omitempty"`
	Prompt         string           `json:"prompt,omitempty"`
	HostCommand    *hostCommandWire `json:"hostCommand,omitempty"`
}

type suggestionWire struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

type hostCommandWire struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

const (
	msgAIResponse            = "aiResponse"
	msgErrorMessage          = "errorMessage"
	msgAuthNeeded            = "authNeeded"
	msgEditorContextCommand  = "editorContextCommand"
	msgOnboardingInteraction = "onboardingInteraction"
	msgHostCommand           = "hostCommand"
)

func aiResponseMessage(resp *domain.ChatResponse, conv domain.ConversationID, tabID domain.TabID, triggerID domain.TriggerID) outboundMessage {
	out := outboundMessage{
		Type:           msgAIResponse,
		TabID:          string(tabID),
		TriggerID:      string(triggerID),
		ConversationID: string(conv),
		RequestID:      resp.Metadata.RequestID,
		Message:        resp.Text,
	}
	for _, f := range resp.FollowUps {
		out.FollowUps = append(out.FollowUps, followUpWire{Type: string(f.Type), Pillar: f.Pillar, Prompt: f.Prompt})
	}
	for _, s := range resp.RelatedSuggestions {
		out.Suggestions = append(out.Suggestions, suggestionWire{Title: s.Title, URL: s.URL, Snippet: s.Snippet})
	}
	return out
}

func hostCommandMessage(cmd editor.Command) outboundMessage {
	return outboundMessage{
		Type:        msgHostCommand,
		TabID:       string(cmd.TabID),
		HostCommand: &hostCommandWire{Kind: string(cmd.Kind), Text: cmd.Text, URL: cmd.URL},
	}
}

// ─────────────────────────────────────────────
// Editor state (host → server)
// ─────────────────────────────────────────────

type editorStateRequest struct {
	FilePath     string           `json:"filePath"`
	FileLanguage string           `json:"fileLanguage"`
	FileText     string           `json:"fileText"`
	CodeBlock    string           `json:"codeBlock"`
	Selection    *selectionWire   `json:"selection"`
	CodeSelected bool             `json:"codeSelected"`
	SymbolNames  []string         `json:"symbolNames"`
	MatchPolicy  *matchPolicyWire `json:"matchPolicy"`
}

type selectionWire struct {
	StartLine int `json:"startLine"`
	StartChar int `json:"startChar"`
	EndLine   int `json:"endLine"`
	EndChar   int `json:"endChar"`
}

type matchPolicyWire struct {
	Must    []string `json:"must"`
	Should  []string `json:"should"`
	MustNot []string `json:"mustNot"`
}

func (r editorStateRequest) toContext() *domain.EditorContext {
	ec := &domain.EditorContext{SymbolNames: r.SymbolNames}
	if r.FilePath != "" || r.FileText != "" {
		ec.ActiveFile = &domain.ActiveFileContext{
			FilePath:     r.FilePath,
			FileLanguage: r.FileLanguage,
			FileText:     r.FileText,
		}
	}
	if r.CodeBlock != "" || r.CodeSelected {
		fa := &domain.FocusAreaContext{CodeBlock: r.CodeBlock, CodeSelected: r.CodeSelected}
		if s := r.Selection; s != nil {
			fa.SelectionInsideCodeBlock = &domain.Selection{
				StartLine: s.StartLine,
				StartChar: s.StartChar,
				EndLine:   s.EndLine,
				EndChar:   s.EndChar,
			}
		}
		ec.FocusArea = fa
	}
	if mp := r.MatchPolicy; mp != nil {
		ec.MatchPolicy = &domain.MatchPolicy{Must: mp.Must, Should: mp.Should, MustNot: mp.MustNot}
	}
	return ec
}
