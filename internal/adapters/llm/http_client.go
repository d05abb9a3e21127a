package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

const requestIDHeader = "x-request-id"

// HTTPClient talks to a remote assistant service over JSON.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPClient(endpoint, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type chatRequestBody struct {
	ConversationID string      `json:"conversationId,omitempty"`
	Message        string      `json:"message"`
	Trigger        string      `json:"trigger"`
	UserIntent     string      `json:"userIntent,omitempty"`
	Editor         *editorBody `json:"editorState,omitempty"`
}

type editorBody struct {
	FilePath      string           `json:"filePath,omitempty"`
	FileLanguage  string           `json:"fileLanguage,omitempty"`
	FileText      string           `json:"fileText,omitempty"`
	CodeBlock     string           `json:"codeBlock,omitempty"`
	CodeSelection *selectionBody   `json:"codeSelection,omitempty"`
	SymbolNames   []string         `json:"symbolNames,omitempty"`
	MatchPolicy   *matchPolicyBody `json:"matchPolicy,omitempty"`
}

type selectionBody struct {
	StartLine int `json:"startLine"`
	StartChar int `json:"startChar"`
	EndLine   int `json:"endLine"`
	EndChar   int `json:"endChar"`
}

type matchPolicyBody struct {
	Must    []string `json:"must,omitempty"`
	Should  []string `json:"should,omitempty"`
	MustNot []string `json:"mustNot,omitempty"`
}

type chatResponseBody struct {
	Text               string           `json:"text"`
	ConversationID     string           `json:"conversationId"`
	FollowUps          []followUpBody   `json:"followUps"`
	RelatedSuggestions []suggestionBody `json:"relatedSuggestions"`
}

type suggestionBody struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type followUpBody struct {
	Type   string `json:"type"`
	Pillar string `json:"pillar"`
	Prompt string `json:"prompt"`
}

type errorBody struct {
	Message string `json:"message"`
}

// SendMessage implements domain.BackendClient.
func (c *HTTPClient) SendMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	payload, err := json.Marshal(toRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(requestIDHeader, req.RequestID)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading chat response: %w", err)
	}

	requestID := res.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = req.RequestID
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return nil, &domain.ServiceError{
			Message:    eb.Message,
			RequestID:  requestID,
			HTTPStatus: res.StatusCode,
		}
	}

	var out chatResponseBody
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, domain.ParseMalformedResponse(body, err)
	}

	return &domain.ChatResponse{
		Text:               out.Text,
		FollowUps:          toFollowUps(out.FollowUps),
		RelatedSuggestions: toSuggestions(out.RelatedSuggestions),
		ConversationID:     domain.ConversationID(out.ConversationID),
		Metadata: domain.ResponseMetadata{
			RequestID:      requestID,
			HTTPStatusCode: res.StatusCode,
		},
	}, nil
}

func toRequestBody(req domain.ChatRequest) chatRequestBody {
	b := chatRequestBody{
		ConversationID: string(req.ConversationID),
		Message:        req.Message,
		Trigger:        string(req.Trigger),
		UserIntent:     string(req.UserIntent),
	}
	if ed := req.Editor; ed != nil {
		b.Editor = &editorBody{
			FilePath:     ed.FilePath,
			FileLanguage: ed.FileLanguage,
			FileText:     ed.FileText,
			CodeBlock:    ed.CodeBlock,
			SymbolNames:  ed.SymbolNames,
		}
		if sel := ed.CodeSelection; sel != nil {
			b.Editor.CodeSelection = &selectionBody{
				StartLine: sel.StartLine,
				StartChar: sel.StartChar,
				EndLine:   sel.EndLine,
				EndChar:   sel.EndChar,
			}
		}
		if mp := ed.MatchPolicy; mp != nil {
			b.Editor.MatchPolicy = &matchPolicyBody{Must: mp.Must, Should: mp.Should, MustNot: mp.MustNot}
		}
	}
	return b
}

func toFollowUps(in []followUpBody) []domain.FollowUp {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.FollowUp, 0, len(in))
	for _, f := range in {
		out = append(out, domain.FollowUp{
			Type:   domain.FollowUpType(f.Type),
			Pillar: f.Pillar,
			Prompt: f.Prompt,
		})
	}
	return out
}

func toSuggestions(in []suggestionBody) []domain.RelatedSuggestion {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.RelatedSuggestion, 0, len(in))
	for _, s := range in {
		out = append(out, domain.RelatedSuggestion{Title: s.Title, URL: s.URL, Snippet: s.Snippet})
	}
	return out
}
