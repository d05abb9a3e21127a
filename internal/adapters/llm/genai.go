package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

const maxHistoryContents = 20

// ContentGenerator is the part of *genai.Models the client needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIConfig selects the genai backend. An APIKey selects the Gemini API;
// otherwise Project and Location select Vertex AI.
type GenAIConfig struct {
	Project   string
	Location  string
	APIKey    string
	ModelName string
}

// GenAIClient implements domain.BackendClient on top of Gemini models.
// Conversation history is kept in memory per conversation id.
type GenAIClient struct {
	models    ContentGenerator
	modelName string

	mu      sync.Mutex
	history map[domain.ConversationID][]*genai.Content
}

func NewGenAIClient(ctx context.Context, cfg GenAIConfig) (*GenAIClient, error) {
	cc := &genai.ClientConfig{Backend: genai.BackendVertexAI}
	switch {
	case cfg.APIKey != "":
		cc = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	case cfg.Project == "" || cfg.Location == "":
		return nil, fmt.Errorf("genai backend needs an API key or a GCP project and location")
	default:
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return NewGenAIClientWithGenerator(client.Models, cfg.ModelName), nil
}

func NewGenAIClientWithGenerator(models ContentGenerator, modelName string) *GenAIClient {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GenAIClient{
		models:    models,
		modelName: modelName,
		history:   make(map[domain.ConversationID][]*genai.Content),
	}
}

// SendMessage implements domain.BackendClient.
func (c *GenAIClient) SendMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	prompt := BuildPrompt(req)

	conv := req.ConversationID
	if conv == "" {
		conv = domain.ConversationID(uuid.NewString())
	}

	userContent := genai.NewContentFromText(prompt.User, genai.RoleUser)
	contents := append(c.historyOf(conv), userContent)

	temp := float32(0.2)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   int32(8192),
	}

	res, err := c.models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return nil, toServiceError(err)
	}

	text, err := responseText(res)
	if err != nil {
		return nil, err
	}

	c.appendHistory(conv, userContent, genai.NewContentFromText(text, genai.RoleModel))

	return &domain.ChatResponse{
		Text:           text,
		ConversationID: conv,
		Metadata: domain.ResponseMetadata{
			RequestID:      res.ResponseID,
			HTTPStatusCode: 200,
		},
	}, nil
}

// Forget drops the history of a conversation.
func (c *GenAIClient) Forget(conv domain.ConversationID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, conv)
}

func (c *GenAIClient) historyOf(conv domain.ConversationID) []*genai.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*genai.Content(nil), c.history[conv]...)
}

func (c *GenAIClient) appendHistory(conv domain.ConversationID, turns ...*genai.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := append(c.history[conv], turns...)
	if len(h) > maxHistoryContents {
		h = h[len(h)-maxHistoryContents:]
	}
	c.history[conv] = h
}

// responseText extracts the answer. Blocked or empty responses are reported
// as malformed, carrying the block reason when the model gave one.
func responseText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil {
		return "", &domain.MalformedResponseError{Err: errors.New("genai returned no response")}
	}

	if fb := res.PromptFeedback; fb != nil && fb.BlockReason != "" {
		reason := fb.BlockReasonMessage
		if reason == "" {
			reason = "Prompt blocked: " + string(fb.BlockReason)
		}
		return "", &domain.MalformedResponseError{
			Response: &domain.RawResponse{Reason: &reason},
			Err:      errors.New("genai blocked the prompt"),
		}
	}

	text := ""
	if len(res.Candidates) > 0 {
		text = res.Text()
	}
	if text == "" {
		var raw *domain.RawResponse
		if len(res.Candidates) > 0 && res.Candidates[0].FinishMessage != "" {
			reason := res.Candidates[0].FinishMessage
			raw = &domain.RawResponse{Reason: &reason}
		}
		return "", &domain.MalformedResponseError{Response: raw, Err: errors.New("genai returned empty text")}
	}
	return text, nil
}

func toServiceError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return fmt.Errorf("genai generate content: %w", err)
		}
		apiErr = *apiErrPtr
	}

	return &domain.ServiceError{
		Message:    apiErr.Message,
		RequestID:  requestIDFromDetails(apiErr.Details),
		HTTPStatus: apiErr.Code,
		Err:        err,
	}
}

func requestIDFromDetails(details []map[string]any) string {
	for _, d := range details {
		if id, ok := d["requestId"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}
