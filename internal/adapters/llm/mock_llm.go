package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

// MockLLM echoes the message back. Useful for local runs without credentials.
type MockLLM struct {
	delay time.Duration
}

func NewMockLLM(delay time.Duration) *MockLLM {
	return &MockLLM{delay: delay}
}

func (m *MockLLM) SendMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if m.delay > 0 {
		t := time.NewTimer(m.delay)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	conv := req.ConversationID
	if conv == "" {
		conv = domain.ConversationID(uuid.NewString())
	}

	text := fmt.Sprintf("You said %q.", req.Message)
	if req.Editor != nil && req.Editor.FilePath != "" {
		text += fmt.Sprintf(" I can see %s.", req.Editor.FilePath)
	}

	return &domain.ChatResponse{
		Text:           text,
		ConversationID: conv,
		Metadata:       domain.ResponseMetadata{RequestID: req.RequestID, HTTPStatusCode: 200},
	}, nil
}
