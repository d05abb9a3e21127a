package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-panel/internal/adapters/llm"
	"github.com/PabloGalante/farum-panel/internal/domain"
)

func TestMockLLMEchoes(t *testing.T) {
	resp, err := llm.NewMockLLM(0).SendMessage(context.Background(), domain.ChatRequest{
		RequestID: "r1",
		Message:   "hi",
		Editor:    &domain.EditorState{FilePath: "main.go"},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, `"hi"`)
	assert.Contains(t, resp.Text, "main.go")
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "r1", resp.Metadata.RequestID)
}

func TestMockLLMKeepsConversation(t *testing.T) {
	resp, err := llm.NewMockLLM(0).SendMessage(context.Background(), domain.ChatRequest{ConversationID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationID("c1"), resp.ConversationID)
}

func TestMockLLMHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := llm.NewMockLLM(time.Hour).SendMessage(ctx, domain.ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
