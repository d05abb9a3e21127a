package editor_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-panel/internal/adapters/editor"
	"github.com/PabloGalante/farum-panel/internal/domain"
)

type fakeHost struct {
	mu   sync.Mutex
	cmds []editor.Command
}

func (h *fakeHost) SendHostCommand(_ context.Context, cmd editor.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cmds = append(h.cmds, cmd)
	return nil
}

func state() *domain.EditorContext {
	return &domain.EditorContext{
		ActiveFile: &domain.ActiveFileContext{FilePath: "a.go", FileLanguage: "go", FileText: "package a"},
		FocusArea: &domain.FocusAreaContext{
			CodeBlock:                "package a",
			SelectionInsideCodeBlock: &domain.Selection{EndChar: 9},
			CodeSelected:             true,
		},
		SymbolNames: []string{"a"},
		MatchPolicy: &domain.MatchPolicy{Must: []string{"go"}},
	}
}

func TestEmptySnapshotter(t *testing.T) {
	s := editor.NewSnapshotter(&fakeHost{})

	ec, err := s.ExtractContextForTrigger(context.Background(), domain.ExtractForChatMessage)
	require.NoError(t, err)
	assert.Nil(t, ec)
	assert.False(t, s.IsCodeBlockSelected(context.Background()))
}

func TestExtractReturnsIndependentCopy(t *testing.T) {
	s := editor.NewSnapshotter(&fakeHost{})
	in := state()
	s.Update(in)
	in.SymbolNames[0] = "mutated"

	ec, err := s.ExtractContextForTrigger(context.Background(), domain.ExtractForContextMenu)
	require.NoError(t, err)
	if diff := cmp.Diff(state(), ec); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	ec.FocusArea.CodeBlock = "changed"
	assert.Equal(t, "package a", s.Snapshot().FocusArea.CodeBlock)
	assert.True(t, s.IsCodeBlockSelected(context.Background()))
}

func TestOnboardingExtractionDropsSelection(t *testing.T) {
	s := editor.NewSnapshotter(&fakeHost{})
	s.Update(state())

	ec, err := s.ExtractContextForTrigger(context.Background(), domain.ExtractForOnboardingPage)
	require.NoError(t, err)
	assert.Nil(t, ec.FocusArea)
	assert.Equal(t, "a.go", ec.ActiveFile.FilePath)
}

func TestExtractHonoursContextAndUnknownTriggers(t *testing.T) {
	s := editor.NewSnapshotter(&fakeHost{})
	s.Update(state())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ExtractContextForTrigger(ctx, domain.ExtractForChatMessage)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.ExtractContextForTrigger(context.Background(), domain.ExtractionTrigger("nope"))
	assert.Error(t, err)

	s.Update(nil)
	assert.Nil(t, s.Snapshot())
}

func TestEditorActionsQueueHostCommands(t *testing.T) {
	host := &fakeHost{}
	s := editor.NewSnapshotter(host)
	ctx := context.Background()

	require.NoError(t, s.InsertTextAtCursor(ctx, "tab-1", "fmt.Println()"))
	require.NoError(t, s.InsertTextAtCursor(ctx, "tab-1", ""))
	require.NoError(t, s.OpenExternalURL(ctx, "https://go.dev/doc"))
	assert.Error(t, s.OpenExternalURL(ctx, "file:///etc/passwd"))

	want := []editor.Command{
		{Kind: editor.CommandInsertAtCursor, TabID: "tab-1", Text: "fmt.Println()"},
		{Kind: editor.CommandOpenURL, URL: "https://go.dev/doc"},
	}
	assert.Equal(t, want, host.cmds)
}
