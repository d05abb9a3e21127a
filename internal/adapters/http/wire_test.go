package httpadapter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-panel/internal/app/chat"
	"github.com/PabloGalante/farum-panel/internal/domain"
)

func TestDecodeEvent(t *testing.T) {
	cases := []struct {
		in   string
		want chat.Event
	}{
		{`{"command":"chat-prompt","tabId":"t1","chatMessage":"hi","chatCommand":"/help"}`,
			chat.PromptMessage{TabID: "t1", Message: "hi", Command: "/help"}},
		{`{"command":"new-tab-was-created","tabId":"t1"}`, chat.TabCreated{TabID: "t1"}},
		{`{"command":"tab-was-removed","tabId":"t1"}`, chat.TabClosed{TabID: "t1"}},
		{`{"command":"tab-was-changed","tabId":"t2","prevTabId":"t1"}`, chat.TabChanged{TabID: "t2", PrevTabID: "t1"}},
		{`{"command":"follow-up-was-clicked","tabId":"t1","messageId":"m","followUp":{"type":"line_by_line","prompt":"Explain line by line"}}`,
			chat.FollowUpClicked{TabID: "t1", MessageID: "m", FollowUp: domain.FollowUp{Type: domain.FollowUpLineByLine, Prompt: "Explain line by line"}}},
		{`{"command":"editor-context-command","editorCommand":"fixCode"}`, chat.ContextMenuCommand{Command: domain.CommandFixCode}},
		{`{"command":"trigger-tabID-received","triggerId":"tr","tabId":"t1"}`, chat.TabIDBound{TriggerID: "tr", TabID: "t1"}},
		{`{"command":"trigger-tabID-received","triggerId":"tr"}`, chat.TabIDBound{TriggerID: "tr"}},
		{`{"command":"stop-response","tabId":"t1"}`, chat.StopResponse{TabID: "t1"}},
		{`{"command":"chat-item-voted","tabId":"t1","messageId":"m","vote":"upvote"}`, chat.ItemVoted{TabID: "t1", MessageID: "m", Vote: chat.VoteUp}},
		{`{"command":"chat-item-feedback","tabId":"t1","messageId":"m","selectedOption":"wrong","comment":"meh"}`,
			chat.ItemFeedback{TabID: "t1", MessageID: "m", SelectedOption: "wrong", Comment: "meh"}},
		{`{"command":"ui-focus","focused":true}`, chat.UIFocus{Focused: true}},
		{`{"command":"onboarding-page-interaction","interaction":{"type":"onboarding-page-help-clicked"}}`,
			chat.OnboardingInteractionMessage{Interaction: domain.OnboardingInteraction{Type: domain.OnboardingHelpClicked}}},
		{`{"command":"source-link-click","tabId":"t1","messageId":"m","link":"https://go.dev"}`,
			chat.SourceLinkClick{TabID: "t1", MessageID: "m", Link: "https://go.dev"}},
		{`{"command":"response-body-link-click","tabId":"t1","messageId":"m","link":"https://go.dev"}`,
			chat.ResponseBodyLinkClick{TabID: "t1", MessageID: "m", Link: "https://go.dev"}},
		{`{"command":"code_was_copied_to_clipboard","tabId":"t1","messageId":"m","code":"x"}`,
			chat.CopyCodeToClipboard{TabID: "t1", MessageID: "m", Code: "x"}},
		{`{"command":"insert_code_at_cursor_position","tabId":"t1","messageId":"m","code":"x"}`,
			chat.InsertCodeAtCursor{TabID: "t1", MessageID: "m", Code: "x"}},
	}

	for _, tc := range cases {
		t.Run(tc.want.EventName(), func(t *testing.T) {
			got, _, err := decodeEvent([]byte(tc.in))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("decoded event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeEventErrors(t *testing.T) {
	for _, in := range []string{
		`nope`,
		`{"command":"unknown"}`,
		`{"command":"follow-up-was-clicked","tabId":"t1"}`,
		`{"command":"onboarding-page-interaction"}`,
		`{"command":"trigger-tabID-received","tabId":"t1"}`,
	} {
		_, _, err := decodeEvent([]byte(in))
		assert.Error(t, err, in)
	}

	_, tabID, err := decodeEvent([]byte(`{"command":"follow-up-was-clicked","tabId":"t7"}`))
	require.Error(t, err)
	assert.Equal(t, domain.TabID("t7"), tabID)
}

func TestEditorStateRequestToContext(t *testing.T) {
	ec := editorStateRequest{SymbolNames: []string{"x"}}.toContext()
	assert.Nil(t, ec.ActiveFile)
	assert.Nil(t, ec.FocusArea)

	ec = editorStateRequest{
		FilePath:     "a.go",
		CodeSelected: true,
		Selection:    &selectionWire{EndLine: 2},
		MatchPolicy:  &matchPolicyWire{Must: []string{"go"}},
	}.toContext()
	require.NotNil(t, ec.FocusArea)
	assert.True(t, ec.FocusArea.CodeSelected)
	assert.Equal(t, 2, ec.FocusArea.SelectionInsideCodeBlock.EndLine)
	assert.Equal(t, []string{"go"}, ec.MatchPolicy.Must)
}
