package chat_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-panel/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-panel/internal/app/chat"
	"github.com/PabloGalante/farum-panel/internal/app/prompt"
	"github.com/PabloGalante/farum-panel/internal/domain"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

type outbound struct {
	kind           string
	tabID          domain.TabID
	triggerID      domain.TriggerID
	message        string
	requestID      string
	conversationID domain.ConversationID
	command        domain.EditorContextCommand
	codeBlock      string
}

type fakeMessenger struct {
	mu  sync.Mutex
	out []outbound
}

func (m *fakeMessenger) add(o outbound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = append(m.out, o)
	return nil
}

func (m *fakeMessenger) SendAIResponse(_ context.Context, resp *domain.ChatResponse, conv domain.ConversationID, tab domain.TabID, trig domain.TriggerID) error {
	return m.add(outbound{kind: "aiResponse", tabID: tab, triggerID: trig, message: resp.Text, conversationID: conv, requestID: resp.Metadata.RequestID})
}

func (m *fakeMessenger) SendErrorMessage(_ context.Context, message string, tab domain.TabID, requestID string) error {
	return m.add(outbound{kind: "errorMessage", tabID: tab, message: message, requestID: requestID})
}

func (m *fakeMessenger) SendAuthNeeded(_ context.Context, state domain.AuthState, tab domain.TabID, trig domain.TriggerID) error {
	return m.add(outbound{kind: "authNeeded", tabID: tab, triggerID: trig, message: string(state.Status)})
}

func (m *fakeMessenger) SendEditorContextCommand(_ context.Context, cmd domain.EditorContextCommand, codeBlock string, trig domain.TriggerID) error {
	return m.add(outbound{kind: "editorContextCommand", triggerID: trig, command: cmd, codeBlock: codeBlock})
}

func (m *fakeMessenger) SendOnboardingInteraction(_ context.Context, _ domain.OnboardingInteraction, p string, trig domain.TriggerID) error {
	return m.add(outbound{kind: "onboardingInteraction", triggerID: trig, message: p})
}

func (m *fakeMessenger) of(kind string) []outbound {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []outbound
	for _, o := range m.out {
		if o.kind == kind {
			res = append(res, o)
		}
	}
	return res
}

func (m *fakeMessenger) waitKind(t *testing.T, kind string, n int) []outbound {
	t.Helper()
	require.Eventually(t, func() bool { return len(m.of(kind)) >= n }, waitFor, tick, "waiting for %d %s", n, kind)
	return m.of(kind)
}

// fakeBackend answers with reply unless fn is set.
type fakeBackend struct {
	mu    sync.Mutex
	calls []domain.ChatRequest
	fn    func(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}

func (b *fakeBackend) SendMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	fn := b.fn
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &domain.ChatResponse{
		Text:           "reply to " + req.Message,
		ConversationID: "conv-1",
		Metadata:       domain.ResponseMetadata{RequestID: "backend-req", HTTPStatusCode: 200},
	}, nil
}

func (b *fakeBackend) requests() []domain.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ChatRequest(nil), b.calls...)
}

type fakeExtractor struct {
	selected bool
	ctx      *domain.EditorContext
	err      error
	panicMsg string
	// gate, when set, holds extraction until it is closed.
	gate chan struct{}
}

func (e *fakeExtractor) ExtractContextForTrigger(ctx context.Context, _ domain.ExtractionTrigger) (*domain.EditorContext, error) {
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.ctx, e.err
}

func (e *fakeExtractor) IsCodeBlockSelected(context.Context) bool {
	return e.selected
}

type fakeAuth struct {
	state *domain.AuthState
}

func (a fakeAuth) GetCredentialState(context.Context) (*domain.AuthState, error) {
	return a.state, nil
}

type fakeEditor struct {
	mu       sync.Mutex
	inserted []string
	opened   []string
}

func (e *fakeEditor) InsertTextAtCursor(_ context.Context, _ domain.TabID, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inserted = append(e.inserted, text)
	return nil
}

func (e *fakeEditor) OpenExternalURL(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened = append(e.opened, url)
	return nil
}

type fakeTelemetry struct {
	mu     sync.Mutex
	events []domain.TelemetryEvent
}

func (f *fakeTelemetry) Record(_ context.Context, ev domain.TelemetryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeTelemetry) named(name domain.TelemetryName) []domain.TelemetryEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var res []domain.TelemetryEvent
	for _, ev := range f.events {
		if ev.Name == name {
			res = append(res, ev)
		}
	}
	return res
}

func sampleContext() *domain.EditorContext {
	return &domain.EditorContext{
		ActiveFile: &domain.ActiveFileContext{
			FilePath:     "main.go",
			FileLanguage: "go",
			FileText:     "package main\n\nfunc add(a, b int) int { return a + b }\n",
		},
		FocusArea: &domain.FocusAreaContext{
			CodeBlock:                "func add(a, b int) int { return a + b }",
			SelectionInsideCodeBlock: &domain.Selection{StartLine: 0, StartChar: 5, EndLine: 0, EndChar: 8},
			CodeSelected:             true,
		},
		SymbolNames: []string{"add"},
	}
}

type harness struct {
	ctrl      *chat.Controller
	messenger *fakeMessenger
	backend   *fakeBackend
	extractor *fakeExtractor
	editor    *fakeEditor
	telemetry *fakeTelemetry
	triggers  *memory.TriggerEventStore
	sessions  *chat.SessionStore
	ticks     *atomic.Int64
}

type harnessOption func(*harness, *chat.Deps, *[]chat.Option)

func withAuth(state *domain.AuthState) harnessOption {
	return func(_ *harness, d *chat.Deps, _ *[]chat.Option) { d.Auth = fakeAuth{state: state} }
}

// withFastTimer makes every binding retry fire immediately and counts them.
func withFastTimer() harnessOption {
	return func(h *harness, _ *chat.Deps, opts *[]chat.Option) {
		*opts = append(*opts, chat.WithTimer(func(time.Duration) <-chan time.Time {
			h.ticks.Add(1)
			ch := make(chan time.Time, 1)
			ch <- time.Now()
			return ch
		}))
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		messenger: &fakeMessenger{},
		backend:   &fakeBackend{},
		extractor: &fakeExtractor{selected: true, ctx: sampleContext()},
		editor:    &fakeEditor{},
		telemetry: &fakeTelemetry{},
		triggers:  memory.NewTriggerEventStore(),
		ticks:     &atomic.Int64{},
	}
	h.sessions = chat.NewSessionStore(h.backend)

	deps := chat.Deps{
		Extractor: h.extractor,
		Editor:    h.editor,
		Auth:      fakeAuth{},
		Prompts:   prompt.NewGenerator(),
		Intents:   prompt.NewRecognizer(),
		Messenger: h.messenger,
		Telemetry: h.telemetry,
		Triggers:  h.triggers,
		Sessions:  h.sessions,
	}
	ctrlOpts := []chat.Option{chat.WithRetryDelay(time.Millisecond)}
	for _, o := range opts {
		o(h, &deps, &ctrlOpts)
	}

	h.ctrl = chat.NewController(deps, ctrlOpts...)
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) dispatch(t *testing.T, ev chat.Event) {
	t.Helper()
	require.NoError(t, h.ctrl.Dispatch(context.Background(), ev))
}
