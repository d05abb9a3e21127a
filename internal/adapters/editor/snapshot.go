// Package editor keeps the latest editor state pushed by the host and turns
// panel actions into host commands.
package editor

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

// CommandKind names a host-side editor action.
type CommandKind string

const (
	CommandInsertAtCursor CommandKind = "insertAtCursor"
	CommandOpenURL        CommandKind = "openExternalUrl"
)

// Command is an action the host editor must perform.
type Command struct {
	Kind  CommandKind
	TabID domain.TabID
	Text  string
	URL   string
}

// Host delivers commands to the connected editor.
type Host interface {
	SendHostCommand(ctx context.Context, cmd Command) error
}

// Snapshotter implements domain.ContextExtractor and domain.EditorActions.
type Snapshotter struct {
	host Host

	mu      sync.RWMutex
	current *domain.EditorContext
}

func NewSnapshotter(host Host) *Snapshotter {
	return &Snapshotter{host: host}
}

// Update replaces the editor state. A nil state clears it.
func (s *Snapshotter) Update(ec *domain.EditorContext) {
	var next *domain.EditorContext
	if ec != nil {
		next = cloneContext(ec)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

// Snapshot returns a copy of the latest state, or nil.
func (s *Snapshotter) Snapshot() *domain.EditorContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	return cloneContext(s.current)
}

func (s *Snapshotter) ExtractContextForTrigger(ctx context.Context, trigger domain.ExtractionTrigger) (*domain.EditorContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := s.Snapshot()
	if snap == nil {
		return nil, nil
	}

	switch trigger {
	case domain.ExtractForChatMessage, domain.ExtractForContextMenu:
		return snap, nil
	case domain.ExtractForOnboardingPage:
		// Onboarding questions are about the project, not the selection.
		snap.FocusArea = nil
		return snap, nil
	default:
		return nil, fmt.Errorf("unknown extraction trigger %q", trigger)
	}
}

func (s *Snapshotter) IsCodeBlockSelected(context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.FocusArea != nil && s.current.FocusArea.CodeSelected
}

func (s *Snapshotter) InsertTextAtCursor(ctx context.Context, tabID domain.TabID, text string) error {
	if text == "" {
		return nil
	}
	return s.host.SendHostCommand(ctx, Command{Kind: CommandInsertAtCursor, TabID: tabID, Text: text})
}

// OpenExternalURL only forwards absolute http(s) links.
func (s *Snapshotter) OpenExternalURL(ctx context.Context, link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("parsing link: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: unsupported scheme", link)
	}
	return s.host.SendHostCommand(ctx, Command{Kind: CommandOpenURL, URL: u.String()})
}

func cloneContext(ec *domain.EditorContext) *domain.EditorContext {
	out := &domain.EditorContext{
		SymbolNames: append([]string(nil), ec.SymbolNames...),
	}
	if ec.ActiveFile != nil {
		f := *ec.ActiveFile
		out.ActiveFile = &f
	}
	if ec.FocusArea != nil {
		fa := *ec.FocusArea
		if fa.SelectionInsideCodeBlock != nil {
			sel := *fa.SelectionInsideCodeBlock
			fa.SelectionInsideCodeBlock = &sel
		}
		out.FocusArea = &fa
	}
	if ec.MatchPolicy != nil {
		out.MatchPolicy = &domain.MatchPolicy{
			Must:    append([]string(nil), ec.MatchPolicy.Must...),
			Should:  append([]string(nil), ec.MatchPolicy.Should...),
			MustNot: append([]string(nil), ec.MatchPolicy.MustNot...),
		}
	}
	return out
}
