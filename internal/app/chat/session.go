package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

// CancellationToken is the handle for one outbound request. Release frees
// its context once the request has finished.
type CancellationToken struct {
	gen    uint64
	cancel context.CancelFunc
}

// Release cancels the token's context. Safe to call more than once.
func (t CancellationToken) Release() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Session is one cancellable conversation bound to a UI tab.
type Session struct {
	backend domain.BackendClient

	mu             sync.Mutex
	conversationID domain.ConversationID
	gen            uint64
	active         context.CancelFunc
}

func NewSession(backend domain.BackendClient) *Session {
	return &Session{backend: backend}
}

// ConversationID is empty until the backend assigns one.
func (s *Session) ConversationID() domain.ConversationID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// NewCancellationToken arms a fresh token derived from parent and makes it
// the one Cancel targets. The previous token is not cancelled.
func (s *Session) NewCancellationToken(parent context.Context) (context.Context, CancellationToken) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.active = cancel
	return ctx, CancellationToken{gen: s.gen, cancel: cancel}
}

// Cancel signals the current token. Reports false when no token was armed.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return false
	}
	s.active()
	return true
}

// CancelToken cancels tok only if it is still the current token.
func (s *Session) CancelToken(tok CancellationToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.gen != s.gen || s.active == nil {
		return false
	}
	s.active()
	return true
}

// Send issues req with ctx, which must come from NewCancellationToken. A
// cancelled ctx always yields domain.ErrCancelled, even if the backend
// managed to answer.
func (s *Session) Send(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if req.ConversationID == "" {
		req.ConversationID = s.ConversationID()
	}

	resp, err := s.backend.SendMessage(ctx, req)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctxErr)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &domain.MalformedResponseError{Err: errors.New("backend returned no response")}
	}

	if resp.ConversationID != "" {
		s.mu.Lock()
		s.conversationID = resp.ConversationID
		s.mu.Unlock()
	}
	return resp, nil
}

// SessionStore maps tab ids to sessions. At most one session exists per tab.
type SessionStore struct {
	backend domain.BackendClient

	mu       sync.RWMutex
	sessions map[domain.TabID]*Session
}

func NewSessionStore(backend domain.BackendClient) *SessionStore {
	return &SessionStore{
		backend:  backend,
		sessions: make(map[domain.TabID]*Session),
	}
}

func (s *SessionStore) GetOrCreate(tabID domain.TabID) *Session {
	sess, _ := s.getOrCreate(tabID)
	return sess
}

func (s *SessionStore) getOrCreate(tabID domain.TabID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tabID]
	if !ok {
		sess = NewSession(s.backend)
		s.sessions[tabID] = sess
	}
	return sess, !ok
}

func (s *SessionStore) Get(tabID domain.TabID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[tabID]
	return sess, ok
}

// conversationForgetter is implemented by backends that keep server-side
// history per conversation.
type conversationForgetter interface {
	Forget(conv domain.ConversationID)
}

// Delete forgets the session without cancelling its in-flight request. The
// backend drops the conversation history when it keeps one.
func (s *SessionStore) Delete(tabID domain.TabID) {
	s.mu.Lock()
	sess, ok := s.sessions[tabID]
	delete(s.sessions, tabID)
	s.mu.Unlock()

	if !ok {
		return
	}
	if f, ok := s.backend.(conversationForgetter); ok {
		if conv := sess.ConversationID(); conv != "" {
			f.Forget(conv)
		}
	}
}

// discard deletes the tab's session only while it is still sess.
func (s *SessionStore) discard(tabID domain.TabID, sess *Session) {
	s.mu.Lock()
	cur, ok := s.sessions[tabID]
	if ok && cur == sess {
		delete(s.sessions, tabID)
	}
	s.mu.Unlock()
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
