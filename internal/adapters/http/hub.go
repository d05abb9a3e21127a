package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/farum-panel/internal/adapters/editor"
	"github.com/PabloGalante/farum-panel/internal/app/chat"
	"github.com/PabloGalante/farum-panel/internal/domain"
	"github.com/PabloGalante/farum-panel/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

// ErrNoPanel is returned when a message is sent while no panel is connected.
var ErrNoPanel = errors.New("no panel connected")

// EventDispatcher receives decoded panel events. *chat.Controller implements it.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev chat.Event) error
}

// Hub tracks panel websocket connections. It implements domain.Messenger
// and editor.Host by broadcasting to every connected panel.
type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	dispatcher EventDispatcher
	conns      map[*panelConn]struct{}
}

type panelConn struct {
	ws   *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[*panelConn]struct{}),
	}
}

// SetDispatcher wires the controller. The hub and the controller depend on
// each other, so this happens after both are built.
func (h *Hub) SetDispatcher(d EventDispatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatcher = d
}

// Connections reports how many panels are attached.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every panel and waits for their pumps to stop.
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()
}

// Serve runs the pumps of one upgraded connection until either side stops.
func (h *Hub) Serve(ws *websocket.Conn) error {
	h.wg.Add(1)
	defer h.wg.Done()

	c := &panelConn{ws: ws, send: make(chan []byte, sendBuffer)}
	h.add(c)
	defer h.remove(c)

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return h.readPump(gctx, c)
	})
	g.Go(func() error {
		return c.writePump(gctx)
	})
	return g.Wait()
}

func (h *Hub) add(c *panelConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) remove(c *panelConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

func (h *Hub) readPump(ctx context.Context, c *panelConn) error {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		h.handleFrame(ctx, c, data)
	}
}

func (h *Hub) handleFrame(ctx context.Context, c *panelConn, data []byte) {
	ctx = observability.WithRequestID(ctx, uuid.NewString())
	log := observability.LoggerFromContext(ctx)

	ev, tabID, err := decodeEvent(data)
	if err != nil {
		log.Warn("rejecting panel message", zap.Error(err))
		c.enqueue(outboundMessage{Type: msgErrorMessage, TabID: string(tabID), Message: err.Error()})
		return
	}

	h.mu.RLock()
	d := h.dispatcher
	h.mu.RUnlock()
	if d == nil {
		log.Error("panel message received before controller was wired", zap.String("command", ev.EventName()))
		return
	}

	if err := d.Dispatch(ctx, ev); err != nil {
		log.Warn("dispatch failed", zap.String("command", ev.EventName()), zap.Error(err))
	}
}

func (c *panelConn) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// enqueue drops the message when the connection is not keeping up.
func (c *panelConn) enqueue(msg outboundMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) broadcast(ctx context.Context, msg outboundMessage) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.conns) == 0 {
		return ErrNoPanel
	}
	for c := range h.conns {
		if !c.enqueue(msg) {
			observability.LoggerFromContext(ctx).Warn("panel send buffer full, dropping message",
				zap.String("type", msg.Type))
		}
	}
	return nil
}

// ─────────────────────────────────────────────
// domain.Messenger
// ─────────────────────────────────────────────

func (h *Hub) SendAIResponse(ctx context.Context, resp *domain.ChatResponse, conv domain.ConversationID, tabID domain.TabID, triggerID domain.TriggerID) error {
	return h.broadcast(ctx, aiResponseMessage(resp, conv, tabID, triggerID))
}

func (h *Hub) SendErrorMessage(ctx context.Context, message string, tabID domain.TabID, requestID string) error {
	return h.broadcast(ctx, outboundMessage{
		Type:      msgErrorMessage,
		TabID:     string(tabID),
		Message:   message,
		RequestID: requestID,
	})
}

func (h *Hub) SendAuthNeeded(ctx context.Context, state domain.AuthState, tabID domain.TabID, triggerID domain.TriggerID) error {
	return h.broadcast(ctx, outboundMessage{
		Type:       msgAuthNeeded,
		TabID:      string(tabID),
		TriggerID:  string(triggerID),
		AuthStatus: string(state.Status),
		Message:    state.Message,
	})
}

func (h *Hub) SendEditorContextCommand(ctx context.Context, cmd domain.EditorContextCommand, codeBlock string, triggerID domain.TriggerID) error {
	return h.broadcast(ctx, outboundMessage{
		Type:      msgEditorContextCommand,
		TriggerID: string(triggerID),
		Command:   string(cmd),
		CodeBlock: codeBlock,
	})
}

func (h *Hub) SendOnboardingInteraction(ctx context.Context, interaction domain.OnboardingInteraction, prompt string, triggerID domain.TriggerID) error {
	return h.broadcast(ctx, outboundMessage{
		Type:        msgOnboardingInteraction,
		TriggerID:   string(triggerID),
		Interaction: &onboardingWire{Type: string(interaction.Type)},
		Prompt:      prompt,
	})
}

// SendHostCommand implements editor.Host.
func (h *Hub) SendHostCommand(ctx context.Context, cmd editor.Command) error {
	return h.broadcast(ctx, hostCommandMessage(cmd))
}
