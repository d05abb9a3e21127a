package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PabloGalante/farum-panel/internal/domain"
	"github.com/PabloGalante/farum-panel/internal/observability"
)

const (
	maxEditorStateBytes = 8 << 20
	defaultRecentLimit  = 50
)

// EditorStateSink stores the latest editor snapshot. *editor.Snapshotter
// implements it.
type EditorStateSink interface {
	Update(ec *domain.EditorContext)
}

// TelemetryReader lists stored telemetry. Optional.
type TelemetryReader interface {
	RecentForTab(ctx context.Context, tabID domain.TabID, limit int) ([]domain.TelemetryEvent, error)
}

type ServerDeps struct {
	Hub        *Hub
	Editor     EditorStateSink
	Dispatcher EventDispatcher
	Telemetry  TelemetryReader

	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

type Server struct {
	deps     ServerDeps
	upgrader websocket.Upgrader
}

func NewServer(deps ServerDeps) http.Handler {
	s := &Server{deps: deps}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)

	// /panel → websocket used by the panel UI
	mux.HandleFunc("/panel", s.handlePanel)

	// /events → one-shot event delivery for hosts without a socket
	mux.HandleFunc("/events", s.handleEvents)

	// /editor/state → PUT: replace snapshot, DELETE: clear it
	mux.HandleFunc("/editor/state", s.handleEditorState)

	// /telemetry/recent?tabId=...&limit=...
	mux.HandleFunc("/telemetry/recent", s.handleRecentTelemetry)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.deps.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.deps.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

type healthResponse struct {
	Status string `json:"status"`
	Panels int    `json:"panels"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Panels: s.deps.Hub.Connections()})
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		observability.LoggerFromContext(r.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	log := observability.LoggerFromContext(r.Context())
	log.Info("panel connected", zap.String("remote", r.RemoteAddr))
	if err := s.deps.Hub.Serve(ws); err != nil {
		log.Warn("panel connection closed with error", zap.Error(err))
		return
	}
	log.Info("panel disconnected")
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		badRequest(w, "could not read body")
		return
	}
	ev, _, err := decodeEvent(body)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := s.deps.Dispatcher.Dispatch(r.Context(), ev); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleEditorState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var req editorStateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxEditorStateBytes)).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		s.deps.Editor.Update(req.toContext())
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		s.deps.Editor.Update(nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

type telemetryEventResponse struct {
	Name       string         `json:"name"`
	TabID      string         `json:"tabId"`
	TriggerID  string         `json:"triggerId,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	At         time.Time      `json:"at"`
}

func (s *Server) handleRecentTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.deps.Telemetry == nil {
		http.NotFound(w, r)
		return
	}

	tabID := r.URL.Query().Get("tabId")
	if tabID == "" {
		badRequest(w, "tabId is required")
		return
	}
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.deps.Telemetry.RecentForTab(r.Context(), domain.TabID(tabID), limit)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]telemetryEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, telemetryEventResponse{
			Name:       string(ev.Name),
			TabID:      string(ev.TabID),
			TriggerID:  string(ev.TriggerID),
			Attributes: ev.Attributes,
			At:         ev.At.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	observability.Logger().Error("internal server error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
