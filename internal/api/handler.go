// Package api exposes the career guidance orchestrator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/agent"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/store"
)

// Conversations is the orchestrator surface the handlers need.
type Conversations interface {
	Step(ctx context.Context, userInput, conversationID string) (string, error)
	Analyze(ctx context.Context, conversationID, profileURL, targetRole string) (string, error)
	Transcript(ctx context.Context, conversationID string) (*conversation.State, error)
	Conversations(ctx context.Context) ([]store.Summary, error)
	Forget(ctx context.Context, conversationID string) error
}

// Handler serves the conversation API.
type Handler struct {
	svc    Conversations
	logger *slog.Logger
}

// NewHandler creates a Handler. A nil logger uses slog.Default.
func NewHandler(svc Conversations, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Post("/analyze", h.Analyze)
		r.Get("/conversations", h.List)
		r.Get("/conversations/{id}", h.Get)
		r.Delete("/conversations/{id}", h.Delete)
	})
}

// NewRouter builds the router with the standard middleware stack and a
// /health heartbeat.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	h.RegisterRoutes(r)
	return r
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	ProfileURL     string `json:"profile_url"`
	TargetRole     string `json:"target_role"`
}

// ReplyResponse is returned by the chat and analyze endpoints.
type ReplyResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// Chat handles one user message.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}
	id := conversationID(req.ConversationID)

	reply, err := h.svc.Step(r.Context(), req.Message, id)
	if err != nil {
		h.fail(w, "chat step failed", id, err)
		return
	}
	JSON(w, http.StatusOK, ReplyResponse{ConversationID: id, Reply: reply})
}

// Analyze runs a full analysis for a profile URL and target role. It
// accepts a JSON body or form fields.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req = AnalyzeRequest{
			ConversationID: r.FormValue("conversation_id"),
			ProfileURL:     r.FormValue("profile_url"),
			TargetRole:     r.FormValue("target_role"),
		}
	}

	req.ProfileURL = strings.TrimSpace(req.ProfileURL)
	req.TargetRole = strings.TrimSpace(req.TargetRole)
	switch {
	case req.ProfileURL == "" || req.TargetRole == "":
		Error(w, http.StatusBadRequest, "profile_url and target_role are required")
		return
	case !conversation.HasProfileURLPrefix(req.ProfileURL):
		Error(w, http.StatusBadRequest, "profile_url must start with "+conversation.ProfileURLPrefix)
		return
	}
	id := conversationID(req.ConversationID)

	reply, err := h.svc.Analyze(r.Context(), id, req.ProfileURL, req.TargetRole)
	if err != nil {
		h.fail(w, "analysis failed", id, err)
		return
	}
	JSON(w, http.StatusOK, ReplyResponse{ConversationID: id, Reply: reply})
}

// Get returns the stored conversation.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := h.svc.Transcript(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.fail(w, "load conversation failed", id, err)
		return
	}
	JSON(w, http.StatusOK, state)
}

// List returns a summary of every stored conversation.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Conversations(r.Context())
	if err != nil {
		h.fail(w, "list conversations failed", "", err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	JSON(w, http.StatusOK, list)
}

// Delete removes a stored conversation.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Forget(r.Context(), id); err != nil {
		h.fail(w, "delete conversation failed", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg, id string, err error) {
	h.logger.Error(msg, "conversation_id", id, "error", err)
	switch {
	case errors.Is(err, agent.ErrEmptyInput), errors.Is(err, agent.ErrEmptyConversationID), errors.Is(err, store.ErrEmptyID):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		Error(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

func conversationID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return agent.NewConversationID()
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
