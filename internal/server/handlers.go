package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arttech/assistant-gateway/internal/codec"
	"github.com/arttech/assistant-gateway/internal/domain"
	"github.com/arttech/assistant-gateway/internal/router"
)

// SessionInfo is the wire shape of a session.
type SessionInfo struct {
	SessionID       string    `json:"session_id"`
	CreatedAt       time.Time `json:"created_at"`
	MessageCount    int       `json:"message_count"`
	ActiveAssistant string    `json:"active_assistant"`
}

// ChatRequest is the request body for both chat endpoints. Assistant is
// advisory; routing follows the session's stored active assistant.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Assistant string `json:"assistant,omitempty"`
}

// ChatResponse is the non-streaming reply.
type ChatResponse struct {
	SessionID          string            `json:"session_id"`
	Message            string            `json:"message"`
	Assistant          string            `json:"assistant"`
	Citations          []domain.Citation `json:"citations"`
	NeedsClarification bool              `json:"needs_clarification"`
	WorkflowPath       []string          `json:"workflow_path"`
}

// HealthResponse reports component readiness.
type HealthResponse struct {
	Status         string `json:"status"`
	RetrievalReady bool   `json:"retrieval_ready"`
	RouterReady    bool   `json:"router_ready"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	AddLogField(r.Context(), "session_id", sess.ID)
	s.writeJSON(w, http.StatusCreated, SessionInfo{
		SessionID:       sess.ID,
		CreatedAt:       sess.CreatedAt,
		MessageCount:    sess.MessageCount(),
		ActiveAssistant: string(sess.Active),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SessionInfo{
		SessionID:       sess.ID,
		CreatedAt:       sess.CreatedAt,
		MessageCount:    sess.MessageCount(),
		ActiveAssistant: string(sess.Active),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeChatRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.engine.Chat(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	AddLogField(r.Context(), "assistant", string(res.Assistant))
	s.writeJSON(w, http.StatusOK, ChatResponse{
		SessionID:          in.SessionID,
		Message:            res.Answer,
		Assistant:          string(res.Assistant),
		Citations:          res.Citations,
		NeedsClarification: res.NeedsClarification,
		WorkflowPath:       res.WorkflowPath,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeChatRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.engine.ChatStream(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := codec.NewEncoder(w)

	for ev := range events {
		if err := enc.WriteEvent(ev); err != nil {
			// Client is gone; drain the channel so the producer can finish.
			AddError(r.Context(), err)
			for range events {
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	retrievalReady := false
	if probe, ok := s.retriever.(interface{ Ready() bool }); ok {
		retrievalReady = probe.Ready()
	}
	routerReady := s.engine.Ready()

	status := "ok"
	if !retrievalReady || !routerReady {
		status = "degraded"
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:         status,
		RetrievalReady: retrievalReady,
		RouterReady:    routerReady,
	})
}

func (s *Server) decodeChatRequest(r *http.Request) (router.TurnInput, error) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return router.TurnInput{}, domain.ErrInvalidRequest("invalid JSON body")
	}
	if req.SessionID == "" {
		return router.TurnInput{}, domain.ErrInvalidRequest("session_id is required")
	}
	if req.Message == "" {
		return router.TurnInput{}, domain.ErrInvalidRequest("message is required")
	}

	in := router.TurnInput{SessionID: req.SessionID, Message: req.Message}
	if req.Assistant != "" {
		assistant, ok := domain.ParseAssistant(req.Assistant)
		if !ok {
			return router.TurnInput{}, domain.ErrInvalidRequest("unknown assistant " + req.Assistant)
		}
		in.Requested = assistant
	}

	AddLogField(r.Context(), "session_id", req.SessionID)
	return in, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		apiErr = domain.ErrServer("internal error")
	}

	s.writeJSON(w, apiErr.HTTPStatusCode(), errorResponse{
		Error: errorBody{Type: string(apiErr.Type), Message: apiErr.Message},
	})
}
