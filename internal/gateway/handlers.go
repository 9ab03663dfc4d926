package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"engram/internal/agent"
	"engram/internal/orchestrator"
)

type chatRequest struct {
	AgentType      string  `json:"agent_type"`
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id"`
}

type chatResponse struct {
	Success        bool    `json:"success"`
	AgentType      string  `json:"agent_type"`
	AgentName      string  `json:"agent_name"`
	Response       string  `json:"response"`
	ConversationID *string `json:"conversation_id"`
}

type collaborateRequest struct {
	Goal       string   `json:"goal"`
	AgentTypes []string `json:"agent_types"`
}

type agentInfo struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AvatarColor string `json:"avatar_color"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("gateway: write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validationStatus maps session construction errors onto a response code.
func validationStatus(err error) int {
	var unknown *agent.UnknownAgentTypeError
	if errors.As(err, &unknown) || errors.Is(err, orchestrator.ErrNoAgents) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Engram Agent API",
		"version": Version,
		"agents":  s.catalog.Types(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	types := s.catalog.Types()
	out := make([]agentInfo, 0, len(types))
	for _, t := range types {
		m, _ := s.catalog.Meta(t)
		out = append(out, agentInfo{
			ID:          m.Type,
			Type:        m.Type,
			Name:        m.Name,
			Description: m.Description,
			Status:      "idle",
			AvatarColor: m.AvatarColor,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// newSingle validates a chat request and builds its session, writing the
// error response itself when that fails.
func (s *Server) newSingle(w http.ResponseWriter, r *http.Request) (*orchestrator.Session, *chatRequest, bool) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return nil, nil, false
	}
	sess, err := s.orch.NewSingle(req.AgentType, req.Message)
	if err != nil {
		writeError(w, validationStatus(err), err.Error())
		return nil, nil, false
	}
	return sess, &req, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, req, ok := s.newSingle(w, r)
	if !ok {
		return
	}

	text, err := sess.Collect(r.Context())
	if err != nil {
		slog.Error("gateway: chat failed", "session_id", sess.ID, "agent", sess.Turns[0].AgentType, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	meta := sess.Turns[0].Meta
	writeJSON(w, http.StatusOK, chatResponse{
		Success:        true,
		AgentType:      meta.Type,
		AgentName:      meta.Name,
		Response:       strings.TrimSpace(text),
		ConversationID: req.ConversationID,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.newSingle(w, r)
	if !ok {
		return
	}
	s.stream(w, r, sess)
}

func (s *Server) handleCollaborate(w http.ResponseWriter, r *http.Request) {
	var req collaborateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Goal) == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}
	sess, err := s.orch.NewCollaboration(req.Goal, req.AgentTypes)
	if err != nil {
		writeError(w, validationStatus(err), err.Error())
		return
	}
	s.stream(w, r, sess)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, sess *orchestrator.Session) {
	w.Header().Set("X-Session-ID", sess.ID)
	sse := NewSSEWriter(w)
	w.WriteHeader(http.StatusOK)

	slog.Info("gateway: stream started", "session_id", sess.ID, "mode", sess.Mode, "agents", len(sess.Turns))
	if err := Publish(r.Context(), sse, sess, s.heartbeat); err != nil {
		slog.Debug("gateway: stream aborted", "session_id", sess.ID, "error", err)
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	update := make(map[string]string, len(body))
	for k, v := range body {
		switch v := v.(type) {
		case nil:
			update[k] = ""
		case string:
			update[k] = v
		default:
			update[k] = fmt.Sprint(v)
		}
	}

	p, err := s.profiles.Save(r.Context(), update)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
