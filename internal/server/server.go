// Package server exposes the JSON HTTP surface over the query
// resolver.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"handbook-rag/internal/resolver"
)

// QueryResolver is what the handlers need from the resolution core.
type QueryResolver interface {
	Resolve(ctx context.Context, sessionKey, question string) (resolver.Answer, error)
	ResolveEnhanced(ctx context.Context, sessionKey, question string) (resolver.EnhancedAnswer, error)
	ClearContext(sessionKey string)
}

type Server struct {
	resolver QueryResolver
	origins  []string
}

func New(r QueryResolver, corsOrigins []string) *Server {
	return &Server{resolver: r, origins: corsOrigins}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /ask-enhanced", s.handleAskEnhanced)
	mux.HandleFunc("POST /clear-context", s.handleClearContext)
	return s.withCORS(mux)
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type askResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type enhancedResponse struct {
	Answer            string   `json:"answer"`
	Sources           []string `json:"sources"`
	FollowupQuestions []string `json:"followup_questions"`
	Enhanced          bool     `json:"enhanced"`
	SessionID         string   `json:"session_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	result, err := s.resolver.Resolve(r.Context(), req.SessionID, req.Question)
	if err != nil {
		log.Error().Err(err).Msg("ask failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:  result.Answer,
		Sources: nonNil(result.Sources),
	})
}

func (s *Server) handleAskEnhanced(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	result, err := s.resolver.ResolveEnhanced(r.Context(), req.SessionID, req.Question)
	if err != nil {
		log.Error().Err(err).Msg("enhanced ask failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, enhancedResponse{
		Answer:            result.Answer.Answer,
		Sources:           nonNil(result.Sources),
		FollowupQuestions: nonNil(result.FollowupQuestions),
		Enhanced:          result.Enhanced,
		SessionID:         result.SessionID,
	})
}

func (s *Server) handleClearContext(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	// An empty or absent body clears the default slot.
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.resolver.ClearContext(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation context cleared"})
}

func decodeAsk(w http.ResponseWriter, r *http.Request) (askRequest, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return req, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question must not be empty"})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
