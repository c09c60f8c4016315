package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"ideaforge/internal/app"
	"ideaforge/pkg/domain"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := s.app.Register(app.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		DeviceID: r.Header.Get(deviceIDHeader),
		Platform: domain.Platform(r.Header.Get(devicePlatformHeader)),
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAssistants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	assistants, err := s.app.ListAssistants()
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assistants)
}

func (s *Server) handleTrendingIdeas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ideas, err := s.app.TrendingIdeas(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

// /shared/{shareId}
func (s *Server) handleSharedIdea(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	shareID := strings.TrimPrefix(r.URL.Path, "/shared/")
	if shareID == "" || strings.Contains(shareID, "/") {
		notFound(w, "not found")
		return
	}
	view, err := s.app.GetSharedIdea(shareID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type generateRequest struct {
	AppID       string         `json:"appId"`
	Message     string         `json:"message"`
	Overrides   map[string]any `json:"overrides,omitempty"`
	UserContext map[string]any `json:"userContext,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.generateLimiter != nil && !s.generateLimiter.Allow(user.ID) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AppID == "" {
		writeError(w, http.StatusBadRequest, "appId is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	res, err := s.app.GenerateContent(r.Context(), user.ID, app.GenerateRequest{
		AppID:       req.AppID,
		Message:     req.Message,
		Overrides:   req.Overrides,
		UserContext: req.UserContext,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// /generate/trending, /generate/{threadId}, /generate/{threadId}/refine,
// /generate/{threadId}/save, /generate/{threadId}/share,
// /generate/{threadId}/chat, /generate/{threadId}/chat/{cardId}
func (s *Server) handleGenerateByThread(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/generate/")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		notFound(w, "not found")
		return
	}

	if parts[0] == "trending" && len(parts) == 1 {
		s.handleTrendingThreads(w, r)
		return
	}

	threadID := parts[0]
	switch {
	case len(parts) == 1:
		s.handleGetThread(w, r, user, threadID)
	case len(parts) == 2 && parts[1] == "refine":
		s.handleRefine(w, r, user, threadID)
	case len(parts) == 2 && parts[1] == "save":
		s.handleSave(w, r, user, threadID)
	case len(parts) == 2 && parts[1] == "share":
		s.handleShare(w, r, user, threadID)
	case len(parts) == 2 && parts[1] == "chat":
		s.handleChat(w, r, user, threadID)
	case len(parts) == 3 && parts[1] == "chat" && parts[2] != "":
		s.handleChatHistory(w, r, user, threadID, parts[2])
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleTrendingThreads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	trending, err := s.app.TrendingThreads(r.URL.Query().Get("appType"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trending)
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request, user domain.User, threadID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	view, err := s.app.GetThread(user.ID, threadID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type refineRequest struct {
	CardID string `json:"cardId"`
	Aspect string `json:"aspect"`
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request, user domain.User, threadID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req refineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CardID == "" || req.Aspect == "" {
		writeError(w, http.StatusBadRequest, "cardId and aspect are required")
		return
	}
	res, err := s.app.RefineContent(r.Context(), user.ID, threadID, req.CardID, req.Aspect)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type saveRequest struct {
	IdeaID      string `json:"ideaId"`
	CustomTitle string `json:"customTitle,omitempty"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, user domain.User, threadID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req saveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IdeaID == "" {
		writeError(w, http.StatusBadRequest, "ideaId is required")
		return
	}
	saved, err := s.app.SaveIdea(user.ID, threadID, req.IdeaID, req.CustomTitle)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Idea saved successfully",
		"savedIdea": saved,
	})
}

type shareRequest struct {
	IdeaID        string         `json:"ideaId"`
	ShareSettings map[string]any `json:"shareSettings,omitempty"`
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, user domain.User, threadID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req shareRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IdeaID == "" {
		writeError(w, http.StatusBadRequest, "ideaId is required")
		return
	}
	shared, err := s.app.ShareIdea(user.ID, threadID, req.IdeaID, req.ShareSettings)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Idea shared successfully",
		"shareId":    shared.ShareID,
		"shareLink":  shared.ShareLink,
		"sharedIdea": shared.Content,
	})
}

type chatRequest struct {
	CardID  string `json:"cardId"`
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user domain.User, threadID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CardID == "" {
		writeError(w, http.StatusBadRequest, "cardId is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	res, err := s.app.ChatWithCard(r.Context(), user.ID, threadID, req.CardID, req.Message)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, user domain.User, threadID, cardID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	history, err := s.app.GetChatHistory(user.ID, threadID, cardID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	threads, err := s.app.ListThreads(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

// /threads/{id}
func (s *Server) handleThreadByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/threads/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteThread(user.ID, id); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
