// Package server exposes the HTTP API: auth, generation, thread history,
// trending, and public share links.
package server

import (
	"errors"
	"net/http"
	"strings"

	"ideaforge/internal/app"
	"ideaforge/internal/prompt"
	"ideaforge/internal/ratelimit"
	"ideaforge/internal/util"
	"ideaforge/pkg/ai"
	"ideaforge/pkg/auth"
	"ideaforge/pkg/domain"
)

const (
	deviceIDHeader       = "X-Device-Id"
	devicePlatformHeader = "X-Device-Platform"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App             *app.App
	GenerateLimiter *ratelimit.FixedWindowLimiter
	TrustedProxies  *util.TrustedProxies
}

// Server exposes the HTTP endpoints.
type Server struct {
	app             *app.App
	generateLimiter *ratelimit.FixedWindowLimiter
	trustedProxies  *util.TrustedProxies
	mux             *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:             cfg.App,
		generateLimiter: cfg.GenerateLimiter,
		trustedProxies:  cfg.TrustedProxies,
		mux:             http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("api", s.trustedProxies, util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/login", s.handleLogin)

	// public reads
	s.mux.HandleFunc("/assistants", s.handleAssistants)
	s.mux.HandleFunc("/trending", s.handleTrendingIdeas)
	s.mux.HandleFunc("/shared/", s.handleSharedIdea)

	// generation
	s.mux.Handle("/generate", s.withUser(s.handleGenerate))
	s.mux.Handle("/generate/", s.withUser(s.handleGenerateByThread))

	// thread history
	s.mux.Handle("/threads", s.withUser(s.handleThreads))
	s.mux.Handle("/threads/", s.withUser(s.handleThreadByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

// withUser resolves the caller's identity: a valid bearer token wins, and
// without one the device fingerprint headers map to an anonymous user. A
// request with neither is rejected.
func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			user, err := s.app.VerifyToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next(w, r, user)
			return
		}

		deviceID := strings.TrimSpace(r.Header.Get(deviceIDHeader))
		if deviceID == "" {
			writeError(w, http.StatusBadRequest, "device id required when unauthenticated")
			return
		}
		platform := domain.Platform(strings.TrimSpace(r.Header.Get(devicePlatformHeader)))
		user, err := s.app.ResolveDevice(deviceID, platform)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		next(w, r, user)
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

// writeAppError maps engine errors onto HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var cfgErr *prompt.ConfigError
	switch {
	case errors.Is(err, app.ErrThreadNotFound),
		errors.Is(err, app.ErrAssistantNotFound),
		errors.Is(err, app.ErrCardNotFound),
		errors.Is(err, app.ErrIdeaNotFound),
		errors.Is(err, app.ErrShareNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrNoGeneratedContent),
		errors.Is(err, app.ErrInputRequired),
		errors.Is(err, app.ErrDeviceIDRequired),
		errors.Is(err, app.ErrEmailRequired),
		errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ai.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusInternalServerError, cfgErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
