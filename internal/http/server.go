// Package http exposes the assistant's REST API: message preview and
// send, contact management, delivery history, and a WebSocket feed of
// live previews for dictation frontends.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/config"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/contacts"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/history"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/pipeline"
)

// Server is the HTTP API server.
type Server struct {
	cfg       *config.Config
	pipeline  *pipeline.Pipeline
	directory *contacts.Directory
	history   *history.Store // nil disables /history
	deliverer pipeline.Deliverer

	upgrader    websocket.Upgrader
	rateLimiter *RateLimiter

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates the API server. history may be nil.
func NewServer(cfg *config.Config, pl *pipeline.Pipeline, dir *contacts.Directory, hist *history.Store, deliverer pipeline.Deliverer) *Server {
	s := &Server{
		cfg:       cfg,
		pipeline:  pl,
		directory: dir,
		history:   hist,
		deliverer: deliverer,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// The API binds to loopback by default and auth is the bearer
		// token, so origin checking stays permissive.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	s.rateLimiter = NewRateLimiter(cfg.Server.RateLimitRPM, 5)
	return s
}

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /config", s.auth(s.handleConfig))
	mux.HandleFunc("POST /message/send", s.auth(s.rateLimited(s.handleSend)))
	mux.HandleFunc("POST /message/preview", s.auth(s.rateLimited(s.handlePreview)))
	mux.HandleFunc("GET /contacts", s.auth(s.handleListContacts))
	mux.HandleFunc("POST /contacts", s.auth(s.handleCreateContact))
	mux.HandleFunc("DELETE /contacts/{id}", s.auth(s.handleDeleteContact))
	mux.HandleFunc("GET /history", s.auth(s.handleHistory))
	mux.HandleFunc("GET /ws/preview", s.auth(s.handlePreviewWS))

	s.mux = mux
	return mux
}

// Start begins serving. Blocks until lis fails or Shutdown is called.
func (s *Server) Start() error {
	addr := s.cfg.ListenAddr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.BuildMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("api server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// auth enforces the bearer token when one is configured.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := s.cfg.APIToken(); token != "" {
			if extractBearerToken(r) != token {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
		}
		next(w, r)
	}
}

// rateLimited applies the per-client rate limit keyed by remote host.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.rateLimiter.Allow(host) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// WebSocket clients can't always set headers; allow token query param.
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
