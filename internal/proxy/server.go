// Package proxy is the HTTP endpoint that relays chat completion requests to
// the upstream model API with a server-held key, optionally gating clients
// with per-user keys.
//
// Endpoints:
//   - POST /api/name            - proxy endpoint
//   - POST /v1/chat/completions - same handler, for OpenAI SDK base URLs
//   - GET  /health              - health check
package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server is the proxy HTTP server
type Server struct {
	cfg      Config
	router   *http.ServeMux
	server   *http.Server
	handler  http.Handler
	verifier KeyVerifier
	client   *http.Client
	logger   *slog.Logger
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithVerifier overrides the Unkey verifier built from the config
func WithVerifier(v KeyVerifier) ServerOption {
	return func(s *Server) { s.verifier = v }
}

// WithHTTPClient sets the client used for upstream and verification calls
func WithHTTPClient(c *http.Client) ServerOption {
	return func(s *Server) { s.client = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a proxy server for cfg
func NewServer(cfg Config, opts ...ServerOption) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	s := &Server{
		cfg:    cfg,
		router: http.NewServeMux(),
		client: &http.Client{Timeout: 120 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.verifier == nil && cfg.EnableUserManagement {
		s.verifier = NewUnkeyVerifier(s.client, cfg.UnkeyURL, cfg.UnkeyAPIID, cfg.UnkeyRootKey)
	}

	s.setupRoutes()
	s.handler = Chain(
		Recovery(s.logger),
		Logging(s.logger),
	)(s.router)
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	proxy := NewHandler(s.cfg, s.verifier, s.client, s.logger)
	s.router.Handle("POST /api/name", proxy)
	s.router.Handle("POST /v1/chat/completions", proxy)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("proxy listening",
		"addr", ln.Addr().String(),
		"user_management", s.cfg.EnableUserManagement,
		"model", s.cfg.Model,
	)
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("proxy shutting down")
	return s.server.Shutdown(ctx)
}
