package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/pkg/config"
)

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	router     *Router
	config     *ServerConfig
	logger     *zap.Logger

	// mu protects server state
	mu       sync.RWMutex
	running  bool
	listener net.Listener
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`

	// Port 0 picks a free port; Address reports it once started.
	Port int `yaml:"port" json:"port"`

	ReadTimeout  time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idleTimeout"`

	// CORSOrigins is a list of allowed origins for CORS requests
	CORSOrigins []string `yaml:"cors_origins" json:"corsOrigins"`

	EnableLogging bool `yaml:"enable_logging" json:"enableLogging"`
}

// DefaultServerConfig returns the defaults, bound to the configured
// address from config.Default.
func DefaultServerConfig() *ServerConfig {
	return FromConfig(config.Default().Server)
}

// FromConfig builds a ServerConfig from the file configuration.
func FromConfig(c config.ServerConfig) *ServerConfig {
	return &ServerConfig{
		Host:          c.Host,
		Port:          c.Port,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		EnableLogging: true,
	}
}

// NewServer creates a new API server.
func NewServer(cfg *ServerConfig, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	return &Server{
		router: NewRouter(),
		config: cfg,
		logger: logger,
	}
}

// Address returns the listening address, or the configured one before
// Start.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Router returns the underlying router for registering handlers.
func (s *Server) Router() *Router {
	return s.router
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Handler returns the router wrapped in the configured middleware.
func (s *Server) Handler() http.Handler {
	middlewares := []Middleware{RecoveryMiddleware(s.logger), RequestIDMiddleware}
	if s.config.EnableLogging {
		middlewares = append(middlewares, LoggingMiddleware(s.logger))
	}
	if len(s.config.CORSOrigins) > 0 {
		middlewares = append(middlewares, CORSMiddleware(s.config.CORSOrigins))
		SetUpgraderCheckOrigin(makeOriginChecker(s.config.CORSOrigins))
	}
	middlewares = append(middlewares, ContentTypeMiddleware)
	return Chain(s.router, middlewares...)
}

// Start binds the listener and serves in a goroutine. Binding errors are
// returned directly.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.running = true

	go func() {
		s.logger.Info("api server listening", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.Info("api server shutting down")
	s.running = false

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// makeOriginChecker validates WebSocket origins against the CORS list.
// Requests without an Origin header are same-origin.
func makeOriginChecker(allowedOrigins []string) func(*http.Request) bool {
	allowed := newOriginSet(allowedOrigins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed.allows(origin)
	}
}
