package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Runs is everything the server needs from the run manager.
type Runs interface {
	RunController
	HUDSource
}

// ServerConfig holds the dependencies of a Server.
type ServerConfig struct {
	Runs            Runs
	Frames          FrameSource
	Input           KeyInput
	RateLimit       RateLimitConfig
	BroadcastPeriod time.Duration
	Logger          *zap.Logger
}

// Server is the HTTP API server with WebSocket support.
type Server struct {
	cfg         ServerConfig
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	logger      *zap.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer builds the router and hub. Background workers do not start until
// Start is called, so tests can use Router() directly.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.BroadcastPeriod <= 0 {
		cfg.BroadcastPeriod = 100 * time.Millisecond
	}

	s := &Server{
		cfg:         cfg,
		wsHub:       NewWebSocketHub(cfg.Input, cfg.Logger),
		rateLimiter: NewIPRateLimiter(cfg.RateLimit),
		logger:      cfg.Logger,
	}
	s.router = NewRouter(RouterConfig{
		Runs:        cfg.Runs,
		Frames:      cfg.Frames,
		RateLimiter: s.rateLimiter,
		Logger:      cfg.Logger,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
	return s
}

// Start runs the hub, the HUD broadcast loop and the listener. It blocks
// until Shutdown and then returns nil.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.cfg.Runs, s.cfg.BroadcastPeriod)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()
	s.logger.Info("🌐 API server starting", zap.String("addr", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops background workers and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	s.rateLimiter.Stop()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
