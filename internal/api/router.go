package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"sidescroller/internal/game"
)

// RunController is the part of game.RunManager the API drives.
// Keep this minimal so tests can fake it without a frame loop.
type RunController interface {
	StartRun(difficultyKey string) (game.RunInfo, error)
	Current() (game.RunInfo, bool)
	HUD() (game.HUD, bool)
	Difficulties() []game.DifficultyProfile
}

// FrameSource encodes the latest rendered frame.
type FrameSource interface {
	WritePNG(w io.Writer) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
type RouterConfig struct {
	// Runs is the run manager (required)
	Runs RunController

	// Frames serves /api/frame.png. If nil the route answers 404.
	Frames FrameSource

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to DefaultCORSOrigins.
	CORSOrigins []string

	// Logger receives one line per request unless DisableLogging is set.
	Logger         *zap.Logger
	DisableLogging bool
}

type routerHandlers struct {
	runs   RunController
	frames FrameSource
	logger *zap.Logger
}

// NewRouter constructs the HTTP router with all middleware and routes.
// Apart from a rate limiter created here it starts nothing, so it is safe to
// wrap in httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestObserver(logger, !cfg.DisableLogging))
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		runs:   cfg.Runs,
		frames: cfg.Frames,
		logger: logger,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/hud", h.handleGetHUD)
		r.Get("/difficulties", h.handleGetDifficulties)
		r.Get("/run", h.handleGetRun)
		r.Post("/run", h.handleStartRun)
		r.Get("/frame.png", h.handleGetFrame)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}

// requestObserver records latency per route pattern and optionally logs.
func requestObserver(logger *zap.Logger, logRequests bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			took := time.Since(start)
			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			RecordRequest(r.Method, pattern, status, took)

			if logRequests {
				logger.Debug("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Duration("took", took),
					zap.String("ip", GetClientIP(r)),
				)
			}
		})
	}
}
