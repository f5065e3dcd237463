package api

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sidescroller/internal/assets"
	"sidescroller/internal/game"
)

// Metrics with bounded cardinality (no per-run or per-asset labels)
var (
	// Frame loop metrics
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_frame_duration_seconds",
		Help:    "Time spent in update, draw and publish for one frame",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.016, 0.033, 0.05},
	})

	frameDelta = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_frame_delta_ms",
		Help:    "Elapsed time between consecutive frames",
		Buckets: []float64{0, 8, 16, 17, 20, 33, 50, 100, 250},
	})

	poolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "game_pool_entities",
		Help: "Live entities per pool after housekeeping",
	}, []string{"pool"}) // Bounded: "enemies", "particles", "collisions"

	enemiesSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_enemies_spawned_total",
		Help: "Enemies created by the spawner",
	})

	entitiesTrimmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_entities_trimmed_total",
		Help: "Entities dropped by capacity enforcement",
	})

	entitiesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_entities_pruned_total",
		Help: "Entities removed after being marked for deletion",
	})

	levelsGained = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_levels_gained_total",
		Help: "Level thresholds crossed",
	})

	runsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_runs_ended_total",
		Help: "Runs that reached a terminal frame",
	})

	// Asset barrier metrics
	assetsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assets_resolved_total",
		Help: "Assets that reached a terminal status",
	}, []string{"status"}) // Bounded: "loaded", "failed"

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket broadcasts sent",
	})

	wsKeysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_key_messages_total",
		Help: "Key messages received from clients",
	}, []string{"result"}) // Bounded: "applied", "rejected"
)

// FrameMetrics records every completed frame. It implements game.FrameObserver.
type FrameMetrics struct{}

// ObserveFrame implements game.FrameObserver.
func (FrameMetrics) ObserveFrame(stats game.FrameStats, took time.Duration) {
	frameDuration.Observe(took.Seconds())
	frameDelta.Observe(stats.DeltaMs)
	poolSize.WithLabelValues("enemies").Set(float64(stats.Enemies))
	poolSize.WithLabelValues("particles").Set(float64(stats.Particles))
	poolSize.WithLabelValues("collisions").Set(float64(stats.Collisions))
	enemiesSpawned.Add(float64(stats.Spawned))
	entitiesTrimmed.Add(float64(stats.Trimmed))
	entitiesPruned.Add(float64(stats.Pruned))
	levelsGained.Add(float64(stats.LevelsGained))
	if stats.Terminal {
		runsEnded.Inc()
	}
}

// RecordAsset counts an asset reaching a terminal status. Its signature
// matches assets.BarrierOptions.OnAsset.
func RecordAsset(_ string, status assets.Status) {
	if status.Terminal() {
		assetsResolved.WithLabelValues(status.String()).Inc()
	}
}

// EventLogStats is the read side of the diagnostic event log.
type EventLogStats interface {
	GetTotalCount() uint64
	GetDroppedCount() uint64
}

// RegisterEventLogMetrics exposes the event log counters. Call once.
func RegisterEventLogMetrics(el EventLogStats) {
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	}, func() float64 { return float64(el.GetTotalCount()) })

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	}, func() float64 { return float64(el.GetDroppedCount()) })
}

// RecordConnectionRejected increments the rejection counter.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics.
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter.
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // localhost only unless AllowExternal
	// AllowExternal permits a non-loopback ListenAddr.
	AllowExternal bool
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugHandler serves pprof, /metrics and /health.
func DebugHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartDebugServer starts the internal observability server in the background.
// pprof must never be reachable from outside, so non-loopback addresses are
// rewritten unless explicitly allowed.
func StartDebugServer(cfg ObservabilityConfig, logger *zap.Logger) {
	if !cfg.Enabled {
		logger.Info("📊 Debug server disabled")
		return
	}

	if !cfg.AllowExternal && !isLoopbackAddr(cfg.ListenAddr) {
		logger.Warn("⚠️ Debug server forced to localhost", zap.String("requested", cfg.ListenAddr))
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	go func() {
		logger.Info("📊 Debug server starting",
			zap.String("pprof", "http://"+cfg.ListenAddr+"/debug/pprof/"),
			zap.String("metrics", "http://"+cfg.ListenAddr+"/metrics"),
		)
		if err := http.ListenAndServe(cfg.ListenAddr, DebugHandler()); err != nil {
			logger.Warn("⚠️ Debug server error", zap.Error(err))
		}
	}()
}
