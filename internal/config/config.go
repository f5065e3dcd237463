// Package config provides centralized configuration management.
// Every tunable the server reads from the environment is declared here;
// other packages receive values, never read the environment themselves.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// VIDEO & CANVAS CONFIGURATION
// =============================================================================

// VideoConfig holds the frame buffer and tick settings.
type VideoConfig struct {
	Width        int     // Canvas width in pixels
	Height       int     // Canvas height in pixels
	FPS          int     // Frame rate of the ticker scheduler
	GroundMargin float64 // Distance from the bottom edge to the ground line
	FontPath     string  // TrueType font for the overlay, empty to search
}

// DefaultVideo returns the default video configuration.
func DefaultVideo() VideoConfig {
	return VideoConfig{
		Width:        1280,
		Height:       720,
		FPS:          60,
		GroundMargin: 80,
	}
}

// VideoFromEnv returns video configuration with environment variable overrides.
func VideoFromEnv() VideoConfig {
	cfg := DefaultVideo()

	if w := getEnvInt("CANVAS_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("CANVAS_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if fps := getEnvInt("FPS", 0); fps > 0 {
		cfg.FPS = fps
	}
	if m := getEnvFloat("GROUND_MARGIN", -1); m >= 0 {
		cfg.GroundMargin = m
	}
	cfg.FontPath = os.Getenv("FONT_PATH")

	return cfg
}

// =============================================================================
// GAME RESOURCE LIMITS
// =============================================================================

// ResourceLimits bounds the per-run entity pools.
type ResourceLimits struct {
	MaxParticles  int // Particle pool capacity, always bounded
	MaxCollisions int // Collision effect pool capacity, 0 = unbounded
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxParticles:  200,
		MaxCollisions: 0,
	}
}

// LimitsFromEnv returns resource limits with environment variable overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if p := getEnvInt("MAX_PARTICLES", 0); p > 0 {
		cfg.MaxParticles = p
	}
	if c := getEnvInt("MAX_COLLISIONS", -1); c >= 0 {
		cfg.MaxCollisions = c
	}

	return cfg
}

// =============================================================================
// GAME RULES
// =============================================================================

// GameConfig holds the run rules and the data files that tune them.
type GameConfig struct {
	DefaultDifficulty string
	WinThreshold      int
	DifficultyFile    string // TOML, optional
	ProgressionFile   string // YAML, optional
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		DefaultDifficulty: "medium",
		WinThreshold:      25,
		DifficultyFile:    "data/difficulty.toml",
		ProgressionFile:   "data/progression.yaml",
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if d := os.Getenv("DEFAULT_DIFFICULTY"); d != "" {
		cfg.DefaultDifficulty = d
	}
	if w := getEnvInt("WIN_THRESHOLD", -1); w >= 0 {
		cfg.WinThreshold = w
	}
	if f := os.Getenv("DIFFICULTY_FILE"); f != "" {
		cfg.DifficultyFile = f
	}
	if f := os.Getenv("PROGRESSION_FILE"); f != "" {
		cfg.ProgressionFile = f
	}

	return cfg
}

// =============================================================================
// ASSET CONFIGURATION
// =============================================================================

// AssetConfig controls the startup readiness barrier.
type AssetConfig struct {
	Dir         string        // Directory scanned for images and audio
	WaitTimeout time.Duration // Upper bound on waiting for the barrier
}

// DefaultAssets returns the default asset configuration.
func DefaultAssets() AssetConfig {
	return AssetConfig{
		Dir:         "assets",
		WaitTimeout: 30 * time.Second,
	}
}

// AssetsFromEnv returns asset configuration with environment variable overrides.
func AssetsFromEnv() AssetConfig {
	cfg := DefaultAssets()

	if d := os.Getenv("ASSET_DIR"); d != "" {
		cfg.Dir = d
	}
	if s := getEnvInt("ASSET_TIMEOUT_SECONDS", 0); s > 0 {
		cfg.WaitTimeout = time.Duration(s) * time.Second
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	DebugPort       int     // pprof and /metrics on localhost, 0 = disabled
	RateLimit       float64 // Requests per second per IP
	RateBurst       int
	BroadcastPeriod time.Duration // HUD push interval on /ws
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:            3000,
		DebugPort:       6060,
		RateLimit:       20,
		RateBurst:       40,
		BroadcastPeriod: 100 * time.Millisecond,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if p := getEnvInt("DEBUG_PORT", -1); p >= 0 {
		cfg.DebugPort = p
	}
	if r := getEnvFloat("RATE_LIMIT", 0); r > 0 {
		cfg.RateLimit = r
	}
	if b := getEnvInt("RATE_BURST", 0); b > 0 {
		cfg.RateBurst = b
	}

	return cfg
}

// =============================================================================
// LOGGING CONFIGURATION
// =============================================================================

// LoggingConfig selects the zap encoder and level.
type LoggingConfig struct {
	Level        string // debug, info, warn, error
	Format       string // console or json
	EventLogPath string // JSONL diagnostic event log, empty = disabled
}

// DefaultLogging returns the default logging configuration.
func DefaultLogging() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "console",
	}
}

// LoggingFromEnv returns logging configuration with environment variable overrides.
func LoggingFromEnv() LoggingConfig {
	cfg := DefaultLogging()

	if l := os.Getenv("LOG_LEVEL"); l != "" {
		cfg.Level = l
	}
	if f := os.Getenv("LOG_FORMAT"); f != "" {
		cfg.Format = f
	}
	cfg.EventLogPath = os.Getenv("EVENT_LOG_PATH")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Video   VideoConfig
	Limits  ResourceLimits
	Game    GameConfig
	Assets  AssetConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Video:   VideoFromEnv(),
		Limits:  LimitsFromEnv(),
		Game:    GameFromEnv(),
		Assets:  AssetsFromEnv(),
		Server:  ServerFromEnv(),
		Logging: LoggingFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
