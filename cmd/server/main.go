package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sidescroller/internal/api"
	"sidescroller/internal/assets"
	"sidescroller/internal/config"
	"sidescroller/internal/data"
	"sidescroller/internal/eventlog"
	"sidescroller/internal/game"
	"sidescroller/internal/input"
	"sidescroller/internal/logging"
	"sidescroller/internal/player"
	"sidescroller/internal/render"
	"sidescroller/internal/scene"
)

// playerSprite is the asset ID of the runner's sprite sheet.
const playerSprite = "player"

func main() {
	envErr := godotenv.Load(".env")

	appConfig := config.Load()

	logger, err := logging.New(appConfig.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("💡 No .env file found, using environment variables only")
	} else {
		logger.Info("✅ Loaded environment from .env")
	}

	if err := run(appConfig, logger); err != nil {
		logger.Fatal("❌ Server stopped", zap.Error(err))
	}
}

func run(cfg config.AppConfig, logger *zap.Logger) error {
	videoCfg := cfg.Video
	logger.Info("🎮 Side-scroller starting",
		zap.Int("width", videoCfg.Width),
		zap.Int("height", videoCfg.Height),
		zap.Int("fps", videoCfg.FPS),
	)

	// Diagnostic event log
	var events eventlog.Emitter = eventlog.Nop{}
	if path := cfg.Logging.EventLogPath; path != "" {
		el := eventlog.New()
		if err := el.Start(path); err != nil {
			logger.Warn("⚠️ Event log disabled", zap.Error(err))
		} else {
			defer el.Stop()
			api.RegisterEventLogMetrics(el)
			events = el
			logger.Info("📝 Event log", zap.String("path", path))
		}
	}

	// Debug server
	if cfg.Server.DebugPort > 0 {
		debugCfg := api.DefaultObservabilityConfig()
		debugCfg.ListenAddr = fmt.Sprintf("127.0.0.1:%d", cfg.Server.DebugPort)
		api.StartDebugServer(debugCfg, logger)
	}

	// Tuning tables
	difficulties, err := data.LoadDifficultyTable(cfg.Game.DifficultyFile)
	if err != nil {
		return err
	}
	progression, err := data.LoadProgressionTable(cfg.Game.ProgressionFile)
	if err != nil {
		return err
	}
	logger.Info("📊 Tables loaded",
		zap.Int("difficulties", len(difficulties.Profiles())),
		zap.Ints("thresholds", progression.Thresholds()),
	)

	// Assets gate the first run
	loader, err := loadAssets(cfg.Assets, logger, events)
	if err != nil {
		return err
	}

	// Rendering
	fonts, err := render.LoadFonts(videoCfg.FontPath)
	if err != nil {
		logger.Warn("⚠️ No overlay font, using the built-in face", zap.Error(err))
	}
	renderer := render.NewRenderer(videoCfg.Width, videoCfg.Height, fonts)
	overlay := render.NewOverlay(float64(videoCfg.Width), float64(videoCfg.Height), fonts)

	keys := input.NewHandler()

	opts := game.DefaultStateOptions()
	opts.Width = float64(videoCfg.Width)
	opts.Height = float64(videoCfg.Height)
	opts.GroundMargin = videoCfg.GroundMargin
	opts.MaxParticles = cfg.Limits.MaxParticles
	opts.MaxCollisions = cfg.Limits.MaxCollisions
	opts.WinThreshold = cfg.Game.WinThreshold
	opts.Progression = progression

	runs := game.NewRunManager(game.RunManagerConfig{
		Difficulties: difficulties,
		Options:      opts,
		Collaborators: game.Collaborators{
			NewPlayer: func(s *game.SimulationState) game.Player {
				runner := player.New(s, loader.Image(playerSprite))
				runner.SetLogger(logger.Named("player"))
				return runner
			},
			NewBackground: func(s *game.SimulationState) game.Background {
				return scene.New(s, scene.DefaultLayers(), loader)
			},
			Input:   keys,
			Overlay: overlay,
		},
		NewScheduler: func() game.Scheduler { return game.NewTickerScheduler(videoCfg.FPS) },
		Presenter:    renderer,
		Observer:     api.FrameMetrics{},
		Logger:       logger,
		Events:       events,
	})
	defer runs.Stop()

	if _, err := runs.StartRun(cfg.Game.DefaultDifficulty); err != nil {
		return err
	}

	server := api.NewServer(api.ServerConfig{
		Runs:   runs,
		Frames: renderer,
		Input:  keys,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit,
			Burst:             cfg.Server.RateBurst,
			CleanupInterval:   api.DefaultRateLimitConfig.CleanupInterval,
		},
		BroadcastPeriod: cfg.Server.BroadcastPeriod,
		Logger:          logger,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start(fmt.Sprintf(":%d", cfg.Server.Port))
	}()
	logger.Info("🎮 Ready",
		zap.String("hud", fmt.Sprintf("http://localhost:%d/api/hud", cfg.Server.Port)),
		zap.String("frame", fmt.Sprintf("http://localhost:%d/api/frame.png", cfg.Server.Port)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("🛑 Shutting down", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// loadAssets scans the asset directory and blocks until every entry has
// loaded or failed, or the timeout passes.
func loadAssets(cfg config.AssetConfig, logger *zap.Logger, events eventlog.Emitter) (*assets.Loader, error) {
	entries, err := assets.ScanDir(cfg.Dir)
	if err != nil {
		return nil, err
	}

	loader := assets.NewLoader(logger)
	barrier, err := assets.NewBarrier(loader.LoadAll(entries), func(r assets.Report) {
		logger.Info("📦 Assets ready",
			zap.Int("loaded", len(r.Loaded)),
			zap.Int("failed", len(r.Failed)),
		)
	}, assets.BarrierOptions{
		Logger:  logger,
		Events:  events,
		OnAsset: api.RecordAsset,
	})
	if err != nil {
		return nil, err
	}
	barrier.Register()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.WaitTimeout)
	defer cancel()
	if _, err := barrier.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for assets in %s: %w", cfg.Dir, err)
	}

	images, sounds := loader.Counts()
	logger.Info("🖼️ Assets decoded", zap.Int("images", images), zap.Int("sounds", sounds))
	return loader, nil
}
