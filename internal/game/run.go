package game

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sidescroller/internal/eventlog"
)

// RunInfo describes the run most recently started.
type RunInfo struct {
	ID        string            `json:"id"`
	Requested string            `json:"requested"`
	FellBack  bool              `json:"fellBack"`
	Profile   DifficultyProfile `json:"profile"`
}

// RunManagerConfig collects what every run is built from.
type RunManagerConfig struct {
	Difficulties  *DifficultyTable
	Options       StateOptions
	Collaborators Collaborators

	// NewScheduler returns a fresh scheduler per run.
	NewScheduler func() Scheduler
	Presenter    Presenter
	Observer     FrameObserver
	Logger       *zap.Logger
	Events       eventlog.Emitter
}

// RunManager owns the current run. Starting a run abandons the previous one.
type RunManager struct {
	mu      sync.Mutex
	cfg     RunManagerConfig
	hud     *HUDPublisher
	current *Driver
	info    RunInfo
	hasRun  bool
}

// NewRunManager applies defaults to cfg.
func NewRunManager(cfg RunManagerConfig) *RunManager {
	if cfg.Difficulties == nil {
		cfg.Difficulties = DefaultDifficulties()
	}
	if cfg.NewScheduler == nil {
		cfg.NewScheduler = func() Scheduler { return NewTickerScheduler(60) }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Events == nil {
		cfg.Events = eventlog.Nop{}
	}
	cfg.Options.Logger = cfg.Logger
	cfg.Options.Events = cfg.Events

	return &RunManager{
		cfg: cfg,
		hud: NewHUDPublisher(),
	}
}

// StartRun selects the profile for difficultyKey (falling back to the
// table's default for unknown keys), builds a fresh state and starts its
// frame loop.
func (m *RunManager) StartRun(difficultyKey string) (RunInfo, error) {
	profile, ok := m.cfg.Difficulties.Select(difficultyKey)
	if !ok {
		m.cfg.Logger.Warn("unknown difficulty, using default",
			zap.String("requested", difficultyKey),
			zap.String("default", profile.Name),
		)
	}

	info := RunInfo{
		ID:        uuid.NewString(),
		Requested: difficultyKey,
		FellBack:  !ok,
		Profile:   profile,
	}

	opts := m.cfg.Options
	opts.RunID = info.ID
	state, err := NewSimulationState(profile, opts, m.cfg.Collaborators)
	if err != nil {
		return RunInfo{}, err
	}

	driver := NewDriver(state, m.cfg.NewScheduler(), DriverOptions{
		Presenter:  m.cfg.Presenter,
		Observer:   m.cfg.Observer,
		HUD:        m.hud,
		Logger:     m.cfg.Logger,
		OnTerminal: m.runEnded,
	})

	m.mu.Lock()
	previous := m.current
	m.current = driver
	m.info = info
	m.hasRun = true
	m.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	m.hud.Publish(state.HUD())

	m.cfg.Events.EmitSimple(eventlog.EventTypeRunStart, 0, info.ID, eventlog.RunStartPayload{
		Difficulty:      profile.Name,
		FellBack:        info.FellBack,
		MaxSpeed:        profile.MaxSpeed,
		SpawnIntervalMs: profile.SpawnIntervalMs,
		Lives:           profile.StartingLives,
		TimeLimitMs:     profile.TimeLimitMs,
	})
	m.cfg.Logger.Info("run started",
		zap.String("run", info.ID),
		zap.String("difficulty", profile.Name),
	)

	driver.Start()
	return info, nil
}

func (m *RunManager) runEnded(s *SimulationState) {
	m.cfg.Events.EmitSimple(eventlog.EventTypeRunEnd, s.Frame(), s.RunID(), eventlog.RunEndPayload{
		Outcome:   string(s.Outcome()),
		Score:     s.Score(),
		Level:     s.Level(),
		ElapsedMs: s.ElapsedMs(),
	})
}

// Current returns the latest run's description.
func (m *RunManager) Current() (RunInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info, m.hasRun
}

// Done is closed when the current run ends. Nil before the first run.
func (m *RunManager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.Done()
}

// HUD returns the latest published snapshot of whichever run is active.
func (m *RunManager) HUD() (HUD, bool) { return m.hud.Latest() }

// Difficulties lists the selectable profiles.
func (m *RunManager) Difficulties() []DifficultyProfile { return m.cfg.Difficulties.Profiles() }

// Stop abandons the current run, if any.
func (m *RunManager) Stop() {
	m.mu.Lock()
	current := m.current
	m.current = nil
	m.mu.Unlock()
	if current != nil {
		current.Stop()
	}
}
