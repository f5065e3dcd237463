package game

import (
	"errors"
	"math/rand"
	"testing"

	"sidescroller/internal/eventlog"
)

var testProfile = DifficultyProfile{
	Name:            "test",
	MaxSpeed:        3,
	SpawnIntervalMs: 1000,
	StartingLives:   2,
	TimeLimitMs:     10_000,
}

type recordingPlayer struct {
	trace   *[]string
	entered int
	keys    []InputState
	onTick  func()
}

func (p *recordingPlayer) Enter() { p.entered++ }
func (p *recordingPlayer) Update(in InputState, deltaMs float64) {
	*p.trace = append(*p.trace, "player")
	p.keys = append(p.keys, in)
	if p.onTick != nil {
		p.onTick()
	}
}
func (p *recordingPlayer) Draw(Canvas) { *p.trace = append(*p.trace, "draw-player") }

type recordingBackground struct {
	trace  *[]string
	speeds []float64
}

func (b *recordingBackground) Update(speed float64) {
	*b.trace = append(*b.trace, "background")
	b.speeds = append(b.speeds, speed)
}
func (b *recordingBackground) Draw(Canvas) { *b.trace = append(*b.trace, "draw-background") }

type staticInput InputState

func (s staticInput) Keys() InputState { return InputState(s) }

type recordingOverlay struct {
	trace *[]string
	last  HUD
}

func (o *recordingOverlay) Draw(c Canvas, hud HUD) {
	*o.trace = append(*o.trace, "draw-overlay")
	o.last = hud
}

func newTestState(t *testing.T, profile DifficultyProfile, collab Collaborators) *SimulationState {
	t.Helper()
	opts := DefaultStateOptions()
	opts.Rand = rand.New(rand.NewSource(1))
	opts.RunID = "test-run"
	s, err := NewSimulationState(profile, opts, collab)
	if err != nil {
		t.Fatalf("NewSimulationState: %v", err)
	}
	return s
}

// TestNewSimulationState verifies a fresh run starts from the profile
func TestNewSimulationState(t *testing.T) {
	var trace []string
	player := &recordingPlayer{trace: &trace}
	s := newTestState(t, testProfile, Collaborators{
		NewPlayer: func(*SimulationState) Player { return player },
	})

	if player.entered != 1 {
		t.Errorf("Expected Enter once, got %d", player.entered)
	}
	if s.Lives() != 2 || s.Score() != 0 || s.Level() != 1 {
		t.Errorf("Unexpected start: lives=%d score=%d level=%d", s.Lives(), s.Score(), s.Level())
	}
	if s.Terminal() || s.Outcome() != OutcomeNone {
		t.Error("Fresh run must not be terminal")
	}
	if s.Speed() != 0 {
		t.Errorf("Expected speed 0, got %v", s.Speed())
	}
}

// TestUpdateOrder verifies collaborators run before spawning and draw order is fixed
func TestUpdateOrder(t *testing.T) {
	var trace []string
	bg := &recordingBackground{trace: &trace}
	player := &recordingPlayer{trace: &trace}
	overlay := &recordingOverlay{trace: &trace}
	keys := staticInput{"ArrowRight": true}

	s := newTestState(t, testProfile, Collaborators{
		NewPlayer:     func(*SimulationState) Player { return player },
		NewBackground: func(*SimulationState) Background { return bg },
		Input:         keys,
		Overlay:       overlay,
	})

	s.Update(16)
	s.Draw(nopCanvas{})

	want := []string{"background", "player", "draw-background", "draw-player", "draw-overlay"}
	if len(trace) != len(want) {
		t.Fatalf("Expected trace %v, got %v", want, trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("Step %d: expected %s, got %s", i, want[i], trace[i])
		}
	}
	if len(player.keys) != 1 || !player.keys[0].Pressed("ArrowRight") {
		t.Error("Player should receive the input state")
	}
	if overlay.last.RunID != "test-run" {
		t.Errorf("Overlay should see the HUD, got %+v", overlay.last)
	}
}

// TestSpawnedEnemyUpdatedSameFrame verifies the spawn check runs before the
// pools are updated
func TestSpawnedEnemyUpdatedSameFrame(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})

	stats := s.Update(1001)
	if stats.Spawned != 1 {
		t.Fatalf("Expected 1 spawn, got %d", stats.Spawned)
	}
	e := s.Enemies()[0]
	if e.frameTimer != 1001 {
		t.Errorf("Expected the new enemy to be updated once with dt 1001, got frameTimer %v", e.frameTimer)
	}
}

// TestEntityMarkedDuringUpdateIsPruned verifies pruning follows the pool
// updates within the same frame
func TestEntityMarkedDuringUpdateIsPruned(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})
	fading := &Particle{Kind: ParticleDust, Size: 0.51, world: s}
	finishing := &CollisionEffect{Frame: 4, MaxFrame: 4, frameInterval: 10, frameTimer: 11, world: s}
	s.AddParticle(fading)
	s.AddCollision(finishing)

	stats := s.Update(16)
	if !fading.MarkedForDeletion() || !finishing.MarkedForDeletion() {
		t.Fatal("Both entities should mark themselves during the update")
	}
	if len(s.Particles()) != 0 || len(s.Collisions()) != 0 {
		t.Errorf("Expected both pools empty, got particles=%d collisions=%d", len(s.Particles()), len(s.Collisions()))
	}
	if stats.Pruned != 2 {
		t.Errorf("Expected 2 pruned, got %d", stats.Pruned)
	}
}

// TestNotificationAgedAfterPlayer verifies a banner raised by the player is
// counted down in the frame that raised it
func TestNotificationAgedAfterPlayer(t *testing.T) {
	var trace []string
	var s *SimulationState
	player := &recordingPlayer{trace: &trace}
	player.onTick = func() {
		if s.Score() == 0 {
			s.AddScore(10)
		}
	}
	s = newTestState(t, testProfile, Collaborators{
		NewPlayer: func(*SimulationState) Player { return player },
	})

	s.Update(16)
	n, ok := s.Notification()
	if !ok {
		t.Fatal("Expected a notification")
	}
	if n.RemainingMs != NotificationDurationMs-16 {
		t.Errorf("Expected %v ms left, got %v", NotificationDurationMs-16, n.RemainingMs)
	}
}

// TestTerminalFrameCompletes verifies the frame that hits the time limit
// still runs every later step
func TestTerminalFrameCompletes(t *testing.T) {
	var trace []string
	bg := &recordingBackground{trace: &trace}
	player := &recordingPlayer{trace: &trace}
	s := newTestState(t, testProfile, Collaborators{
		NewPlayer:     func(*SimulationState) Player { return player },
		NewBackground: func(*SimulationState) Background { return bg },
	})
	s.AddScore(10)
	fading := &Particle{Kind: ParticleDust, Size: 0.51, world: s}
	s.AddParticle(fading)

	stats := s.Update(testProfile.TimeLimitMs + 1)
	if !s.Terminal() {
		t.Fatal("Expected the run to end")
	}
	if len(trace) != 2 || trace[0] != "background" || trace[1] != "player" {
		t.Errorf("Expected background and player updates, got %v", trace)
	}
	if stats.Spawned != 1 {
		t.Errorf("Expected the spawn check to run, got %d spawns", stats.Spawned)
	}
	if len(s.Particles()) != 0 {
		t.Errorf("Expected the fading particle pruned, got %d", len(s.Particles()))
	}
	if _, ok := s.Notification(); ok {
		t.Error("Expected the notification to expire in the same frame")
	}
}

// TestTimeLimitEndsRun verifies exceeding the limit sets the terminal flag
func TestTimeLimitEndsRun(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})

	s.Update(6000)
	if s.Terminal() {
		t.Fatal("Run ended before the time limit")
	}
	s.Update(4000)
	if s.Terminal() {
		t.Fatal("Reaching the limit exactly must not end the run")
	}
	stats := s.Update(1)
	if !s.Terminal() || !stats.Terminal {
		t.Fatal("Run should end once elapsed exceeds the limit")
	}
	if s.Outcome() != OutcomeTimeout {
		t.Errorf("Expected timeout, got %q", s.Outcome())
	}
}

// TestLosingAllLivesEndsRun verifies lives reaching zero is terminal
func TestLosingAllLivesEndsRun(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})

	s.LoseLife()
	if s.Terminal() {
		t.Fatal("Run ended with a life left")
	}
	s.LoseLife()
	if !s.Terminal() || s.Outcome() != OutcomeLost {
		t.Errorf("Expected lost, got terminal=%v outcome=%q", s.Terminal(), s.Outcome())
	}
	s.LoseLife()
	if s.Lives() != 0 {
		t.Errorf("Lives must not go negative, got %d", s.Lives())
	}
}

// TestOutcomeWonAboveThreshold verifies a high score wins however the run ended
func TestOutcomeWonAboveThreshold(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})
	if err := s.AddScore(26); err != nil {
		t.Fatal(err)
	}
	s.Update(20_000)
	if s.Outcome() != OutcomeWon {
		t.Errorf("Expected won, got %q", s.Outcome())
	}

	s = newTestState(t, testProfile, Collaborators{})
	s.AddScore(25)
	s.SetTerminal()
	if s.Outcome() != OutcomeLost {
		t.Errorf("Score equal to the threshold is not a win, got %q", s.Outcome())
	}
}

// TestStateSpawnsEnemies verifies the spawner feeds the enemy pool
func TestStateSpawnsEnemies(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})

	s.Update(0)
	stats := s.Update(1001)
	if stats.Spawned != 1 || len(s.Enemies()) != 1 {
		t.Fatalf("Stationary world should spawn one flyer, got spawned=%d enemies=%d", stats.Spawned, len(s.Enemies()))
	}
	if s.Enemies()[0].Kind != EnemyFlying {
		t.Errorf("Expected flyer, got %s", s.Enemies()[0].Kind)
	}

	s.SetSpeed(3)
	stats = s.Update(1001)
	if stats.Spawned != 2 {
		t.Errorf("Scrolling world should spawn two enemies, got %d", stats.Spawned)
	}
}

// TestParticleCapacityBeforePrune verifies the frame trims particles before
// removing dead ones
func TestParticleCapacityBeforePrune(t *testing.T) {
	var trace []string
	var s *SimulationState
	player := &recordingPlayer{trace: &trace}
	player.onTick = func() {
		for i := 0; i < 201; i++ {
			p := NewDust(s, 100, 100)
			if i == 0 {
				p.MarkForDeletion()
			}
			s.AddParticle(p)
		}
	}
	s = newTestState(t, testProfile, Collaborators{
		NewPlayer: func(*SimulationState) Player { return player },
	})

	stats := s.Update(16)
	if stats.Trimmed != 1 || stats.Pruned != 1 {
		t.Errorf("Expected trimmed=1 pruned=1, got trimmed=%d pruned=%d", stats.Trimmed, stats.Pruned)
	}
	if len(s.Particles()) != 199 {
		t.Errorf("Expected 199 particles, got %d", len(s.Particles()))
	}
}

// TestNotificationCountdownInUpdate verifies the banner is aged by each frame
func TestNotificationCountdownInUpdate(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})
	s.AddScore(10)

	s.Update(1000)
	hud := s.HUD()
	if hud.Notification == nil || hud.Notification.RemainingMs != 2000 {
		t.Fatalf("Expected 2000ms left, got %+v", hud.Notification)
	}
	s.Update(2000)
	if s.HUD().Notification != nil {
		t.Error("Notification should have expired")
	}
}

// TestSetSpeedClamps verifies speed stays within [0, 2*MaxSpeed]
func TestSetSpeedClamps(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})
	tests := []struct{ in, want float64 }{{-1, 0}, {2, 2}, {6, 6}, {10, 6}}
	for _, tt := range tests {
		s.SetSpeed(tt.in)
		if s.Speed() != tt.want {
			t.Errorf("SetSpeed(%v): expected %v, got %v", tt.in, tt.want, s.Speed())
		}
	}
}

// TestStateRejectsNegativeScore verifies the aggregate surfaces the sentinel
func TestStateRejectsNegativeScore(t *testing.T) {
	s := newTestState(t, testProfile, Collaborators{})
	if err := s.AddScore(-1); !errors.Is(err, ErrNegativeScore) {
		t.Errorf("Expected ErrNegativeScore, got %v", err)
	}
}

// TestNegativeMaxParticles verifies construction fails on a negative capacity
func TestNegativeMaxParticles(t *testing.T) {
	opts := DefaultStateOptions()
	opts.MaxParticles = -1
	if _, err := NewSimulationState(testProfile, opts, Collaborators{}); !errors.Is(err, ErrNegativeCapacity) {
		t.Errorf("Expected ErrNegativeCapacity, got %v", err)
	}
}

// TestEachLevelCrossingIsEmitted verifies every crossing reaches the event log
func TestEachLevelCrossingIsEmitted(t *testing.T) {
	events := &captureEmitter{}
	opts := DefaultStateOptions()
	opts.Rand = rand.New(rand.NewSource(1))
	opts.Events = events
	s, err := NewSimulationState(testProfile, opts, Collaborators{})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.AddScore(60); err != nil {
		t.Fatal(err)
	}
	if got := events.count(eventlog.EventTypeLevelUp); got != 2 {
		t.Errorf("Expected 2 level_up events, got %d", got)
	}
	if s.Level() != 3 {
		t.Errorf("Expected level 3, got %d", s.Level())
	}
}

// TestZeroMaxParticlesUsesDefault verifies a zero cap keeps particles alive
func TestZeroMaxParticlesUsesDefault(t *testing.T) {
	opts := DefaultStateOptions()
	opts.MaxParticles = 0
	s, err := NewSimulationState(testProfile, opts, Collaborators{})
	if err != nil {
		t.Fatal(err)
	}

	s.AddParticle(NewDust(s, 100, 100))
	stats := s.Update(16)
	if stats.Trimmed != 0 || len(s.Particles()) != 1 {
		t.Errorf("Expected 1 particle and no trims, got particles=%d trimmed=%d", len(s.Particles()), stats.Trimmed)
	}
	if capacity, bounded := s.particles.Capacity(); !bounded || capacity != DefaultStateOptions().MaxParticles {
		t.Errorf("Expected bounded cap %d, got %d (bounded=%v)", DefaultStateOptions().MaxParticles, capacity, bounded)
	}
}
