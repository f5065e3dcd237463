package game

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"sidescroller/internal/eventlog"
)

// Outcome describes how a run ended.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomeTimeout Outcome = "timeout"
)

// EndReason records which condition set the terminal flag first.
type EndReason uint8

const (
	EndNone EndReason = iota
	EndTimeLimit
	EndLivesExhausted
	EndExternal
)

// InputState is the set of control names currently held down.
type InputState map[string]bool

// Pressed reports whether key is held.
func (in InputState) Pressed(key string) bool { return in[key] }

// Player is the controllable character. Enter is called once when the
// state is built; Update runs every frame before enemies spawn.
type Player interface {
	Enter()
	Update(in InputState, deltaMs float64)
	Draw(c Canvas)
}

// Background scrolls with the world.
type Background interface {
	Update(speed float64)
	Draw(c Canvas)
}

// InputSource exposes the active controls.
type InputSource interface {
	Keys() InputState
}

// Overlay draws HUD and end-of-run text. It must not mutate the state.
type Overlay interface {
	Draw(c Canvas, hud HUD)
}

// Collaborators plugs the per-run actors into a SimulationState. Nil members
// are skipped.
type Collaborators struct {
	NewPlayer     func(s *SimulationState) Player
	NewBackground func(s *SimulationState) Background
	Input         InputSource
	Overlay       Overlay
}

// StateOptions configures the world a run is played in.
type StateOptions struct {
	Width         float64
	Height        float64
	GroundMargin  float64
	MaxParticles  int // 0 = default cap; particles are always bounded
	MaxCollisions int // 0 = unbounded
	WinThreshold  int

	Progression *ProgressionTable
	Rand        *rand.Rand
	Logger      *zap.Logger
	Events      eventlog.Emitter
	RunID       string
}

// DefaultStateOptions returns a 1280x720 world with the stock limits.
func DefaultStateOptions() StateOptions {
	return StateOptions{
		Width:        1280,
		Height:       720,
		GroundMargin: 80,
		MaxParticles: 200,
		WinThreshold: 25,
	}
}

// FrameStats summarises what one Update did.
type FrameStats struct {
	Frame        uint64
	DeltaMs      float64
	Spawned      int
	Trimmed      int
	Pruned       int
	LevelsGained int
	Enemies      int
	Particles    int
	Collisions   int
	Terminal     bool
}

// SimulationState is the aggregate for one run. It is not safe for
// concurrent use; the driver serialises all access.
type SimulationState struct {
	runID   string
	profile DifficultyProfile
	opts    StateOptions

	elapsedMs float64
	speed     float64
	lives     int
	terminal  bool
	endReason EndReason
	frame     uint64

	progression *Progression
	spawner     *EnemySpawner

	enemies    *Pool[*Enemy]
	particles  *Pool[*Particle]
	collisions *Pool[*CollisionEffect]

	player     Player
	background Background
	input      InputSource
	overlay    Overlay

	stats  FrameStats
	rng    *rand.Rand
	logger *zap.Logger
	events eventlog.Emitter
}

// NewSimulationState builds a fresh run from profile. The player's Enter
// hook runs before this returns.
func NewSimulationState(profile DifficultyProfile, opts StateOptions, collab Collaborators) (*SimulationState, error) {
	def := DefaultStateOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.MaxParticles == 0 {
		opts.MaxParticles = def.MaxParticles
	}
	if opts.Progression == nil {
		opts.Progression = DefaultProgression()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Events == nil {
		opts.Events = eventlog.Nop{}
	}

	particles, err := NewBoundedPool[*Particle]("particles", opts.MaxParticles)
	if err != nil {
		return nil, err
	}
	var collisions *Pool[*CollisionEffect]
	if opts.MaxCollisions > 0 {
		if collisions, err = NewBoundedPool[*CollisionEffect]("collisions", opts.MaxCollisions); err != nil {
			return nil, err
		}
	} else {
		collisions = NewPool[*CollisionEffect]("collisions")
	}

	s := &SimulationState{
		runID:      opts.RunID,
		profile:    profile,
		opts:       opts,
		lives:      profile.StartingLives,
		spawner:    NewEnemySpawner(profile.SpawnIntervalMs),
		enemies:    NewPool[*Enemy]("enemies"),
		particles:  particles,
		collisions: collisions,
		input:      collab.Input,
		overlay:    collab.Overlay,
		rng:        opts.Rand,
		logger:     opts.Logger.With(zap.String("run", opts.RunID)),
		events:     opts.Events,
	}
	s.progression = NewProgression(opts.Progression, s.onLevelUp)

	if collab.NewBackground != nil {
		s.background = collab.NewBackground(s)
	}
	if collab.NewPlayer != nil {
		s.player = collab.NewPlayer(s)
		s.player.Enter()
	}
	return s, nil
}

func (s *SimulationState) onLevelUp(level, score int, message string) {
	s.logger.Info("level up", zap.Int("level", level), zap.Int("score", score))
	s.events.EmitSimple(eventlog.EventTypeLevelUp, s.frame, s.runID, eventlog.LevelUpPayload{
		Level:   level,
		Score:   score,
		Message: message,
	})
}

// Update advances the run by deltaMs.
func (s *SimulationState) Update(deltaMs float64) FrameStats {
	s.frame++
	s.stats = FrameStats{Frame: s.frame, DeltaMs: deltaMs}

	s.elapsedMs += deltaMs
	if s.elapsedMs > s.profile.TimeLimitMs {
		s.setTerminal(EndTimeLimit)
	}

	if s.background != nil {
		s.background.Update(s.speed)
	}
	if s.player != nil {
		var keys InputState
		if s.input != nil {
			keys = s.input.Keys()
		}
		s.player.Update(keys, deltaMs)
	}

	if s.spawner.Update(deltaMs) {
		s.spawnEnemies()
	}

	s.enemies.Update(deltaMs)
	s.particles.Update(deltaMs)
	s.collisions.Update(deltaMs)

	housekeep(s, s.enemies)
	housekeep(s, s.particles)
	housekeep(s, s.collisions)

	s.progression.Tick(deltaMs)

	s.stats.Enemies = s.enemies.Len()
	s.stats.Particles = s.particles.Len()
	s.stats.Collisions = s.collisions.Len()
	s.stats.Terminal = s.terminal
	return s.stats
}

func housekeep[T Entity](s *SimulationState, p *Pool[T]) {
	trimmed, pruned := p.Housekeep()
	s.stats.Trimmed += trimmed
	s.stats.Pruned += pruned
	if trimmed > 0 {
		capacity, _ := p.Capacity()
		s.events.EmitSimple(eventlog.EventTypeCapacityTrim, s.frame, s.runID, eventlog.TrimPayload{
			Pool:     p.Name(),
			Capacity: capacity,
			Dropped:  trimmed,
		})
	}
}

func (s *SimulationState) spawnEnemies() {
	spawned := SpawnEnemies(s)
	kinds := make([]string, 0, len(spawned))
	for _, e := range spawned {
		s.enemies.Spawn(e)
		kinds = append(kinds, e.Kind.String())
	}
	s.stats.Spawned += len(spawned)
	s.events.EmitSimple(eventlog.EventTypeEnemySpawn, s.frame, s.runID, eventlog.SpawnPayload{
		Kinds: kinds,
		Speed: s.speed,
	})
}

// Draw renders background, player, every pool and finally the overlay.
func (s *SimulationState) Draw(c Canvas) {
	if s.background != nil {
		s.background.Draw(c)
	}
	if s.player != nil {
		s.player.Draw(c)
	}
	s.enemies.Draw(c)
	s.particles.Draw(c)
	s.collisions.Draw(c)
	if s.overlay != nil {
		s.overlay.Draw(c, s.HUD())
	}
}

// AddScore forwards to the progression engine.
func (s *SimulationState) AddScore(points int) error {
	gained, err := s.progression.AddScore(points)
	s.stats.LevelsGained += gained
	return err
}

// LoseLife removes one life and ends the run when none remain.
func (s *SimulationState) LoseLife() {
	if s.lives <= 0 {
		return
	}
	s.lives--
	s.events.EmitSimple(eventlog.EventTypeLifeLost, s.frame, s.runID, eventlog.LifeLostPayload{Remaining: s.lives})
	if s.lives == 0 {
		s.setTerminal(EndLivesExhausted)
	}
}

// SetTerminal ends the run on behalf of a collaborator.
func (s *SimulationState) SetTerminal() { s.setTerminal(EndExternal) }

func (s *SimulationState) setTerminal(reason EndReason) {
	if s.terminal {
		return
	}
	s.terminal = true
	s.endReason = reason
}

// MaxSpeedMultiplier bounds the scroll speed relative to the profile's
// MaxSpeed; rolling runs at double speed.
const MaxSpeedMultiplier = 2

// SetSpeed sets the scroll speed, clamped to [0, MaxSpeed*MaxSpeedMultiplier].
func (s *SimulationState) SetSpeed(speed float64) {
	limit := s.profile.MaxSpeed * MaxSpeedMultiplier
	switch {
	case speed < 0:
		speed = 0
	case speed > limit:
		speed = limit
	}
	s.speed = speed
}

// AddParticle appends to the particle pool; capacity is enforced at the end
// of the frame.
func (s *SimulationState) AddParticle(p *Particle) { s.particles.Spawn(p) }

// AddCollision appends a collision effect.
func (s *SimulationState) AddCollision(ce *CollisionEffect) { s.collisions.Spawn(ce) }

// Enemies returns the live enemy slice; callers may mark but not reorder.
func (s *SimulationState) Enemies() []*Enemy { return s.enemies.Items() }

// Particles returns the live particle slice.
func (s *SimulationState) Particles() []*Particle { return s.particles.Items() }

// Collisions returns the live collision-effect slice.
func (s *SimulationState) Collisions() []*CollisionEffect { return s.collisions.Items() }

// World implementation.

func (s *SimulationState) Width() float64        { return s.opts.Width }
func (s *SimulationState) Height() float64       { return s.opts.Height }
func (s *SimulationState) GroundMargin() float64 { return s.opts.GroundMargin }
func (s *SimulationState) Speed() float64        { return s.speed }
func (s *SimulationState) Rand() float64         { return s.rng.Float64() }

func (s *SimulationState) RunID() string              { return s.runID }
func (s *SimulationState) Profile() DifficultyProfile { return s.profile }
func (s *SimulationState) MaxSpeed() float64          { return s.profile.MaxSpeed }
func (s *SimulationState) ElapsedMs() float64         { return s.elapsedMs }
func (s *SimulationState) Lives() int                 { return s.lives }
func (s *SimulationState) Score() int                 { return s.progression.Score() }
func (s *SimulationState) Level() int                 { return s.progression.Level() }
func (s *SimulationState) Terminal() bool             { return s.terminal }
func (s *SimulationState) EndReason() EndReason       { return s.endReason }
func (s *SimulationState) WinThreshold() int          { return s.opts.WinThreshold }
func (s *SimulationState) Frame() uint64              { return s.frame }

// Notification returns the active level-up banner, if any.
func (s *SimulationState) Notification() (Notification, bool) {
	return s.progression.Notification()
}

// Outcome classifies a finished run. Beating the win threshold counts as a
// win however the run ended.
func (s *SimulationState) Outcome() Outcome {
	if !s.terminal {
		return OutcomeNone
	}
	if s.Score() > s.opts.WinThreshold {
		return OutcomeWon
	}
	if s.endReason == EndTimeLimit {
		return OutcomeTimeout
	}
	return OutcomeLost
}

// HUD copies the values shown to the player.
func (s *SimulationState) HUD() HUD {
	h := HUD{
		RunID:        s.runID,
		Difficulty:   s.profile.Name,
		Frame:        s.frame,
		Score:        s.Score(),
		Level:        s.Level(),
		Lives:        s.lives,
		ElapsedMs:    s.elapsedMs,
		TimeLimitMs:  s.profile.TimeLimitMs,
		Speed:        s.speed,
		WinThreshold: s.opts.WinThreshold,
		Terminal:     s.terminal,
		Outcome:      s.Outcome(),
		Enemies:      s.enemies.Len(),
		Particles:    s.particles.Len(),
		Collisions:   s.collisions.Len(),
	}
	if n, ok := s.progression.Notification(); ok {
		h.Notification = &n
	}
	return h
}
