// Package player implements the controllable runner and its state machine.
package player

import (
	"image"
	"image/color"

	"go.uber.org/zap"

	"sidescroller/internal/game"
	"sidescroller/internal/input"
)

// Host is the part of the run the runner reads and mutates.
// *game.SimulationState satisfies it.
type Host interface {
	game.World
	MaxSpeed() float64
	SetSpeed(speed float64)
	Enemies() []*game.Enemy
	AddScore(points int) error
	LoseLife()
	AddParticle(p *game.Particle)
	AddCollision(ce *game.CollisionEffect)
}

const (
	Width        = 100
	Height       = 91.3
	Weight       = 1
	JumpVelocity = 27
	DiveVelocity = 15
	MaxRunSpeed  = 10
	fps          = 20
	splashCount  = 30
)

// Runner is the player character.
type Runner struct {
	host Host

	X, Y   float64
	VY     float64
	SpeedX float64

	FrameX   int
	FrameY   int
	MaxFrame int

	frameTimer float64
	sprite     image.Image

	states  map[StateID]state
	current StateID
	logger  *zap.Logger
}

// New creates a runner standing on the ground at the left edge. sprite may
// be nil.
func New(host Host, sprite image.Image) *Runner {
	r := &Runner{
		host:   host,
		sprite: sprite,
		logger: zap.NewNop(),
	}
	r.Y = host.Height() - Height - host.GroundMargin()
	r.states = map[StateID]state{
		Sitting: sitting{r},
		Running: running{r},
		Jumping: jumping{r},
		Falling: falling{r},
		Rolling: rolling{r},
		Diving:  diving{r},
		Hit:     hit{r},
	}
	return r
}

// SetLogger routes the runner's warnings to logger.
func (r *Runner) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Enter puts the runner in its initial state.
func (r *Runner) Enter() { r.SetState(Sitting) }

// State returns the current state.
func (r *Runner) State() StateID { return r.current }

// SetState switches state and scales the world speed to the state's pace.
func (r *Runner) SetState(id StateID) {
	r.current = id
	st := r.states[id]
	st.enter()
	r.host.SetSpeed(r.host.MaxSpeed() * st.pace())
}

// Update resolves collisions, applies input and moves the runner.
func (r *Runner) Update(in game.InputState, deltaMs float64) {
	r.checkCollisions()
	r.states[r.current].handleInput(in)

	r.X += r.SpeedX
	switch {
	case in.Pressed(input.KeyRight) && r.current != Hit:
		r.SpeedX = MaxRunSpeed
	case in.Pressed(input.KeyLeft) && r.current != Hit:
		r.SpeedX = -MaxRunSpeed
	default:
		r.SpeedX = 0
	}
	if r.X < 0 {
		r.X = 0
	}
	if maxX := r.host.Width() - Width; r.X > maxX {
		r.X = maxX
	}

	r.Y += r.VY
	if !r.OnGround() {
		r.VY += Weight
	} else {
		r.VY = 0
	}
	if ground := r.groundY(); r.Y > ground {
		r.Y = ground
	}

	if r.frameTimer > 1000/fps {
		r.frameTimer = 0
		if r.FrameX < r.MaxFrame {
			r.FrameX++
		} else {
			r.FrameX = 0
		}
	} else {
		r.frameTimer += deltaMs
	}
}

func (r *Runner) groundY() float64 {
	return r.host.Height() - Height - r.host.GroundMargin()
}

// OnGround reports whether the runner is standing on the ground.
func (r *Runner) OnGround() bool { return r.Y >= r.groundY() }

var stateColors = map[StateID]color.RGBA{
	Sitting: {90, 90, 160, 255},
	Running: {40, 90, 200, 255},
	Jumping: {40, 140, 220, 255},
	Falling: {40, 140, 220, 255},
	Rolling: {230, 100, 20, 255},
	Diving:  {230, 60, 20, 255},
	Hit:     {200, 30, 30, 255},
}

// Draw renders the sprite when one was loaded, otherwise a coloured box.
func (r *Runner) Draw(c game.Canvas) {
	if r.sprite != nil {
		c.DrawImage(r.sprite, int(r.X), int(r.Y))
		return
	}
	c.SetColor(stateColors[r.current])
	c.DrawRectangle(r.X, r.Y, Width, Height)
	c.Fill()
}

// checkCollisions resolves overlaps with enemies. Rolling or diving destroys
// the enemy for a point; anything else costs a life.
func (r *Runner) checkCollisions() {
	for _, e := range r.host.Enemies() {
		if e.MarkedForDeletion() {
			continue
		}
		ex, ey, ew, eh := e.Bounds()
		if ex < r.X+Width && ex+ew > r.X && ey < r.Y+Height && ey+eh > r.Y {
			e.MarkForDeletion()
			r.host.AddCollision(game.NewCollisionEffect(r.host, ex+ew*0.5, ey+eh*0.5))
			if r.current == Rolling || r.current == Diving {
				if err := r.host.AddScore(1); err != nil {
					r.logger.Warn("score rejected", zap.Error(err))
				}
			} else {
				r.SetState(Hit)
				r.host.LoseLife()
			}
		}
	}
}
