package game

import (
	"image/color"
	"math"
)

// ParticleKind selects how a particle moves and looks.
type ParticleKind uint8

const (
	ParticleDust ParticleKind = iota
	ParticleSplash
	ParticleFire
)

// Particle is a short-lived visual left behind by the player.
type Particle struct {
	Kind   ParticleKind
	X, Y   float64
	Size   float64
	SpeedX float64
	SpeedY float64
	Color  color.RGBA

	gravity float64
	angle   float64
	va      float64
	marked  bool
	world   World
}

// NewDust creates a puff kicked up by running.
func NewDust(w World, x, y float64) *Particle {
	return &Particle{
		Kind:   ParticleDust,
		X:      x,
		Y:      y,
		Size:   w.Rand()*10 + 10,
		SpeedX: w.Rand(),
		SpeedY: w.Rand(),
		Color:  color.RGBA{0, 0, 0, 50},
		world:  w,
	}
}

// NewSplash creates a droplet thrown up by a landing dive.
func NewSplash(w World, x, y float64) *Particle {
	size := w.Rand()*100 + 100
	return &Particle{
		Kind:    ParticleSplash,
		X:       x - size*0.4,
		Y:       y - size*0.5,
		Size:    size,
		SpeedX:  w.Rand()*6 - 4,
		SpeedY:  w.Rand()*2 + 2,
		gravity: 0,
		Color:   color.RGBA{255, 140, 0, 200},
		world:   w,
	}
}

// NewFire creates a flame trailing a rolling player.
func NewFire(w World, x, y float64) *Particle {
	return &Particle{
		Kind:   ParticleFire,
		X:      x,
		Y:      y,
		Size:   w.Rand()*100 + 100,
		SpeedX: 1,
		SpeedY: 1,
		va:     w.Rand()*0.2 - 0.1,
		Color:  color.RGBA{255, 90, 0, 160},
		world:  w,
	}
}

// Update drifts and shrinks the particle; it is marked once it is too small to see.
func (p *Particle) Update(deltaMs float64) {
	p.X -= p.SpeedX + p.world.Speed()
	p.Y -= p.SpeedY
	p.Size *= 0.95

	switch p.Kind {
	case ParticleSplash:
		p.gravity += 0.1
		p.Y += p.gravity
	case ParticleFire:
		p.angle += p.va
		p.X += math.Sin(p.angle * 5)
	}

	if p.Size < 0.5 {
		p.marked = true
	}
}

// Draw renders the particle as a translucent circle.
func (p *Particle) Draw(c Canvas) {
	c.SetColor(p.Color)
	c.DrawCircle(p.X, p.Y, p.Size*0.5)
	c.Fill()
}

// MarkedForDeletion implements Entity.
func (p *Particle) MarkedForDeletion() bool { return p.marked }

// MarkForDeletion flags the particle for removal.
func (p *Particle) MarkForDeletion() { p.marked = true }

// CollisionEffect is the burst animation played where the player hit an enemy.
type CollisionEffect struct {
	X, Y          float64
	Width, Height float64
	Frame         int
	MaxFrame      int

	frameInterval float64
	frameTimer    float64
	marked        bool
	world         World
}

// NewCollisionEffect centres a burst on (x, y) with a random size and speed.
func NewCollisionEffect(w World, x, y float64) *CollisionEffect {
	modifier := w.Rand() + 0.5
	width := 100 * modifier
	height := 90 * modifier
	fps := w.Rand()*10 + 5
	return &CollisionEffect{
		X:             x - width*0.5,
		Y:             y - height*0.5,
		Width:         width,
		Height:        height,
		MaxFrame:      4,
		frameInterval: 1000 / fps,
		world:         w,
	}
}

// Update scrolls with the world and plays through the frames once.
func (ce *CollisionEffect) Update(deltaMs float64) {
	ce.X -= ce.world.Speed()
	if ce.frameTimer > ce.frameInterval {
		ce.Frame++
		ce.frameTimer = 0
	} else {
		ce.frameTimer += deltaMs
	}
	if ce.Frame > ce.MaxFrame {
		ce.marked = true
	}
}

// Draw renders a fading burst.
func (ce *CollisionEffect) Draw(c Canvas) {
	alpha := uint8(220 - ce.Frame*40)
	c.SetColor(color.RGBA{255, 220, 120, alpha})
	c.DrawCircle(ce.X+ce.Width/2, ce.Y+ce.Height/2, ce.Width/2*(1+float64(ce.Frame)*0.1))
	c.Fill()
}

// MarkedForDeletion implements Entity.
func (ce *CollisionEffect) MarkedForDeletion() bool { return ce.marked }
