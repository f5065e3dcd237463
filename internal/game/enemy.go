package game

import (
	"image/color"
	"math"
)

// EnemyKind distinguishes the enemy variants.
type EnemyKind uint8

const (
	EnemyFlying EnemyKind = iota
	EnemyGround
	EnemyClimbing
)

// String returns the kind name used in diagnostics.
func (k EnemyKind) String() string {
	switch k {
	case EnemyFlying:
		return "flying"
	case EnemyGround:
		return "ground"
	case EnemyClimbing:
		return "climbing"
	default:
		return "unknown"
	}
}

const (
	enemyFPS           = 20
	enemyFrameInterval = 1000.0 / enemyFPS
)

// Enemy is a spawned hostile. Movement is expressed in pixels per frame and
// always includes the world scroll speed.
type Enemy struct {
	Kind          EnemyKind
	X, Y          float64
	Width, Height float64
	SpeedX        float64
	SpeedY        float64
	Frame         int
	MaxFrame      int

	// flying wobble
	angle float64
	va    float64

	frameTimer float64
	marked     bool
	world      World
}

// NewFlyingEnemy spawns off the right edge in the upper half of the screen.
func NewFlyingEnemy(w World) *Enemy {
	e := &Enemy{
		Kind:     EnemyFlying,
		Width:    60,
		Height:   44,
		MaxFrame: 5,
		world:    w,
	}
	e.X = w.Width() + w.Rand()*w.Width()*0.5
	e.Y = w.Rand() * w.Height() * 0.5
	e.SpeedX = w.Rand() + 1
	e.va = w.Rand()*0.1 + 0.1
	return e
}

// NewGroundEnemy spawns standing on the ground at the right edge.
func NewGroundEnemy(w World) *Enemy {
	e := &Enemy{
		Kind:     EnemyGround,
		Width:    60,
		Height:   87,
		MaxFrame: 1,
		world:    w,
	}
	e.X = w.Width()
	e.Y = w.Height() - e.Height - w.GroundMargin()
	return e
}

// NewClimbingEnemy spawns at the right edge and bounces vertically.
func NewClimbingEnemy(w World) *Enemy {
	e := &Enemy{
		Kind:     EnemyClimbing,
		Width:    120,
		Height:   144,
		MaxFrame: 5,
		world:    w,
	}
	e.X = w.Width()
	e.Y = w.Rand() * w.Height() * 0.5
	if w.Rand() > 0.5 {
		e.SpeedY = 1
	} else {
		e.SpeedY = -1
	}
	return e
}

// Update moves the enemy and advances its sprite frame.
func (e *Enemy) Update(deltaMs float64) {
	e.X -= e.SpeedX + e.world.Speed()

	switch e.Kind {
	case EnemyFlying:
		e.angle += e.va
		e.Y += math.Sin(e.angle)
	case EnemyClimbing:
		e.Y += e.SpeedY
		if e.Y > e.world.Height()-e.Height-e.world.GroundMargin() {
			e.SpeedY *= -1
		}
		if e.Y < -e.Height {
			e.marked = true
		}
	}

	if e.frameTimer > enemyFrameInterval {
		e.frameTimer = 0
		if e.Frame < e.MaxFrame {
			e.Frame++
		} else {
			e.Frame = 0
		}
	} else {
		e.frameTimer += deltaMs
	}

	if e.X+e.Width < 0 {
		e.marked = true
	}
}

var enemyColors = map[EnemyKind]color.RGBA{
	EnemyFlying:   {120, 70, 200, 255},
	EnemyGround:   {60, 150, 60, 255},
	EnemyClimbing: {40, 40, 40, 255},
}

// Draw renders the enemy as a filled box; climbing enemies hang from a thread.
func (e *Enemy) Draw(c Canvas) {
	if e.Kind == EnemyClimbing {
		c.SetColor(color.RGBA{0, 0, 0, 255})
		c.DrawRectangle(e.X+e.Width/2, 0, 1, e.Y+50)
		c.Fill()
	}
	c.SetColor(enemyColors[e.Kind])
	c.DrawRectangle(e.X, e.Y, e.Width, e.Height)
	c.Fill()
}

// MarkedForDeletion implements Entity.
func (e *Enemy) MarkedForDeletion() bool { return e.marked }

// MarkForDeletion flags the enemy for removal at the end of the frame.
func (e *Enemy) MarkForDeletion() { e.marked = true }

// Bounds returns the enemy's hit box.
func (e *Enemy) Bounds() (x, y, w, h float64) {
	return e.X, e.Y, e.Width, e.Height
}
