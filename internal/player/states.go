package player

import (
	"sidescroller/internal/game"
	"sidescroller/internal/input"
)

// StateID names a runner state.
type StateID uint8

const (
	Sitting StateID = iota
	Running
	Jumping
	Falling
	Rolling
	Diving
	Hit
)

func (s StateID) String() string {
	switch s {
	case Sitting:
		return "sitting"
	case Running:
		return "running"
	case Jumping:
		return "jumping"
	case Falling:
		return "falling"
	case Rolling:
		return "rolling"
	case Diving:
		return "diving"
	case Hit:
		return "hit"
	default:
		return "unknown"
	}
}

type state interface {
	enter()
	handleInput(in game.InputState)
	// pace is the world speed as a multiple of MaxSpeed.
	pace() float64
}

type sitting struct{ r *Runner }

func (s sitting) enter() {
	s.r.FrameX, s.r.MaxFrame, s.r.FrameY = 0, 4, 5
}

func (s sitting) handleInput(in game.InputState) {
	switch {
	case in.Pressed(input.KeyLeft) || in.Pressed(input.KeyRight):
		s.r.SetState(Running)
	case in.Pressed(input.KeyRoll):
		s.r.SetState(Rolling)
	}
}

func (sitting) pace() float64 { return 0 }

type running struct{ r *Runner }

func (s running) enter() {
	s.r.FrameX, s.r.MaxFrame, s.r.FrameY = 0, 8, 3
}

func (s running) handleInput(in game.InputState) {
	h := s.r.host
	h.AddParticle(game.NewDust(h, s.r.X+Width*0.6, s.r.Y+Height))
	switch {
	case in.Pressed(input.KeyDown):
		s.r.SetState(Sitting)
	case in.Pressed(input.KeyUp):
		s.r.SetState(Jumping)
	case in.Pressed(input.KeyRoll):
		s.r.SetState(Rolling)
	}
}

func (running) pace() float64 { return 1 }

type jumping struct{ r *Runner }

func (s jumping) enter() {
	if s.r.OnGround() {
		s.r.VY -= JumpVelocity
	}
	s.r.FrameX, s.r.MaxFrame, s.r.FrameY = 0, 6, 1
}

func (s jumping) handleInput(in game.InputState) {
	switch {
	case s.r.VY > Weight:
		s.r.SetState(Falling)
	case in.Pressed(input.KeyRoll):
		s.r.SetState(Rolling)
	case in.Pressed(input.KeyDown):
		s.r.SetState(Diving)
	}
}

func (jumping) pace() float64 { return 1 }

type falling struct{ r *Runner }

func (s falling) enter() {
	s.r.FrameX, s.r.MaxFrame, s.r.FrameY = 0, 6, 2
}

func (s falling) handleInput(in game.InputState) {
	switch {
	case s.r.OnGround():
		s.r.SetState(Running)
	case in.Pressed(input.KeyDown):
		s.r.SetState(Diving)
	}
}

func (falling) pace() float64 { return 1 }

type rolling struct{ r *Runner }

func (s rolling) enter() {
	s.r.FrameX, s.r.MaxFrame, s.r.FrameY = 0, 6, 6
}

func (s rolling) handleInput(in game.InputState) {
	h := s.r.host
	h.AddParticle(game.NewFire(h, s.r.X+Width*0.5, s.r.Y+Height*0.5))
	roll := in.Pressed(input.KeyRoll)
	switch {
	case !roll && s.r.OnGround():
		s.r.SetState(Running)
	case !roll && !s.r.OnGround():
		s.r.SetState(Falling)
	case roll && in.Pressed(input.KeyUp) && s.r.OnGround():
		s.r.VY -= JumpVelocity
	case in.Pressed(input.KeyDown) && !s.r.OnGround():
		s.r.SetState(Diving)
	}
}

func (rolling) pace() float64 { return 2 }

type diving struct{ r *Runner }

func (s diving) enter() {
	s.r.FrameX, s.r.MaxFrame, s.r.FrameY = 0, 6, 6
	s.r.VY = DiveVelocity
}

func (s diving) handleInput(in game.InputState) {
	h := s.r.host
	h.AddParticle(game.NewFire(h, s.r.X+Width*0.5, s.r.Y+Height*0.5))
	if !s.r.OnGround() {
		return
	}
	for i := 0; i < splashCount; i++ {
		h.AddParticle(game.NewSplash(h, s.r.X+Width*0.5, s.r.Y+Height))
	}
	if in.Pressed(input.KeyRoll) {
		s.r.SetState(Rolling)
	} else {
		s.r.SetState(Running)
	}
}

func (diving) pace() float64 { return 0 }

type hit struct{ r *Runner }

func (s hit) enter() {
	s.r.FrameX, s.r.MaxFrame, s.r.FrameY = 0, 10, 4
}

func (s hit) handleInput(game.InputState) {
	if s.r.FrameX < 10 {
		return
	}
	if s.r.OnGround() {
		s.r.SetState(Running)
	} else {
		s.r.SetState(Falling)
	}
}

func (hit) pace() float64 { return 0 }
