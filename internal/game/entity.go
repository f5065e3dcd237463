package game

import (
	"image"
	"image/color"
)

// Canvas is the drawing surface handed to the draw phase each frame.
// *gg.Context satisfies it.
type Canvas interface {
	SetColor(c color.Color)
	DrawRectangle(x, y, w, h float64)
	DrawCircle(x, y, r float64)
	Fill()
	DrawStringAnchored(s string, x, y, ax, ay float64)
	DrawImage(im image.Image, x, y int)
}

// Entity is anything a Pool can own.
type Entity interface {
	Update(deltaMs float64)
	Draw(c Canvas)
	MarkedForDeletion() bool
}

// World is the read-only view of the aggregate that entities are built from
// and consult while updating.
type World interface {
	Width() float64
	Height() float64
	GroundMargin() float64
	Speed() float64
	Rand() float64
}
