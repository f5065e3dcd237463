// Package scene draws the scrolling backdrop.
package scene

import (
	"image"
	"image/color"

	"sidescroller/internal/game"
)

// ImageSource looks up decoded images by asset ID. *assets.Loader satisfies it.
type ImageSource interface {
	Image(id string) image.Image
}

// Layer is one parallax band. It draws its image when one was loaded and a
// flat colour band otherwise.
type Layer struct {
	AssetID       string
	SpeedModifier float64
	Color         color.RGBA
	Top, Height   float64

	x     float64
	width float64
	image image.Image
}

// DefaultLayers are back-to-front, slowest first.
func DefaultLayers() []Layer {
	return []Layer{
		{AssetID: "layer1", SpeedModifier: 0, Color: color.RGBA{170, 210, 240, 255}, Top: 0, Height: 1},
		{AssetID: "layer2", SpeedModifier: 0.2, Color: color.RGBA{140, 180, 200, 255}, Top: 0.35, Height: 0.65},
		{AssetID: "layer3", SpeedModifier: 0.4, Color: color.RGBA{100, 150, 120, 255}, Top: 0.5, Height: 0.5},
		{AssetID: "layer4", SpeedModifier: 0.8, Color: color.RGBA{70, 120, 80, 255}, Top: 0.65, Height: 0.35},
		{AssetID: "layer5", SpeedModifier: 1, Color: color.RGBA{110, 80, 50, 255}, Top: 0.85, Height: 0.15},
	}
}

// Background scrolls a stack of layers at fractions of the world speed.
type Background struct {
	layers []Layer
	height float64
}

// New builds a background sized to w. Top and Height of each layer are
// fractions of the world height. images may be nil.
func New(w game.World, layers []Layer, images ImageSource) *Background {
	b := &Background{
		layers: make([]Layer, len(layers)),
		height: w.Height(),
	}
	copy(b.layers, layers)
	for i := range b.layers {
		l := &b.layers[i]
		l.width = w.Width()
		if images != nil {
			if img := images.Image(l.AssetID); img != nil {
				l.image = img
				l.width = float64(img.Bounds().Dx())
			}
		}
	}
	return b
}

// Update moves every layer left by speed times its modifier, wrapping once
// a full layer width has scrolled past.
func (b *Background) Update(speed float64) {
	for i := range b.layers {
		l := &b.layers[i]
		if l.x < -l.width {
			l.x = 0
		} else {
			l.x -= speed * l.SpeedModifier
		}
	}
}

// Draw paints layers back to front, each twice to cover the wrap seam.
func (b *Background) Draw(c game.Canvas) {
	for _, l := range b.layers {
		if l.image != nil {
			c.DrawImage(l.image, int(l.x), 0)
			c.DrawImage(l.image, int(l.x+l.width), 0)
			continue
		}
		c.SetColor(l.Color)
		c.DrawRectangle(l.x, l.Top*b.height, l.width, l.Height*b.height)
		c.DrawRectangle(l.x+l.width, l.Top*b.height, l.width, l.Height*b.height)
		c.Fill()
	}
}

// Offsets reports the current x of each layer.
func (b *Background) Offsets() []float64 {
	out := make([]float64, len(b.layers))
	for i, l := range b.layers {
		out[i] = l.x
	}
	return out
}
