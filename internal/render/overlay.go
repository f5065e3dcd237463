// Package render draws frames headlessly with gg and exposes the latest one.
package render

import (
	"fmt"
	"image/color"

	"golang.org/x/image/font"

	"sidescroller/internal/game"
)

const (
	WinTitle     = "Boo-yah"
	WinSubtitle  = "What are you afraid of?"
	LoseTitle    = "GAME OVER"
	LoseSubtitle = "Better luck next time"
)

// faceSetter is implemented by canvases that can switch fonts (*gg.Context).
type faceSetter interface {
	SetFontFace(font.Face)
}

// Overlay draws the HUD, the level-up banner and the end-of-run message.
// It only reads the HUD it is given.
type Overlay struct {
	width, height float64
	fonts         *Fonts
}

// NewOverlay creates an overlay for a width x height frame. fonts may be nil,
// in which case the canvas's current face is used throughout.
func NewOverlay(width, height float64, fonts *Fonts) *Overlay {
	return &Overlay{width: width, height: height, fonts: fonts}
}

func (o *Overlay) face(c game.Canvas, f font.Face) {
	if f == nil {
		return
	}
	if fs, ok := c.(faceSetter); ok {
		fs.SetFontFace(f)
	}
}

// Draw implements game.Overlay.
func (o *Overlay) Draw(c game.Canvas, hud game.HUD) {
	var small, medium, large font.Face
	if o.fonts != nil {
		small, medium, large = o.fonts.Small, o.fonts.Medium, o.fonts.Large
	}

	o.face(c, small)
	c.SetColor(color.Black)
	c.DrawStringAnchored(fmt.Sprintf("Score: %d", hud.Score), 20, 20, 0, 1)
	c.DrawStringAnchored(fmt.Sprintf("Time: %.1f", hud.ElapsedMs*0.001), 20, 44, 0, 1)
	c.DrawStringAnchored(fmt.Sprintf("Lives: %d", hud.Lives), 20, 68, 0, 1)
	c.DrawStringAnchored(fmt.Sprintf("Level: %d", hud.Level), 20, 92, 0, 1)

	if hud.Terminal {
		title, subtitle := LoseTitle, LoseSubtitle
		if hud.Outcome == game.OutcomeWon {
			title, subtitle = WinTitle, WinSubtitle
		}
		o.face(c, large)
		c.DrawStringAnchored(title, o.width*0.5, o.height*0.5-20, 0.5, 0.5)
		o.face(c, small)
		c.DrawStringAnchored(subtitle, o.width*0.5, o.height*0.5+20, 0.5, 0.5)
	}

	if hud.Notification != nil {
		o.face(c, medium)
		c.SetColor(color.RGBA{255, 255, 255, 230})
		c.DrawStringAnchored(hud.Notification.Text, o.width*0.5, o.height*0.4, 0.5, 0.5)
	}
}
