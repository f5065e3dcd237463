package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"sidescroller/internal/game"
)

// ErrNoFrame is returned before the first frame has been drawn.
var ErrNoFrame = errors.New("no frame rendered yet")

// Fonts holds the faces used by the overlay.
type Fonts struct {
	Small  font.Face
	Medium font.Face
	Large  font.Face
}

// LoadFonts parses a TrueType/OpenType file once. An empty path searches the
// usual system locations.
func LoadFonts(path string) (*Fonts, error) {
	if path == "" {
		path = findFont()
	}
	if path == "" {
		return nil, errors.New("no font found")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}

	face := func(size float64) (font.Face, error) {
		return opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	var f Fonts
	if f.Small, err = face(21); err != nil {
		return nil, err
	}
	if f.Medium, err = face(50); err != nil {
		return nil, err
	}
	if f.Large, err = face(60); err != nil {
		return nil, err
	}
	return &f, nil
}

func findFont() string {
	paths := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if matches, _ := filepath.Glob("*.ttf"); len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// Renderer is a double-buffered gg presenter. The frame loop draws into one
// context while readers encode the other.
type Renderer struct {
	mu       sync.RWMutex
	contexts [2]*gg.Context
	active   int
	latest   int // -1 until the first EndFrame

	background color.Color
	frames     atomic.Uint64
}

// NewRenderer allocates two width x height canvases.
func NewRenderer(width, height int, fonts *Fonts) *Renderer {
	r := &Renderer{
		contexts: [2]*gg.Context{
			gg.NewContext(width, height),
			gg.NewContext(width, height),
		},
		latest:     -1,
		background: color.RGBA{250, 250, 255, 255},
	}
	if fonts != nil && fonts.Small != nil {
		for _, dc := range r.contexts {
			dc.SetFontFace(fonts.Small)
		}
	}
	return r
}

// BeginFrame implements game.Presenter.
func (r *Renderer) BeginFrame() game.Canvas {
	r.mu.Lock()
	if r.latest >= 0 {
		r.active = 1 - r.latest
	}
	dc := r.contexts[r.active]
	r.mu.Unlock()

	dc.SetColor(r.background)
	dc.Clear()
	return dc
}

// EndFrame implements game.Presenter.
func (r *Renderer) EndFrame(game.HUD) {
	r.mu.Lock()
	r.latest = r.active
	r.mu.Unlock()
	r.frames.Add(1)
}

// Frames returns the number of completed frames.
func (r *Renderer) Frames() uint64 { return r.frames.Load() }

// WritePNG encodes the latest completed frame.
func (r *Renderer) WritePNG(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest < 0 {
		return ErrNoFrame
	}
	return r.contexts[r.latest].EncodePNG(w)
}
