package assets

import (
	"fmt"
	"image"
	_ "image/gif"  // GIF sprites
	_ "image/jpeg" // JPEG backgrounds
	_ "image/png"  // PNG sprites
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // WebP sprites
)

const (
	MaxConcurrentLoads = 4
	FetchTimeout       = 10 * time.Second
)

// Audio describes a decoded sound asset.
type Audio struct {
	Format   beep.Format
	Duration time.Duration
}

// Handle is an in-flight or finished load. It implements Source.
type Handle struct {
	id      string
	mu      sync.Mutex
	done    bool
	err     error
	waiters []func(error)
}

// NewHandle returns a pending handle for id.
func NewHandle(id string) *Handle {
	return &Handle{id: id}
}

// Ready returns a handle that has already finished with err.
func Ready(id string, err error) *Handle {
	h := NewHandle(id)
	h.Finish(err)
	return h
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Complete() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Await calls fn when the load finishes, or right away if it has.
func (h *Handle) Await(fn func(error)) {
	h.mu.Lock()
	if h.done {
		err := h.err
		h.mu.Unlock()
		fn(err)
		return
	}
	h.waiters = append(h.waiters, fn)
	h.mu.Unlock()
}

// Finish completes the handle and notifies waiters. Later calls are ignored.
func (h *Handle) Finish(err error) {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	h.done = true
	h.err = err
	waiters := h.waiters
	h.waiters = nil
	h.mu.Unlock()

	for _, fn := range waiters {
		fn(err)
	}
}

// Loader decodes assets in the background and keeps the results.
type Loader struct {
	mu     sync.RWMutex
	images map[string]image.Image
	audio  map[string]Audio

	client *http.Client
	sem    chan struct{} // bounds concurrent loads
	logger *zap.Logger
}

// NewLoader creates an empty loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		images: make(map[string]image.Image),
		audio:  make(map[string]Audio),
		client: &http.Client{Timeout: FetchTimeout},
		sem:    make(chan struct{}, MaxConcurrentLoads),
		logger: logger,
	}
}

// Load starts loading e and returns immediately.
func (l *Loader) Load(e Entry) *Handle {
	h := NewHandle(e.ID)
	go func() {
		l.sem <- struct{}{}
		defer func() { <-l.sem }()
		h.Finish(l.load(e))
	}()
	return h
}

// LoadAll starts every entry and returns their handles as Sources.
func (l *Loader) LoadAll(entries []Entry) []Source {
	out := make([]Source, len(entries))
	for i, e := range entries {
		out[i] = l.Load(e)
	}
	return out
}

func (l *Loader) load(e Entry) error {
	start := time.Now()
	var err error
	switch e.Kind {
	case KindImage:
		err = l.loadImage(e)
	case KindAudio:
		err = l.loadAudio(e)
	default:
		err = fmt.Errorf("asset %s: unsupported kind %d", e.ID, e.Kind)
	}
	if err != nil {
		return err
	}
	l.logger.Debug("asset decoded",
		zap.String("asset", e.ID),
		zap.String("kind", e.Kind.String()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (l *Loader) loadImage(e Entry) error {
	var img image.Image
	if isRemote(e.Location) {
		body, err := l.fetch(e.Location)
		if err != nil {
			return fmt.Errorf("asset %s: %w", e.ID, err)
		}
		defer body.Close()
		if img, _, err = image.Decode(body); err != nil {
			return fmt.Errorf("asset %s: decode: %w", e.ID, err)
		}
	} else {
		var err error
		if img, err = gg.LoadImage(e.Location); err != nil {
			return fmt.Errorf("asset %s: %w", e.ID, err)
		}
	}

	l.mu.Lock()
	l.images[e.ID] = img
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadAudio(e Entry) error {
	var rc io.ReadCloser
	var err error
	if isRemote(e.Location) {
		rc, err = l.fetch(e.Location)
	} else {
		rc, err = os.Open(e.Location)
	}
	if err != nil {
		return fmt.Errorf("asset %s: %w", e.ID, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(e.Location)) {
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	default:
		streamer, format, err = vorbis.Decode(rc)
	}
	if err != nil {
		rc.Close()
		return fmt.Errorf("asset %s: decode: %w", e.ID, err)
	}
	defer streamer.Close()

	l.mu.Lock()
	l.audio[e.ID] = Audio{
		Format:   format,
		Duration: format.SampleRate.D(streamer.Len()),
	}
	l.mu.Unlock()
	return nil
}

func (l *Loader) fetch(url string) (io.ReadCloser, error) {
	resp, err := l.client.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Image returns a decoded image, or nil.
func (l *Loader) Image(id string) image.Image {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.images[id]
}

// Audio returns a decoded sound's metadata.
func (l *Loader) Audio(id string) (Audio, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.audio[id]
	return a, ok
}

// Counts returns how many images and sounds are held.
func (l *Loader) Counts() (images, sounds int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.images), len(l.audio)
}
