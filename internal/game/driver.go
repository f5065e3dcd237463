package game

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler delivers frame callbacks. A callback is requested only from
// inside the previous one, so frames never overlap.
type Scheduler interface {
	RequestFrame(cb func(timestampMs float64))
	Stop()
}

// Presenter supplies the canvas for a frame and receives it back when the
// frame is drawn.
type Presenter interface {
	BeginFrame() Canvas
	EndFrame(hud HUD)
}

// FrameObserver is told about every completed frame (metrics).
type FrameObserver interface {
	ObserveFrame(stats FrameStats, took time.Duration)
}

// Driver runs one SimulationState frame by frame.
type Driver struct {
	state     *SimulationState
	scheduler Scheduler
	presenter Presenter
	observer  FrameObserver
	hud       *HUDPublisher
	logger    *zap.Logger

	onTerminal func(*SimulationState)

	lastTimestamp float64
	started       bool

	stopped  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

// DriverOptions holds the optional pieces of a Driver.
type DriverOptions struct {
	Presenter  Presenter
	Observer   FrameObserver
	HUD        *HUDPublisher
	Logger     *zap.Logger
	OnTerminal func(*SimulationState)
}

// NewDriver wires state to scheduler.
func NewDriver(state *SimulationState, scheduler Scheduler, opts DriverOptions) *Driver {
	if opts.HUD == nil {
		opts.HUD = NewHUDPublisher()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Driver{
		state:      state,
		scheduler:  scheduler,
		presenter:  opts.Presenter,
		observer:   opts.Observer,
		hud:        opts.HUD,
		logger:     opts.Logger,
		onTerminal: opts.OnTerminal,
		done:       make(chan struct{}),
	}
}

// Start requests the first frame.
func (d *Driver) Start() {
	d.logger.Info("run loop started", zap.String("run", d.state.RunID()))
	d.scheduler.RequestFrame(d.Tick)
}

// Stop abandons the run. A frame already in progress completes but no
// further frame is requested.
func (d *Driver) Stop() {
	if d.stopped.Swap(true) {
		return
	}
	d.scheduler.Stop()
	d.finish()
	d.logger.Info("run loop stopped", zap.String("run", d.state.RunID()))
}

// Done is closed once the run is terminal or stopped.
func (d *Driver) Done() <-chan struct{} { return d.done }

// State returns the driven state. Only safe to inspect once Done is closed
// or from inside a frame.
func (d *Driver) State() *SimulationState { return d.state }

// Tick runs one frame: update, then draw, then schedule the next frame
// unless the run is over. The first frame always sees a delta of zero.
func (d *Driver) Tick(timestampMs float64) {
	if d.stopped.Load() {
		return
	}

	var deltaMs float64
	if d.started {
		deltaMs = timestampMs - d.lastTimestamp
	}
	d.started = true
	d.lastTimestamp = timestampMs

	start := time.Now()
	stats := d.state.Update(deltaMs)

	var canvas Canvas = nopCanvas{}
	if d.presenter != nil {
		canvas = d.presenter.BeginFrame()
	}
	d.state.Draw(canvas)
	hud := d.state.HUD()
	if d.presenter != nil {
		d.presenter.EndFrame(hud)
	}
	if !d.stopped.Load() {
		d.hud.Publish(hud)
	}

	if d.observer != nil {
		d.observer.ObserveFrame(stats, time.Since(start))
	}

	if d.state.Terminal() {
		d.stopped.Store(true)
		d.scheduler.Stop()
		d.logger.Info("run finished",
			zap.String("run", d.state.RunID()),
			zap.String("outcome", string(d.state.Outcome())),
			zap.Int("score", d.state.Score()),
		)
		if d.onTerminal != nil {
			d.onTerminal(d.state)
		}
		d.finish()
		return
	}

	d.scheduler.RequestFrame(d.Tick)
}

func (d *Driver) finish() {
	d.doneOnce.Do(func() { close(d.done) })
}

type nopCanvas struct{}

func (nopCanvas) SetColor(color.Color)                                          {}
func (nopCanvas) DrawRectangle(float64, float64, float64, float64)              {}
func (nopCanvas) DrawCircle(float64, float64, float64)                          {}
func (nopCanvas) Fill()                                                         {}
func (nopCanvas) DrawStringAnchored(string, float64, float64, float64, float64) {}
func (nopCanvas) DrawImage(image.Image, int, int)                               {}

// TickerScheduler fires the pending callback on a fixed-rate ticker.
// At most one callback is pending at a time; ticks with nothing pending
// are skipped.
type TickerScheduler struct {
	interval time.Duration
	pending  chan func(float64)
	stopChan chan struct{}
	stopOnce sync.Once
	origin   time.Time
}

// NewTickerScheduler starts a ticker at fps frames per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	s := &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		pending:  make(chan func(float64), 1),
		stopChan: make(chan struct{}),
		origin:   time.Now(),
	}
	go s.loop()
	return s
}

func (s *TickerScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			select {
			case cb := <-s.pending:
				cb(float64(now.Sub(s.origin).Microseconds()) / 1000)
			default:
			}
		}
	}
}

// RequestFrame queues cb for the next tick.
func (s *TickerScheduler) RequestFrame(cb func(float64)) {
	select {
	case s.pending <- cb:
	default:
	}
}

// Stop ends the ticker goroutine. Safe to call more than once.
func (s *TickerScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// ManualScheduler holds the pending callback until Fire is called.
type ManualScheduler struct {
	mu      sync.Mutex
	pending func(float64)
	stopped bool
}

// RequestFrame stores cb, replacing nothing: at most one frame is pending.
func (s *ManualScheduler) RequestFrame(cb func(float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = cb
}

// Stop drops any pending callback.
func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.pending = nil
}

// Pending reports whether a frame has been requested.
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Fire runs the pending callback with timestampMs. It returns false when no
// frame was requested.
func (s *ManualScheduler) Fire(timestampMs float64) bool {
	s.mu.Lock()
	cb := s.pending
	s.pending = nil
	s.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(timestampMs)
	return true
}
