package assets

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"sidescroller/internal/eventlog"
)

// Source is one asset whose completion the barrier waits for.
type Source interface {
	ID() string
	// Complete reports whether the asset already finished (loaded or failed).
	Complete() bool
	// Err is the load error of a complete asset.
	Err() error
	// Await arranges for fn to be called when the asset finishes. If it has
	// already finished, fn is called immediately.
	Await(fn func(err error))
}

// BarrierOptions holds the optional collaborators of a Barrier.
type BarrierOptions struct {
	Logger *zap.Logger
	Events eventlog.Emitter
	// OnAsset is called once per asset as it reaches a terminal status.
	OnAsset func(id string, status Status)
}

// Barrier fires its completion callback exactly once, when every source has
// loaded or failed.
type Barrier struct {
	manifest   *Manifest
	sources    []Source
	onComplete func(Report)
	opts       BarrierOptions

	remaining  atomic.Int64
	registered atomic.Bool
	fired      atomic.Bool

	report Report
	done   chan struct{}
}

// NewBarrier creates a barrier over sources. Source IDs must be unique.
func NewBarrier(sources []Source, onComplete func(Report), opts BarrierOptions) (*Barrier, error) {
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID()
	}
	m, err := NewManifest(ids)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Events == nil {
		opts.Events = eventlog.Nop{}
	}

	b := &Barrier{
		manifest:   m,
		sources:    sources,
		onComplete: onComplete,
		opts:       opts,
		done:       make(chan struct{}),
	}
	b.remaining.Store(int64(len(sources)))
	return b, nil
}

// Register attaches an observer to every source. Sources that are already
// complete are counted on the spot. Calling Register again has no effect.
func (b *Barrier) Register() {
	if !b.registered.CompareAndSwap(false, true) {
		return
	}
	if len(b.sources) == 0 {
		b.fire()
		return
	}

	for _, src := range b.sources {
		if src.Complete() {
			b.resolve(src.ID(), src.Err())
			continue
		}
		id := src.ID()
		src.Await(func(err error) { b.resolve(id, err) })
	}
}

func (b *Barrier) resolve(id string, err error) {
	first, rerr := b.manifest.Resolve(id, err)
	if rerr != nil || !first {
		return
	}

	if err != nil {
		b.opts.Logger.Warn("asset failed", zap.String("asset", id), zap.Error(err))
		b.opts.Events.EmitSimple(eventlog.EventTypeAssetFailed, 0, "assets", eventlog.AssetPayload{
			AssetID: id,
			Error:   err.Error(),
		})
		if b.opts.OnAsset != nil {
			b.opts.OnAsset(id, StatusFailed)
		}
	} else {
		b.opts.Logger.Debug("asset loaded", zap.String("asset", id))
		b.opts.Events.EmitSimple(eventlog.EventTypeAssetLoaded, 0, "assets", eventlog.AssetPayload{AssetID: id})
		if b.opts.OnAsset != nil {
			b.opts.OnAsset(id, StatusLoaded)
		}
	}

	if b.remaining.Add(-1) == 0 {
		b.fire()
	}
}

func (b *Barrier) fire() {
	if !b.fired.CompareAndSwap(false, true) {
		return
	}
	b.report = b.manifest.Report()
	b.opts.Logger.Info("assets ready",
		zap.Int("loaded", len(b.report.Loaded)),
		zap.Int("failed", len(b.report.Failed)),
	)
	if b.onComplete != nil {
		b.onComplete(b.report)
	}
	close(b.done)
}

// Done is closed after the completion callback has returned.
func (b *Barrier) Done() <-chan struct{} { return b.done }

// Fired reports whether the completion callback has run.
func (b *Barrier) Fired() bool { return b.fired.Load() }

// Manifest exposes the per-asset status.
func (b *Barrier) Manifest() *Manifest { return b.manifest }

// Wait registers the barrier if needed and blocks until it fires or ctx ends.
func (b *Barrier) Wait(ctx context.Context) (Report, error) {
	b.Register()
	select {
	case <-b.done:
		return b.report, nil
	case <-ctx.Done():
		return b.manifest.Report(), ctx.Err()
	}
}
