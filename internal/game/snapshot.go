package game

import (
	"sync/atomic"
	"time"
)

// HUD is an immutable copy of the values presented to the player each frame.
type HUD struct {
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	RunID        string        `json:"runId"`
	Difficulty   string        `json:"difficulty"`
	Frame        uint64        `json:"frame"`
	Score        int           `json:"score"`
	Level        int           `json:"level"`
	Lives        int           `json:"lives"`
	ElapsedMs    float64       `json:"elapsedMs"`
	TimeLimitMs  float64       `json:"timeLimitMs"`
	Speed        float64       `json:"speed"`
	WinThreshold int           `json:"winThreshold"`
	Terminal     bool          `json:"terminal"`
	Outcome      Outcome       `json:"outcome,omitempty"`
	Notification *Notification `json:"notification,omitempty"`

	Enemies    int `json:"enemies"`
	Particles  int `json:"particles"`
	Collisions int `json:"collisions"`
}

// HUDPublisher hands the latest HUD from the frame loop to any number of
// readers without locking. The producer never blocks on readers.
type HUDPublisher struct {
	latest   atomic.Pointer[HUD]
	sequence atomic.Uint64
}

// NewHUDPublisher creates an empty publisher.
func NewHUDPublisher() *HUDPublisher {
	return &HUDPublisher{}
}

// Publish stamps h and makes it the current snapshot (frame loop only).
func (p *HUDPublisher) Publish(h HUD) {
	h.Sequence = p.sequence.Add(1)
	h.Timestamp = time.Now()
	p.latest.Store(&h)
}

// Latest returns the most recent snapshot, or false before the first frame.
func (p *HUDPublisher) Latest() (HUD, bool) {
	h := p.latest.Load()
	if h == nil {
		return HUD{}, false
	}
	return *h, true
}

// Sequence returns the number of snapshots published so far.
func (p *HUDPublisher) Sequence() uint64 { return p.sequence.Load() }
