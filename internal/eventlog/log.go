// Package eventlog is the diagnostic side-channel for runs and asset loading.
// Events land in a bounded ring buffer and are flushed to a JSONL file by a
// background writer. Emit never blocks the frame loop.
package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize    = 1024                   // ring capacity
	MaxEventsPerSec    = 2000                   // across all sources
	MaxEventsPerSource = 200                    // per run or subsystem
	BatchFlushSize     = 64                     // events per write
	BatchFlushInterval = 100 * time.Millisecond // writer tick
	SourceIdleTimeout  = 5 * time.Minute        // unused source limiters are forgotten after this
)

// Emitter is the write side of the log, as seen by the simulation.
type Emitter interface {
	EmitSimple(eventType EventType, frame uint64, source string, payload interface{}) bool
}

// Log is a bounded, rate-limited event sink. When the ring is full the
// oldest pending event is overwritten.
type Log struct {
	mu      sync.Mutex
	ring    [EventBufferSize]Event
	start   int // index of the oldest pending event
	pending int
	seq     uint64
	sources map[string]*sourceLimiter

	globalLimiter *rate.Limiter

	running atomic.Bool
	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup

	file *os.File
	out  *bufio.Writer

	dropped  atomic.Uint64
	accepted atomic.Uint64
}

type sourceLimiter struct {
	*rate.Limiter
	seen time.Time
}

// New creates an idle log. Nothing is accepted until Start.
func New() *Log {
	return &Log{
		sources:       make(map[string]*sourceLimiter),
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		done:          make(chan struct{}),
	}
}

// Start opens the output file and launches the writer. An empty path keeps
// events in memory only.
func (el *Log) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = f
		el.out = bufio.NewWriter(f)
	}

	el.running.Store(true)
	el.wg.Add(1)
	go el.writer()
	return nil
}

// Stop drains whatever is pending and closes the file. Safe to call twice.
func (el *Log) Stop() {
	el.stopped.Do(func() {
		el.running.Store(false)
		close(el.done)
		el.wg.Wait()
		if el.file != nil {
			el.file.Close()
		}
	})
}

// Emit queues an event. It reports false when the log is stopped or the
// event was rate limited.
func (el *Log) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		el.dropped.Add(1)
		return false
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if event.Source != "" && !el.limiterFor(event.Source).Allow() {
		el.dropped.Add(1)
		return false
	}

	el.seq++
	event.Sequence = el.seq
	if el.pending == EventBufferSize {
		el.start = (el.start + 1) % EventBufferSize
		el.pending--
		el.dropped.Add(1)
	}
	el.ring[(el.start+el.pending)%EventBufferSize] = event
	el.pending++
	el.accepted.Add(1)
	return true
}

// EmitSimple builds an event from its parts and emits it.
func (el *Log) EmitSimple(eventType EventType, frame uint64, source string, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, frame, source, payload))
}

// limiterFor must be called with mu held.
func (el *Log) limiterFor(source string) *sourceLimiter {
	now := time.Now()
	l, ok := el.sources[source]
	if !ok {
		l = &sourceLimiter{Limiter: rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/4)}
		el.sources[source] = l
	}
	l.seen = now
	return l
}

func (el *Log) writer() {
	defer el.wg.Done()

	flush := time.NewTicker(BatchFlushInterval)
	defer flush.Stop()
	sweep := time.NewTicker(SourceIdleTimeout)
	defer sweep.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.done:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					el.flushFile()
					return
				}
				el.write(batch)
			}
		case <-flush.C:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					break
				}
				el.write(batch)
			}
			el.flushFile()
		case now := <-sweep.C:
			el.forgetIdleSources(now.Add(-SourceIdleTimeout))
		}
	}
}

func (el *Log) forgetIdleSources(cutoff time.Time) {
	el.mu.Lock()
	defer el.mu.Unlock()
	for name, l := range el.sources {
		if l.seen.Before(cutoff) {
			delete(el.sources, name)
		}
	}
}

// collectBatch moves up to BatchFlushSize pending events, oldest first, into batch.
func (el *Log) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	n := el.pending
	if n > BatchFlushSize {
		n = BatchFlushSize
	}
	for i := 0; i < n; i++ {
		batch = append(batch, el.ring[(el.start+i)%EventBufferSize])
	}
	el.start = (el.start + n) % EventBufferSize
	el.pending -= n
	return batch
}

// write appends one JSON object per line. Only the writer goroutine calls it.
func (el *Log) write(batch []Event) {
	if el.out == nil {
		return
	}
	for _, event := range batch {
		line, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.out.Write(line)
		el.out.WriteByte('\n')
	}
}

func (el *Log) flushFile() {
	if el.out != nil {
		el.out.Flush()
	}
}

// GetDroppedCount returns how many events were rate limited or overwritten.
func (el *Log) GetDroppedCount() uint64 {
	return el.dropped.Load()
}

// GetTotalCount returns how many events were accepted.
func (el *Log) GetTotalCount() uint64 {
	return el.accepted.Load()
}

// Nop discards every event. Used when no diagnostic log is configured.
type Nop struct{}

// EmitSimple implements Emitter.
func (Nop) EmitSimple(EventType, uint64, string, interface{}) bool { return false }
