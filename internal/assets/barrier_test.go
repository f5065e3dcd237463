package assets

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// flakySource signals completion twice to check double counting.
type flakySource struct {
	*Handle
}

func (f flakySource) Await(fn func(error)) {
	f.Handle.Await(func(err error) {
		fn(err)
		fn(err)
	})
}

func waitFired(t *testing.T, b *Barrier) {
	t.Helper()
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Barrier never fired")
	}
}

// TestBarrierFiresExactlyOnce covers synchronous, asynchronous and mixed completion
func TestBarrierFiresExactlyOnce(t *testing.T) {
	tests := []struct {
		name  string
		total int
		ready int // already complete before Register
	}{
		{"all synchronous", 5, 5},
		{"all asynchronous", 5, 0},
		{"mixed", 8, 3},
		{"single async", 1, 0},
		{"single sync", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fired atomic.Int32
			handles := make([]*Handle, tt.total)
			sources := make([]Source, tt.total)
			for i := range handles {
				if i < tt.ready {
					handles[i] = Ready(fmt.Sprintf("a%d", i), nil)
				} else {
					handles[i] = NewHandle(fmt.Sprintf("a%d", i))
				}
				sources[i] = handles[i]
			}

			b, err := NewBarrier(sources, func(Report) { fired.Add(1) }, BarrierOptions{})
			if err != nil {
				t.Fatal(err)
			}
			b.Register()

			var wg sync.WaitGroup
			for _, h := range handles[tt.ready:] {
				wg.Add(1)
				go func(h *Handle) {
					defer wg.Done()
					time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
					h.Finish(nil)
				}(h)
			}
			wg.Wait()
			waitFired(t, b)

			if n := fired.Load(); n != 1 {
				t.Errorf("Expected callback once, got %d", n)
			}
		})
	}
}

// TestBarrierEmptyFiresOnRegister verifies zero sources complete immediately
func TestBarrierEmptyFiresOnRegister(t *testing.T) {
	var fired int
	b, err := NewBarrier(nil, func(r Report) {
		fired++
		if r.Total() != 0 {
			t.Errorf("Expected empty report, got %+v", r)
		}
	}, BarrierOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if b.Fired() {
		t.Fatal("Barrier fired before Register")
	}
	b.Register()
	b.Register()
	if fired != 1 {
		t.Errorf("Expected callback once, got %d", fired)
	}
}

// TestBarrierCountsFailures verifies failed assets complete the barrier and are reported
func TestBarrierCountsFailures(t *testing.T) {
	boom := errors.New("corrupt file")
	ok := NewHandle("sprite")
	bad := NewHandle("music")

	var statuses sync.Map
	var report Report
	b, err := NewBarrier([]Source{ok, bad}, func(r Report) { report = r }, BarrierOptions{
		OnAsset: func(id string, st Status) { statuses.Store(id, st) },
	})
	if err != nil {
		t.Fatal(err)
	}
	b.Register()

	bad.Finish(boom)
	if b.Fired() {
		t.Fatal("Fired with an asset still pending")
	}
	ok.Finish(nil)
	waitFired(t, b)

	if len(report.Loaded) != 1 || report.Loaded[0] != "sprite" {
		t.Errorf("Expected sprite loaded, got %v", report.Loaded)
	}
	if !errors.Is(report.Failed["music"], boom) {
		t.Errorf("Expected music failure, got %v", report.Failed)
	}
	if st, _ := statuses.Load("music"); st != StatusFailed {
		t.Errorf("Expected failed status callback, got %v", st)
	}
	if st, _ := b.Manifest().Status("sprite"); st != StatusLoaded {
		t.Errorf("Expected sprite loaded in manifest, got %v", st)
	}
}

// TestBarrierIgnoresDoubleSignal verifies a source signalling twice is counted once
func TestBarrierIgnoresDoubleSignal(t *testing.T) {
	var fired atomic.Int32
	noisy := flakySource{NewHandle("noisy")}
	quiet := NewHandle("quiet")

	b, err := NewBarrier([]Source{noisy, quiet}, func(Report) { fired.Add(1) }, BarrierOptions{})
	if err != nil {
		t.Fatal(err)
	}
	b.Register()

	noisy.Finish(nil)
	if b.Fired() {
		t.Fatal("A double signal must not stand in for another asset")
	}
	quiet.Finish(nil)
	waitFired(t, b)
	if fired.Load() != 1 {
		t.Errorf("Expected callback once, got %d", fired.Load())
	}
}

// TestBarrierRejectsDuplicateIDs verifies the manifest requires unique IDs
func TestBarrierRejectsDuplicateIDs(t *testing.T) {
	_, err := NewBarrier([]Source{NewHandle("x"), NewHandle("x")}, nil, BarrierOptions{})
	if !errors.Is(err, ErrDuplicateAsset) {
		t.Errorf("Expected ErrDuplicateAsset, got %v", err)
	}
}

// TestBarrierRaceRegisterAndFinish finishes sources concurrently with Register
func TestBarrierRaceRegisterAndFinish(t *testing.T) {
	for round := 0; round < 200; round++ {
		var fired atomic.Int32
		handles := make([]*Handle, 6)
		sources := make([]Source, len(handles))
		for i := range handles {
			handles[i] = NewHandle(fmt.Sprintf("r%d", i))
			sources[i] = handles[i]
		}
		b, err := NewBarrier(sources, func(Report) { fired.Add(1) }, BarrierOptions{})
		if err != nil {
			t.Fatal(err)
		}

		start := make(chan struct{})
		var wg sync.WaitGroup
		for _, h := range handles {
			wg.Add(1)
			go func(h *Handle) {
				defer wg.Done()
				<-start
				h.Finish(nil)
			}(h)
		}
		close(start)
		b.Register()
		wg.Wait()
		waitFired(t, b)

		if n := fired.Load(); n != 1 {
			t.Fatalf("Round %d: expected callback once, got %d", round, n)
		}
	}
}

// TestBarrierWaitHonoursContext verifies Wait returns when the context ends first
func TestBarrierWaitHonoursContext(t *testing.T) {
	pending := NewHandle("slow")
	b, err := NewBarrier([]Source{pending}, nil, BarrierOptions{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := b.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	pending.Finish(nil)
	report, err := b.Wait(context.Background())
	if err != nil || len(report.Loaded) != 1 {
		t.Errorf("Expected completed report, got %+v, %v", report, err)
	}
}
