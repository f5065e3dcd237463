package game

import (
	"math/rand"
	"sync"
	"testing"

	"sidescroller/internal/eventlog"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []eventlog.EventType
}

func (c *captureEmitter) EmitSimple(t eventlog.EventType, _ uint64, _ string, _ interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, t)
	return true
}

func (c *captureEmitter) count(t eventlog.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e == t {
			n++
		}
	}
	return n
}

func newTestManager(events eventlog.Emitter) (*RunManager, *[]*ManualScheduler) {
	var scheds []*ManualScheduler
	opts := DefaultStateOptions()
	opts.Rand = rand.New(rand.NewSource(3))
	m := NewRunManager(RunManagerConfig{
		Options: opts,
		NewScheduler: func() Scheduler {
			s := &ManualScheduler{}
			scheds = append(scheds, s)
			return s
		},
		Events: events,
	})
	return m, &scheds
}

// TestStartRunUnknownFallsBack verifies unknown keys get the default profile
func TestStartRunUnknownFallsBack(t *testing.T) {
	m, _ := newTestManager(nil)
	defer m.Stop()

	info, err := m.StartRun("unknown")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := DefaultDifficulties().Select(DefaultDifficultyKey)
	if !info.FellBack {
		t.Error("Expected FellBack")
	}
	if info.Profile != want {
		t.Errorf("Expected %+v, got %+v", want, info.Profile)
	}
	if info.ID == "" {
		t.Error("Run ID should be set")
	}
}

// TestStartRunReplacesPreviousRun verifies a new run abandons the old one
func TestStartRunReplacesPreviousRun(t *testing.T) {
	events := &captureEmitter{}
	m, scheds := newTestManager(events)
	defer m.Stop()

	first, _ := m.StartRun("easy")
	firstDone := m.Done()
	(*scheds)[0].Fire(0)

	second, _ := m.StartRun("hard")
	if first.ID == second.ID {
		t.Error("Each run needs its own ID")
	}
	select {
	case <-firstDone:
	default:
		t.Error("First run should be stopped")
	}
	if (*scheds)[0].Fire(16) {
		t.Error("First run's scheduler fired after replacement")
	}

	(*scheds)[1].Fire(0)
	hud, ok := m.HUD()
	if !ok || hud.RunID != second.ID || hud.Difficulty != "hard" {
		t.Errorf("HUD should show the second run, got %+v", hud)
	}
	if cur, _ := m.Current(); cur.ID != second.ID {
		t.Errorf("Current should be the second run, got %s", cur.ID)
	}
	if events.count(eventlog.EventTypeRunStart) != 2 {
		t.Errorf("Expected 2 run_start events, got %d", events.count(eventlog.EventTypeRunStart))
	}
}

// TestStartRunPublishesHUD verifies readers see the new run before its first frame
func TestStartRunPublishesHUD(t *testing.T) {
	m, scheds := newTestManager(nil)
	defer m.Stop()

	m.StartRun("easy")
	(*scheds)[0].Fire(0)

	second, _ := m.StartRun("hard")
	hud, ok := m.HUD()
	if !ok {
		t.Fatal("Expected a HUD right after StartRun")
	}
	if hud.RunID != second.ID || hud.Difficulty != "hard" {
		t.Errorf("Expected the new run's HUD, got run=%s difficulty=%s", hud.RunID, hud.Difficulty)
	}
	if hud.Lives != second.Profile.StartingLives || hud.Score != 0 || hud.ElapsedMs != 0 {
		t.Errorf("Expected a fresh HUD, got %+v", hud)
	}
}

// TestRunEndEmitted verifies a terminal run reports its outcome once
func TestRunEndEmitted(t *testing.T) {
	events := &captureEmitter{}
	m, scheds := newTestManager(events)
	defer m.Stop()

	info, _ := m.StartRun("medium")
	s := (*scheds)[0]
	s.Fire(0)
	s.Fire(info.Profile.TimeLimitMs + 1)

	<-m.Done()
	if events.count(eventlog.EventTypeRunEnd) != 1 {
		t.Errorf("Expected 1 run_end, got %d", events.count(eventlog.EventTypeRunEnd))
	}
	hud, _ := m.HUD()
	if !hud.Terminal || hud.Outcome != OutcomeTimeout {
		t.Errorf("Expected terminal timeout HUD, got %+v", hud)
	}
}

// TestDifficultiesListed verifies the manager exposes every profile
func TestDifficultiesListed(t *testing.T) {
	m, _ := newTestManager(nil)
	if got := len(m.Difficulties()); got != 3 {
		t.Errorf("Expected 3 difficulties, got %d", got)
	}
	if _, ok := m.Current(); ok {
		t.Error("No run should be current before StartRun")
	}
}
