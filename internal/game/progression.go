package game

import (
	"errors"
	"fmt"
	"math"
)

// NotificationDurationMs is how long a level-up banner stays on screen.
const NotificationDurationMs = 3000

var (
	ErrMalformedProgression = errors.New("progression thresholds must be strictly increasing")
	ErrNegativeScore        = errors.New("score delta must not be negative")
	ErrScoreOverflow        = errors.New("score delta would overflow")
)

// ProgressionTable holds the score needed to leave each level.
// thresholds[L] is the score at which level L advances to L+1; index 0 is unused.
type ProgressionTable struct {
	thresholds []int
}

// NewProgressionTable copies and validates thresholds.
func NewProgressionTable(thresholds []int) (*ProgressionTable, error) {
	if len(thresholds) < 2 {
		return nil, fmt.Errorf("%w: need at least one threshold after the sentinel", ErrMalformedProgression)
	}
	for i := 2; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, fmt.Errorf("%w: thresholds[%d]=%d after %d", ErrMalformedProgression, i, thresholds[i], thresholds[i-1])
		}
	}
	if thresholds[1] <= 0 {
		return nil, fmt.Errorf("%w: thresholds[1]=%d must be positive", ErrMalformedProgression, thresholds[1])
	}
	t := make([]int, len(thresholds))
	copy(t, thresholds)
	return &ProgressionTable{thresholds: t}, nil
}

// DefaultProgression returns the built-in five-level table.
func DefaultProgression() *ProgressionTable {
	t, err := NewProgressionTable([]int{0, 10, 50, 100, 200})
	if err != nil {
		panic(err)
	}
	return t
}

// Next returns the score needed to leave level, if the table defines one.
func (t *ProgressionTable) Next(level int) (int, bool) {
	if level < 1 || level >= len(t.thresholds) {
		return 0, false
	}
	return t.thresholds[level], true
}

// MaxLevel is the highest reachable level.
func (t *ProgressionTable) MaxLevel() int { return len(t.thresholds) }

// Thresholds returns a copy of the table.
func (t *ProgressionTable) Thresholds() []int {
	out := make([]int, len(t.thresholds))
	copy(out, t.thresholds)
	return out
}

// Notification is a transient on-screen message.
type Notification struct {
	Text        string  `json:"text"`
	RemainingMs float64 `json:"remainingMs"`
}

// LevelUpMessage is the banner text for reaching level.
func LevelUpMessage(level int) string {
	return fmt.Sprintf("🎉 Congratulations! You reached level %d!", level)
}

// Progression tracks score, level and the level-up banner for one run.
type Progression struct {
	table        *ProgressionTable
	score        int
	level        int
	notification *Notification

	// onLevelUp sees every crossed level, including the ones whose banner
	// is replaced within the same AddScore call.
	onLevelUp func(level, score int, message string)
}

// NewProgression starts at level 1 with no score.
func NewProgression(table *ProgressionTable, onLevelUp func(level, score int, message string)) *Progression {
	return &Progression{
		table:     table,
		level:     1,
		onLevelUp: onLevelUp,
	}
}

// AddScore adds points and resolves every level crossed as a result.
// Only the last crossed level's message is shown; it replaces any banner
// already on screen. Returns the number of levels gained.
func (p *Progression) AddScore(points int) (int, error) {
	if points < 0 {
		return 0, ErrNegativeScore
	}
	if points > math.MaxInt-p.score {
		return 0, ErrScoreOverflow
	}
	p.score += points

	crossed := 0
	var message string
	for {
		next, ok := p.table.Next(p.level)
		if !ok || p.score < next {
			break
		}
		p.level++
		crossed++
		message = LevelUpMessage(p.level)
		if p.onLevelUp != nil {
			p.onLevelUp(p.level, p.score, message)
		}
	}

	if crossed > 0 {
		p.notification = &Notification{Text: message, RemainingMs: NotificationDurationMs}
	}
	return crossed, nil
}

// Tick counts the banner down and clears it once expired.
func (p *Progression) Tick(deltaMs float64) {
	if p.notification == nil {
		return
	}
	p.notification.RemainingMs -= deltaMs
	if p.notification.RemainingMs <= 0 {
		p.notification = nil
	}
}

// Score returns the cumulative score.
func (p *Progression) Score() int { return p.score }

// Level returns the current level (starting at 1).
func (p *Progression) Level() int { return p.level }

// Notification returns a copy of the active banner, if any.
func (p *Progression) Notification() (Notification, bool) {
	if p.notification == nil {
		return Notification{}, false
	}
	return *p.notification, true
}
