package game

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultDifficultyKey is used whenever a requested key is unknown.
const DefaultDifficultyKey = "medium"

var (
	ErrNoDefaultDifficulty = errors.New("difficulty table has no default profile")
	ErrInvalidDifficulty   = errors.New("invalid difficulty profile")
)

// DifficultyProfile is the immutable tuning a run is built from.
type DifficultyProfile struct {
	Name            string  `json:"name"`
	MaxSpeed        float64 `json:"maxSpeed"`
	SpawnIntervalMs float64 `json:"spawnIntervalMs"`
	StartingLives   int     `json:"startingLives"`
	TimeLimitMs     float64 `json:"timeLimitMs"`
}

// Validate rejects profiles that cannot drive a run.
func (p DifficultyProfile) Validate() error {
	switch {
	case p.MaxSpeed < 0:
		return fmt.Errorf("%w: %s: max speed %.2f", ErrInvalidDifficulty, p.Name, p.MaxSpeed)
	case p.SpawnIntervalMs <= 0:
		return fmt.Errorf("%w: %s: spawn interval %.0fms", ErrInvalidDifficulty, p.Name, p.SpawnIntervalMs)
	case p.StartingLives <= 0:
		return fmt.Errorf("%w: %s: starting lives %d", ErrInvalidDifficulty, p.Name, p.StartingLives)
	case p.TimeLimitMs <= 0:
		return fmt.Errorf("%w: %s: time limit %.0fms", ErrInvalidDifficulty, p.Name, p.TimeLimitMs)
	}
	return nil
}

// DifficultyTable maps difficulty keys to profiles with a designated fallback.
type DifficultyTable struct {
	profiles   map[string]DifficultyProfile
	defaultKey string
}

// NewDifficultyTable validates every profile and checks the fallback exists.
// Profile names are taken from their keys.
func NewDifficultyTable(defaultKey string, profiles map[string]DifficultyProfile) (*DifficultyTable, error) {
	t := &DifficultyTable{
		profiles:   make(map[string]DifficultyProfile, len(profiles)),
		defaultKey: defaultKey,
	}
	for key, p := range profiles {
		p.Name = key
		if err := p.Validate(); err != nil {
			return nil, err
		}
		t.profiles[key] = p
	}
	if _, ok := t.profiles[defaultKey]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoDefaultDifficulty, defaultKey)
	}
	return t, nil
}

// DefaultDifficulties returns the built-in easy/medium/hard table.
func DefaultDifficulties() *DifficultyTable {
	t, err := NewDifficultyTable(DefaultDifficultyKey, map[string]DifficultyProfile{
		"easy":   {MaxSpeed: 2, SpawnIntervalMs: 1500, StartingLives: 7, TimeLimitMs: 60000},
		"medium": {MaxSpeed: 3, SpawnIntervalMs: 1000, StartingLives: 5, TimeLimitMs: 45000},
		"hard":   {MaxSpeed: 4, SpawnIntervalMs: 600, StartingLives: 3, TimeLimitMs: 30000},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Select returns the profile for key, or the default profile and false when
// the key is unknown.
func (t *DifficultyTable) Select(key string) (DifficultyProfile, bool) {
	if p, ok := t.profiles[key]; ok {
		return p, true
	}
	return t.profiles[t.defaultKey], false
}

// DefaultKey returns the fallback key.
func (t *DifficultyTable) DefaultKey() string { return t.defaultKey }

// Profiles returns every profile sorted by key.
func (t *DifficultyTable) Profiles() []DifficultyProfile {
	keys := make([]string, 0, len(t.profiles))
	for k := range t.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DifficultyProfile, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.profiles[k])
	}
	return out
}
