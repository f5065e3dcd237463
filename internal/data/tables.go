// Package data loads the tuning tables a run is built from.
package data

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"sidescroller/internal/game"
)

// DifficultyEntry is one [profiles.<key>] block of difficulty.toml.
type DifficultyEntry struct {
	MaxSpeed        float64 `toml:"max_speed"`
	SpawnIntervalMs float64 `toml:"spawn_interval_ms"`
	StartingLives   int     `toml:"starting_lives"`
	TimeLimitMs     float64 `toml:"time_limit_ms"`
}

type difficultyFile struct {
	Default  string                     `toml:"default"`
	Profiles map[string]DifficultyEntry `toml:"profiles"`
}

// LoadDifficultyTable reads difficulty.toml. A missing file yields the
// built-in table; an empty default key means game.DefaultDifficultyKey.
func LoadDifficultyTable(path string) (*game.DifficultyTable, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return game.DefaultDifficulties(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read difficulty table: %w", err)
	}

	var f difficultyFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse difficulty table: %w", err)
	}
	if f.Default == "" {
		f.Default = game.DefaultDifficultyKey
	}

	profiles := make(map[string]game.DifficultyProfile, len(f.Profiles))
	for key, e := range f.Profiles {
		profiles[key] = game.DifficultyProfile{
			MaxSpeed:        e.MaxSpeed,
			SpawnIntervalMs: e.SpawnIntervalMs,
			StartingLives:   e.StartingLives,
			TimeLimitMs:     e.TimeLimitMs,
		}
	}
	t, err := game.NewDifficultyTable(f.Default, profiles)
	if err != nil {
		return nil, fmt.Errorf("difficulty table %s: %w", path, err)
	}
	return t, nil
}

type progressionFile struct {
	Thresholds []int `yaml:"thresholds"`
}

// LoadProgressionTable reads progression.yaml. A missing file yields the
// built-in table. Any other problem wraps game.ErrMalformedProgression so the
// caller can refuse to start.
func LoadProgressionTable(path string) (*game.ProgressionTable, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return game.DefaultProgression(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progression table: %w", err)
	}

	var f progressionFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", game.ErrMalformedProgression, path, err)
	}
	t, err := game.NewProgressionTable(f.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("progression table %s: %w", path, err)
	}
	return t, nil
}
