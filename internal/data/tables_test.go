package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sidescroller/internal/game"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadDifficultyTable verifies profiles come from TOML
func TestLoadDifficultyTable(t *testing.T) {
	path := writeFile(t, "difficulty.toml", `
default = "normal"

[profiles.normal]
max_speed = 3
spawn_interval_ms = 900
starting_lives = 4
time_limit_ms = 40000

[profiles.brutal]
max_speed = 6
spawn_interval_ms = 300
starting_lives = 1
time_limit_ms = 20000
`)
	table, err := LoadDifficultyTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.DefaultKey() != "normal" {
		t.Errorf("Expected default normal, got %s", table.DefaultKey())
	}
	p, ok := table.Select("brutal")
	if !ok || p.MaxSpeed != 6 || p.StartingLives != 1 || p.Name != "brutal" {
		t.Errorf("Unexpected brutal profile %+v", p)
	}
	p, ok = table.Select("medium")
	if ok || p.Name != "normal" {
		t.Errorf("Expected fallback to normal, got %+v (ok=%v)", p, ok)
	}
}

// TestLoadDifficultyTableErrors verifies bad files are rejected
func TestLoadDifficultyTableErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"missing default", "[profiles.easy]\nmax_speed = 1\nspawn_interval_ms = 1\nstarting_lives = 1\ntime_limit_ms = 1\n", game.ErrNoDefaultDifficulty},
		{"zero lives", "default = \"a\"\n[profiles.a]\nmax_speed = 1\nspawn_interval_ms = 1\nstarting_lives = 0\ntime_limit_ms = 1\n", game.ErrInvalidDifficulty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDifficultyTable(writeFile(t, "d.toml", tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := LoadDifficultyTable(writeFile(t, "d.toml", "default = [")); err == nil {
		t.Error("Expected a parse error")
	}
}

// TestMissingFilesUseDefaults verifies absent tables fall back to built-ins
func TestMissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()

	d, err := LoadDifficultyTable(filepath.Join(dir, "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Profiles()) != 3 {
		t.Errorf("Expected 3 built-in profiles, got %d", len(d.Profiles()))
	}

	p, err := LoadProgressionTable(filepath.Join(dir, "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if p.MaxLevel() != 5 {
		t.Errorf("Expected 5 levels, got %d", p.MaxLevel())
	}
}

// TestLoadProgressionTable verifies YAML thresholds and malformed input
func TestLoadProgressionTable(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLevel int
		wantErr   bool
	}{
		{"valid", "thresholds: [0, 5, 15, 30]\n", 4, false},
		{"not increasing", "thresholds: [0, 10, 10]\n", 0, true},
		{"empty", "thresholds: []\n", 0, true},
		{"bad yaml", "thresholds: [0, 10\n", 0, true},
		{"wrong type", "thresholds: soon\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := LoadProgressionTable(writeFile(t, "p.yaml", tt.body))
			if tt.wantErr {
				if !errors.Is(err, game.ErrMalformedProgression) {
					t.Errorf("Expected ErrMalformedProgression, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if table.MaxLevel() != tt.wantLevel {
				t.Errorf("Expected %d levels, got %d", tt.wantLevel, table.MaxLevel())
			}
		})
	}
}
