package game

import (
	"errors"
	"testing"
)

// TestSelectDifficulty verifies known keys resolve and unknown keys fall back
func TestSelectDifficulty(t *testing.T) {
	table := DefaultDifficulties()

	tests := []struct {
		key      string
		wantName string
		wantOK   bool
	}{
		{"easy", "easy", true},
		{"medium", "medium", true},
		{"hard", "hard", true},
		{"unknown", "medium", false},
		{"", "medium", false},
		{"HARD", "medium", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, ok := table.Select(tt.key)
			if ok != tt.wantOK {
				t.Errorf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if p.Name != tt.wantName {
				t.Errorf("Expected %q, got %q", tt.wantName, p.Name)
			}
		})
	}
}

// TestDifficultyOrdering verifies harder profiles are faster and less forgiving
func TestDifficultyOrdering(t *testing.T) {
	profiles := DefaultDifficulties().Profiles()
	if len(profiles) != 3 {
		t.Fatalf("Expected 3 profiles, got %d", len(profiles))
	}
	byName := map[string]DifficultyProfile{}
	for _, p := range profiles {
		byName[p.Name] = p
	}
	easy, medium, hard := byName["easy"], byName["medium"], byName["hard"]

	if !(easy.MaxSpeed < medium.MaxSpeed && medium.MaxSpeed < hard.MaxSpeed) {
		t.Error("MaxSpeed should increase with difficulty")
	}
	if !(easy.SpawnIntervalMs > medium.SpawnIntervalMs && medium.SpawnIntervalMs > hard.SpawnIntervalMs) {
		t.Error("Spawn interval should shrink with difficulty")
	}
	if !(easy.StartingLives > medium.StartingLives && medium.StartingLives > hard.StartingLives) {
		t.Error("Lives should shrink with difficulty")
	}
}

// TestNewDifficultyTableValidation verifies bad tables are rejected
func TestNewDifficultyTableValidation(t *testing.T) {
	good := DifficultyProfile{MaxSpeed: 3, SpawnIntervalMs: 1000, StartingLives: 5, TimeLimitMs: 45000}

	if _, err := NewDifficultyTable("missing", map[string]DifficultyProfile{"medium": good}); !errors.Is(err, ErrNoDefaultDifficulty) {
		t.Errorf("Expected ErrNoDefaultDifficulty, got %v", err)
	}

	bad := good
	bad.SpawnIntervalMs = 0
	if _, err := NewDifficultyTable("medium", map[string]DifficultyProfile{"medium": bad}); !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("Expected ErrInvalidDifficulty, got %v", err)
	}

	table, err := NewDifficultyTable("medium", map[string]DifficultyProfile{"medium": good})
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := table.Select("medium"); p.Name != "medium" {
		t.Errorf("Profile name should come from its key, got %q", p.Name)
	}
}
